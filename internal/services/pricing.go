package services

import "github.com/example/aurum/internal/models"

// PricingConfig carries the rates used when the server computes totals.
type PricingConfig struct {
	TaxRate               float64
	FreeShippingThreshold float64
	FlatShippingFee       float64
}

// CalculatePricing derives the order's monetary breakdown.
//
// A complete caller-supplied block (non-zero total) is trusted verbatim; the
// server only computes when the cart did not send totals. Otherwise subtotal
// is summed from the lines, tax and shipping follow the configured rates and
// the coupon discount is applied last. Negative totals from an oversized
// discount are not clamped.
func CalculatePricing(items []models.OrderItem, couponDiscount float64, supplied *models.Pricing, cfg PricingConfig) models.Pricing {
	if supplied != nil && supplied.Total != 0 {
		return *supplied
	}

	var subtotal float64
	for _, item := range items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}

	tax := subtotal * cfg.TaxRate

	shipping := cfg.FlatShippingFee
	if subtotal > cfg.FreeShippingThreshold {
		shipping = 0
	}

	return models.Pricing{
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shipping,
		Discount:     couponDiscount,
		Total:        subtotal + tax + shipping - couponDiscount,
	}
}
