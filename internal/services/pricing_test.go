package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/aurum/internal/models"
)

var testPricingConfig = PricingConfig{
	TaxRate:               0.18,
	FreeShippingThreshold: 5000,
	FlatShippingFee:       200,
}

func TestCalculatePricing(t *testing.T) {
	tests := []struct {
		name     string
		items    []models.OrderItem
		discount float64
		supplied *models.Pricing
		want     models.Pricing
	}{
		{
			name: "computed below free shipping threshold",
			items: []models.OrderItem{
				{Quantity: 2, UnitPrice: 1500},
			},
			want: models.Pricing{
				Subtotal:     3000,
				Tax:          540,
				ShippingCost: 200,
				Discount:     0,
				Total:        3740,
			},
		},
		{
			name: "free shipping above threshold",
			items: []models.OrderItem{
				{Quantity: 1, UnitPrice: 6000},
			},
			want: models.Pricing{
				Subtotal:     6000,
				Tax:          1080,
				ShippingCost: 0,
				Discount:     0,
				Total:        7080,
			},
		},
		{
			name: "coupon discount applied last",
			items: []models.OrderItem{
				{Quantity: 1, UnitPrice: 2000},
			},
			discount: 500,
			want: models.Pricing{
				Subtotal:     2000,
				Tax:          360,
				ShippingCost: 200,
				Discount:     500,
				Total:        2060,
			},
		},
		{
			name: "multiple lines summed",
			items: []models.OrderItem{
				{Quantity: 2, UnitPrice: 1000},
				{Quantity: 1, UnitPrice: 1500},
			},
			want: models.Pricing{
				Subtotal:     3500,
				Tax:          630,
				ShippingCost: 200,
				Discount:     0,
				Total:        4330,
			},
		},
		{
			name: "supplied block trusted verbatim",
			items: []models.OrderItem{
				{Quantity: 2, UnitPrice: 1500},
			},
			supplied: &models.Pricing{Subtotal: 3000, Tax: 0, ShippingCost: 0, Discount: 100, Total: 2900},
			want:     models.Pricing{Subtotal: 3000, Tax: 0, ShippingCost: 0, Discount: 100, Total: 2900},
		},
		{
			name: "incomplete supplied block recomputed",
			items: []models.OrderItem{
				{Quantity: 1, UnitPrice: 1000},
			},
			supplied: &models.Pricing{Subtotal: 1000},
			want: models.Pricing{
				Subtotal:     1000,
				Tax:          180,
				ShippingCost: 200,
				Discount:     0,
				Total:        1380,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculatePricing(tt.items, tt.discount, tt.supplied, testPricingConfig)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculatePricingTotalIdentity(t *testing.T) {
	items := []models.OrderItem{
		{Quantity: 3, UnitPrice: 999.50},
		{Quantity: 1, UnitPrice: 120.25},
	}

	got := CalculatePricing(items, 50, nil, testPricingConfig)
	assert.InDelta(t, got.Subtotal+got.Tax+got.ShippingCost-got.Discount, got.Total, 1e-9)
}
