package models

import "gorm.io/gorm"

// Stock statuses derived from quantity vs low-stock threshold.
const (
	StockStatusInStock    = "in-stock"
	StockStatusLowStock   = "low-stock"
	StockStatusOutOfStock = "out-of-stock"
)

const DefaultLowStockThreshold = 5

type Product struct {
	BaseModel
	Slug             string  `gorm:"uniqueIndex" json:"slug"`
	SKU              string  `gorm:"uniqueIndex" json:"sku"`
	Name             string  `json:"name"`
	ShortDescription string  `json:"short_description"`
	LongDescription  string  `json:"long_description"`
	Category         string  `gorm:"index" json:"category"`
	Metal            string  `json:"metal"`
	Purity           string  `json:"purity"`
	Gemstone         string  `json:"gemstone"`
	WeightGrams      float64 `json:"weight_grams"`
	Price            float64 `json:"price"`
	Image            string  `json:"image"`
	// Specifications is a JSON document of label/value pairs shown on the
	// product page and copied into order snapshots.
	Specifications    string `json:"specifications"`
	StockQuantity     int    `json:"stock_quantity"`
	LowStockThreshold int    `gorm:"default:5" json:"low_stock_threshold"`
	StockStatus       string `json:"stock_status"`
	IsActive          bool   `gorm:"default:true" json:"is_active"`
}

// RecomputeStockStatus derives StockStatus from the current quantity.
func (p *Product) RecomputeStockStatus() {
	threshold := p.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	switch {
	case p.StockQuantity <= 0:
		p.StockStatus = StockStatusOutOfStock
	case p.StockQuantity <= threshold:
		p.StockStatus = StockStatusLowStock
	default:
		p.StockStatus = StockStatusInStock
	}
}

// BeforeSave keeps the derived status consistent on every write that goes
// through the model. Raw column updates must refresh it separately.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.RecomputeStockStatus()
	return nil
}
