package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses. Cancellation is only permitted from the first three.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusReturned   = "returned"
)

// Payment statuses.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
)

// CustomerInfo is the buyer contact snapshot captured at order time. It is
// denormalized on purpose: later edits to the user profile must not change it.
type CustomerInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Address holds a shipping or billing address.
type Address struct {
	Line       string `json:"line"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Pricing is the monetary breakdown of an order.
type Pricing struct {
	Subtotal     float64 `json:"subtotal"`
	Tax          float64 `json:"tax"`
	ShippingCost float64 `json:"shipping_cost"`
	Discount     float64 `json:"discount"`
	Total        float64 `json:"total"`
}

// Payment records how and whether the order was paid.
type Payment struct {
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	TransactionID string     `json:"transaction_id"`
	PaidAt        *time.Time `json:"paid_at"`
	QRImage       string     `json:"qr_image,omitempty"`
}

// Tracking carries shipment details, populated on transition into shipped.
type Tracking struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
}

// NotificationFlags records which notification channels succeeded for the
// order. Used for observability only, never to gate order validity.
type NotificationFlags struct {
	EmailSent        bool `json:"email_sent"`
	WhatsAppSent     bool `json:"whatsapp_sent"`
	InvoiceGenerated bool `json:"invoice_generated"`
}

type Order struct {
	BaseModel
	UserID            uuid.UUID          `gorm:"type:uuid;index" json:"user_id"`
	User              *User              `json:"user,omitempty"`
	OrderNumber       string             `gorm:"uniqueIndex" json:"order_number"`
	Status            string             `json:"status"`
	PlacedAt          time.Time          `json:"placed_at"`
	CustomerInfo      CustomerInfo       `gorm:"embedded;embeddedPrefix:customer_" json:"customer_info"`
	ShippingAddress   Address            `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	BillingAddress    Address            `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`
	Pricing           Pricing            `gorm:"embedded;embeddedPrefix:pricing_" json:"pricing"`
	Payment           Payment            `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	Tracking          Tracking           `gorm:"embedded;embeddedPrefix:tracking_" json:"tracking"`
	EstimatedDelivery *time.Time         `json:"estimated_delivery"`
	ActualDelivery    *time.Time         `json:"actual_delivery"`
	Notifications     NotificationFlags  `gorm:"embedded;embeddedPrefix:notif_" json:"notifications"`
	CouponCode        string             `json:"coupon_code"`
	Notes             string             `json:"notes"`
	Items             []OrderItem        `json:"items,omitempty"`
	StatusHistory     []OrderStatusEvent `json:"status_history,omitempty"`
}

// CanCancel reports whether the order may still be cancelled.
func (o *Order) CanCancel() bool {
	switch o.Status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing:
		return true
	}
	return false
}

// ProductSnapshot is the immutable copy of product fields captured at order
// time, so historical orders survive catalog changes and deletions.
type ProductSnapshot struct {
	Name           string  `json:"name"`
	SKU            string  `json:"sku"`
	Image          string  `json:"image"`
	Price          float64 `json:"price"`
	Specifications string  `json:"specifications"`
}

type OrderItem struct {
	BaseModel
	OrderID uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	// ProductID is kept only for stock adjustment; nil when the line was
	// identified purely by its snapshot.
	ProductID    *uuid.UUID      `gorm:"type:uuid" json:"product_id"`
	Product      *Product        `json:"product,omitempty"`
	Snapshot     ProductSnapshot `gorm:"embedded;embeddedPrefix:product_" json:"product_snapshot"`
	Quantity     int             `json:"quantity"`
	UnitPrice    float64         `json:"unit_price"`
	Variant      string          `json:"variant"`
	StockDebited bool            `json:"stock_debited"`
}

// OrderStatusEvent is one entry of the append-only status history. Rows are
// only ever inserted, never updated or deleted while the order exists.
type OrderStatusEvent struct {
	BaseModel
	OrderID    uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	Status     string    `json:"status"`
	Note       string    `json:"note"`
	UpdatedBy  string    `json:"updated_by"`
	OccurredAt time.Time `json:"occurred_at"`
}
