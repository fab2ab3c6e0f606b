package services

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/aurum/internal/models"
)

const orderNumberPrefix = "AUR"

// estimatedDeliveryWindow is added to now when an order ships.
const estimatedDeliveryWindow = 7 * 24 * time.Hour

// Conflict and not-found errors surfaced by order operations.
var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrProductNotFound         = errors.New("product not found")
	ErrPaymentAlreadyCompleted = errors.New("payment already completed for this order")
	ErrOrderNotCancellable     = errors.New("order cannot be cancelled in its current status")
)

// InsufficientStockError reports a line whose conditional stock decrement
// affected zero rows.
type InsufficientStockError struct {
	ProductName string
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (requested %d)", e.ProductName, e.Requested)
}

// ValidationError carries field-level messages for a rejected request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

// PaymentQRGenerator produces a payment QR for UPI-class orders.
type PaymentQRGenerator interface {
	GeneratePaymentQR(order *models.Order) (*PaymentQR, error)
}

// OrderService orchestrates the order lifecycle: creation with stock
// reservation, payment confirmation, cancellation with stock restore, status
// transitions and public tracking.
type OrderService struct {
	db       *gorm.DB
	notifier *NotificationService
	qr       PaymentQRGenerator
	pricing  PricingConfig
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB, notifier *NotificationService, qr PaymentQRGenerator, pricing PricingConfig) *OrderService {
	return &OrderService{db: db, notifier: notifier, qr: qr, pricing: pricing}
}

// OrderItemInput is one cart line. Either ProductID or Snapshot must be set;
// explicit snapshot fields win over live product fields.
type OrderItemInput struct {
	ProductID string                  `json:"product_id"`
	Snapshot  *models.ProductSnapshot `json:"product_snapshot"`
	Quantity  int                     `json:"quantity"`
	Price     float64                 `json:"price"`
	Variant   string                  `json:"variant"`
}

// CouponInput is an applied coupon with its precomputed discount.
type CouponInput struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
}

// CreateOrderInput is the checkout payload.
type CreateOrderInput struct {
	Items           []OrderItemInput    `json:"items"`
	CustomerInfo    models.CustomerInfo `json:"customer_info"`
	ShippingAddress models.Address      `json:"shipping_address"`
	BillingAddress  *models.Address     `json:"billing_address"`
	PaymentMethod   string              `json:"payment_method"`
	PaymentStatus   string              `json:"payment_status"`
	Pricing         *models.Pricing     `json:"pricing"`
	Coupon          *CouponInput        `json:"coupon"`
	Notes           string              `json:"notes"`
}

// CreateOrder validates the cart, snapshots products, reserves stock with an
// atomic conditional decrement, persists the order and kicks off best-effort
// side effects (payment QR, notifications, user statistics).
func (s *OrderService) CreateOrder(userID uuid.UUID, in CreateOrderInput) (*models.Order, error) {
	if err := validateCreateOrder(in); err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          userID,
		Status:          models.OrderStatusPending,
		PlacedAt:        time.Now(),
		CustomerInfo:    in.CustomerInfo,
		ShippingAddress: in.ShippingAddress,
		Notes:           in.Notes,
		Payment: models.Payment{
			Method: in.PaymentMethod,
			Status: models.PaymentStatusPending,
		},
	}
	if in.BillingAddress != nil {
		order.BillingAddress = *in.BillingAddress
	}
	if in.PaymentStatus != "" {
		order.Payment.Status = in.PaymentStatus
	}

	var couponDiscount float64
	if in.Coupon != nil {
		order.CouponCode = in.Coupon.Code
		couponDiscount = in.Coupon.Discount
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, line := range in.Items {
			item, err := s.buildItem(tx, line)
			if err != nil {
				return err
			}
			order.Items = append(order.Items, *item)
		}

		for i := range order.Items {
			item := &order.Items[i]
			if item.ProductID == nil {
				continue
			}
			if err := s.debitStock(tx, item); err != nil {
				return err
			}
		}

		order.Pricing = CalculatePricing(order.Items, couponDiscount, in.Pricing, s.pricing)
		order.OrderNumber = generateOrderNumber()

		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}

	s.attachPaymentQR(order)

	if s.notifier != nil {
		dispatched := *order
		go s.notifier.Dispatch(&dispatched)
	}

	s.recordUserStats(userID, order.Pricing.Total)

	return order, nil
}

// buildItem resolves the authoritative product for a cart line and builds
// its immutable snapshot. Explicit snapshot fields take precedence over the
// live product.
func (s *OrderService) buildItem(tx *gorm.DB, line OrderItemInput) (*models.OrderItem, error) {
	var product *models.Product
	if line.ProductID != "" {
		id, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"items.product_id": "invalid product id"}}
		}

		var p models.Product
		switch err := tx.First(&p, "id = ?", id).Error; {
		case err == nil:
			product = &p
		case errors.Is(err, gorm.ErrRecordNotFound):
			if line.Snapshot == nil {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
			}
		default:
			return nil, err
		}
	}

	if product == nil && line.Snapshot == nil {
		return nil, &ValidationError{Fields: map[string]string{
			"items": "each item needs a product reference or a product snapshot",
		}}
	}

	var snapshot models.ProductSnapshot
	if product != nil {
		snapshot = models.ProductSnapshot{
			Name:           product.Name,
			SKU:            product.SKU,
			Image:          product.Image,
			Price:          product.Price,
			Specifications: product.Specifications,
		}
	}
	if line.Snapshot != nil {
		overlaySnapshot(&snapshot, line.Snapshot)
	}

	unitPrice := line.Price
	if unitPrice == 0 {
		unitPrice = snapshot.Price
	}

	item := &models.OrderItem{
		Snapshot:  snapshot,
		Quantity:  line.Quantity,
		UnitPrice: unitPrice,
		Variant:   line.Variant,
	}
	if product != nil {
		id := product.ID
		item.ProductID = &id
	}

	return item, nil
}

func overlaySnapshot(dst, src *models.ProductSnapshot) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.SKU != "" {
		dst.SKU = src.SKU
	}
	if src.Image != "" {
		dst.Image = src.Image
	}
	if src.Price != 0 {
		dst.Price = src.Price
	}
	if src.Specifications != "" {
		dst.Specifications = src.Specifications
	}
}

// debitStock reserves stock for one line with a single conditional update.
// Zero rows affected means another purchaser got there first, and the order
// is rejected rather than oversold.
func (s *OrderService) debitStock(tx *gorm.DB, item *models.OrderItem) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", *item.ProductID, item.Quantity).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &InsufficientStockError{ProductName: item.Snapshot.Name, Requested: item.Quantity}
	}

	item.StockDebited = true
	return refreshStockStatus(tx, *item.ProductID)
}

// refreshStockStatus recomputes the derived stock status after a raw
// quantity update, in one statement so it stays consistent under concurrency.
func refreshStockStatus(tx *gorm.DB, productID uuid.UUID) error {
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock_status", gorm.Expr(
			"CASE WHEN stock_quantity <= 0 THEN ? WHEN stock_quantity <= low_stock_threshold THEN ? ELSE ? END",
			models.StockStatusOutOfStock, models.StockStatusLowStock, models.StockStatusInStock,
		)).Error
}

func (s *OrderService) attachPaymentQR(order *models.Order) {
	if s.qr == nil || !isQRPaymentMethod(order.Payment.Method) {
		return
	}

	qr, err := s.qr.GeneratePaymentQR(order)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			log.Printf("[Order] payment QR not configured, skipping for order %s", order.OrderNumber)
		} else {
			log.Printf("[Order] payment QR generation failed for order %s: %v", order.OrderNumber, err)
		}
		return
	}

	order.Payment.QRImage = qr.QRImage
	if err := s.db.Model(&models.Order{}).Where("id = ?", order.ID).
		UpdateColumn("payment_qr_image", qr.QRImage).Error; err != nil {
		log.Printf("[Order] failed to persist payment QR for order %s: %v", order.OrderNumber, err)
	}
}

func isQRPaymentMethod(method string) bool {
	return method == "upi" || method == "qr"
}

func (s *OrderService) recordUserStats(userID uuid.UUID, total float64) {
	err := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"orders_count": gorm.Expr("orders_count + 1"),
		"total_spent":  gorm.Expr("total_spent + ?", total),
	}).Error
	if err != nil {
		log.Printf("[Order] failed to update statistics for user %s: %v", userID, err)
	}
}

// ConfirmPayment marks the order paid and confirmed. Re-confirming an
// already-completed payment is a conflict, not a silent no-op.
func (s *OrderService) ConfirmPayment(orderID uuid.UUID, transactionID, method string) (*models.Order, error) {
	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}

	if order.Payment.Status == models.PaymentStatusCompleted {
		return nil, ErrPaymentAlreadyCompleted
	}

	now := time.Now()
	updates := map[string]any{
		"payment_status":         models.PaymentStatusCompleted,
		"payment_transaction_id": transactionID,
		"payment_paid_at":        now,
		"status":                 models.OrderStatusConfirmed,
	}
	if method != "" {
		updates["payment_method"] = method
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return err
		}
		return s.appendStatusEvent(tx, order.ID, models.OrderStatusConfirmed, "payment completed", "payment")
	})
	if err != nil {
		return nil, err
	}

	order.Payment.Status = models.PaymentStatusCompleted
	order.Payment.TransactionID = transactionID
	order.Payment.PaidAt = &now
	if method != "" {
		order.Payment.Method = method
	}
	order.Status = models.OrderStatusConfirmed

	if s.notifier != nil {
		dispatched := *order
		go s.notifier.Dispatch(&dispatched)
	}

	return order, nil
}

// CancelOrder cancels an order still in an early state and credits back
// exactly the stock that was debited at creation.
func (s *OrderService) CancelOrder(orderID uuid.UUID, reason, cancelledBy string) (*models.Order, error) {
	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}

	if !order.CanCancel() {
		return nil, ErrOrderNotCancellable
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			UpdateColumn("status", models.OrderStatusCancelled).Error; err != nil {
			return err
		}

		if err := s.appendStatusEvent(tx, order.ID, models.OrderStatusCancelled, reason, cancelledBy); err != nil {
			return err
		}

		for i := range order.Items {
			item := &order.Items[i]
			if !item.StockDebited || item.ProductID == nil {
				continue
			}
			if err := tx.Model(&models.Product{}).Where("id = ?", *item.ProductID).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error; err != nil {
				return err
			}
			if err := refreshStockStatus(tx, *item.ProductID); err != nil {
				return err
			}
			if err := tx.Model(&models.OrderItem{}).Where("id = ?", item.ID).
				UpdateColumn("stock_debited", false).Error; err != nil {
				return err
			}
			item.StockDebited = false
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = models.OrderStatusCancelled
	return order, nil
}

// UpdateStatusInput carries an admin status transition.
type UpdateStatusInput struct {
	Status    string           `json:"status"`
	Note      string           `json:"note"`
	UpdatedBy string           `json:"updated_by"`
	Tracking  *models.Tracking `json:"tracking"`
}

// UpdateStatus applies an admin-issued status transition and appends it to
// the history. Transitions are intentionally permissive beyond the cancel
// guard; shipped populates tracking, delivered stamps the delivery time.
func (s *OrderService) UpdateStatus(orderID uuid.UUID, in UpdateStatusInput) (*models.Order, error) {
	if in.Status == "" {
		return nil, &ValidationError{Fields: map[string]string{"status": "status is required"}}
	}

	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]any{"status": in.Status}

	if in.Status == models.OrderStatusShipped && in.Tracking != nil {
		estimated := now.Add(estimatedDeliveryWindow)
		updates["tracking_carrier"] = in.Tracking.Carrier
		updates["tracking_tracking_number"] = in.Tracking.TrackingNumber
		updates["tracking_tracking_url"] = in.Tracking.TrackingURL
		updates["estimated_delivery"] = estimated
		order.Tracking = *in.Tracking
		order.EstimatedDelivery = &estimated
	}
	if in.Status == models.OrderStatusDelivered {
		updates["actual_delivery"] = now
		order.ActualDelivery = &now
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return err
		}
		return s.appendStatusEvent(tx, order.ID, in.Status, in.Note, in.UpdatedBy)
	})
	if err != nil {
		return nil, err
	}

	order.Status = in.Status

	if s.notifier != nil {
		dispatched := *order
		go s.notifier.NotifyStatusChange(&dispatched, in.Status)
	}

	return order, nil
}

// OrderTrackingView is the reduced public view returned by TrackOrder. It
// exposes no payment data and no customer PII.
type OrderTrackingView struct {
	OrderNumber       string                    `json:"order_number"`
	Status            string                    `json:"status"`
	PlacedAt          time.Time                 `json:"placed_at"`
	StatusHistory     []models.OrderStatusEvent `json:"status_history"`
	Tracking          models.Tracking           `json:"tracking"`
	EstimatedDelivery *time.Time                `json:"estimated_delivery"`
	ActualDelivery    *time.Time                `json:"actual_delivery"`
}

// TrackOrder looks an order up by order number or record id and returns the
// public tracking view.
func (s *OrderService) TrackOrder(ref string) (*OrderTrackingView, error) {
	query := s.db.Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
		return db.Order("occurred_at asc")
	})

	var order models.Order
	var err error
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		err = query.First(&order, "id = ?", id).Error
	} else {
		err = query.First(&order, "order_number = ?", ref).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return &OrderTrackingView{
		OrderNumber:       order.OrderNumber,
		Status:            order.Status,
		PlacedAt:          order.PlacedAt,
		StatusHistory:     order.StatusHistory,
		Tracking:          order.Tracking,
		EstimatedDelivery: order.EstimatedDelivery,
		ActualDelivery:    order.ActualDelivery,
	}, nil
}

// DeleteOrder removes an order and its children outright. Administrative
// escape hatch: no cancel guard, no stock restore.
func (s *OrderService) DeleteOrder(orderID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", orderID).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Where("order_id = ?", orderID).Delete(&models.OrderStatusEvent{}).Error
	})
}

func (s *OrderService) getOrder(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) appendStatusEvent(tx *gorm.DB, orderID uuid.UUID, status, note, updatedBy string) error {
	return tx.Create(&models.OrderStatusEvent{
		OrderID:    orderID,
		Status:     status,
		Note:       note,
		UpdatedBy:  updatedBy,
		OccurredAt: time.Now(),
	}).Error
}

func validateCreateOrder(in CreateOrderInput) error {
	fields := map[string]string{}

	if len(in.Items) == 0 {
		fields["items"] = "at least one item is required"
	}
	for i, item := range in.Items {
		if item.Quantity < 1 {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "quantity must be at least 1"
		}
		if item.Price < 0 {
			fields[fmt.Sprintf("items[%d].price", i)] = "price cannot be negative"
		}
	}

	if in.CustomerInfo.Email == "" {
		fields["customer_info.email"] = "email is required"
	}
	if in.CustomerInfo.Name == "" {
		fields["customer_info.name"] = "name is required"
	}

	if in.ShippingAddress.Line == "" {
		fields["shipping_address.line"] = "address line is required"
	}
	if in.ShippingAddress.City == "" {
		fields["shipping_address.city"] = "city is required"
	}

	if in.Pricing != nil {
		if in.Pricing.Subtotal < 0 || in.Pricing.Tax < 0 || in.Pricing.ShippingCost < 0 || in.Pricing.Discount < 0 {
			fields["pricing"] = "monetary fields cannot be negative"
		}
	}
	if in.Coupon != nil && in.Coupon.Discount < 0 {
		fields["coupon.discount"] = "discount cannot be negative"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func generateOrderNumber() string {
	return fmt.Sprintf("%s%d%04d", orderNumberPrefix, time.Now().UnixMilli()%1_000_000_000, rand.Intn(10000))
}
