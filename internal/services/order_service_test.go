package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/aurum/internal/database"
	"github.com/example/aurum/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newOrderService(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewOrderService(db, nil, nil, testPricingConfig), db
}

func createTestProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) models.Product {
	t.Helper()
	product := models.Product{
		Name:              name,
		Slug:              name + "-slug",
		SKU:               "SKU-" + name,
		Price:             price,
		StockQuantity:     stock,
		LowStockThreshold: models.DefaultLowStockThreshold,
		IsActive:          true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func checkoutInput(productID string, qty int) CreateOrderInput {
	return CreateOrderInput{
		Items: []OrderItemInput{
			{ProductID: productID, Quantity: qty},
		},
		CustomerInfo: models.CustomerInfo{
			Email: "priya@example.com",
			Name:  "Priya Sharma",
			Phone: "+919800000001",
		},
		ShippingAddress: models.Address{
			Line:       "14 MG Road",
			City:       "Bengaluru",
			State:      "Karnataka",
			PostalCode: "560001",
			Country:    "IN",
		},
		PaymentMethod: "cod",
	}
}

func TestCreateOrderComputesPricing(t *testing.T) {
	svc, db := newOrderService(t)
	product := createTestProduct(t, db, "Gold Hoop Earrings", 1500, 10)

	order, err := svc.CreateOrder(uuid.New(), checkoutInput(product.ID.String(), 2))
	require.NoError(t, err)

	assert.Equal(t, 3000.0, order.Pricing.Subtotal)
	assert.Equal(t, 540.0, order.Pricing.Tax)
	assert.Equal(t, 200.0, order.Pricing.ShippingCost)
	assert.Equal(t, 0.0, order.Pricing.Discount)
	assert.Equal(t, 3740.0, order.Pricing.Total)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.Payment.Status)
	assert.NotEmpty(t, order.OrderNumber)
}

func TestCreateOrderDebitsStock(t *testing.T) {
	svc, db := newOrderService(t)
	product := createTestProduct(t, db, "Silver Anklet", 900, 5)

	order, err := svc.CreateOrder(uuid.New(), checkoutInput(product.ID.String(), 3))
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].StockDebited)

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 2, got.StockQuantity)
	assert.Equal(t, models.StockStatusLowStock, got.StockStatus)
}

func TestCreateOrderInsufficientStockRejected(t *testing.T) {
	svc, db := newOrderService(t)
	product := createTestProduct(t, db, "Diamond Pendant", 45000, 1)

	_, err := svc.CreateOrder(uuid.New(), checkoutInput(product.ID.String(), 2))

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Diamond Pendant", stockErr.ProductName)
	assert.Equal(t, 2, stockErr.Requested)

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 1, got.StockQuantity, "failed order must not consume stock")

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count, "no partial order state may be created")
}

func TestCreateOrderRollsBackEarlierDebits(t *testing.T) {
	svc, db := newOrderService(t)
	plentiful := createTestProduct(t, db, "Gold Ring", 2000, 10)
	scarce := createTestProduct(t, db, "Ruby Ring", 8000, 1)

	in := checkoutInput(plentiful.ID.String(), 2)
	in.Items = append(in.Items, OrderItemInput{ProductID: scarce.ID.String(), Quantity: 3})

	_, err := svc.CreateOrder(uuid.New(), in)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", plentiful.ID).Error)
	assert.Equal(t, 10, got.StockQuantity, "debit of the first line must be rolled back")
}

func TestCreateOrderSnapshotOnlyLine(t *testing.T) {
	svc, _ := newOrderService(t)

	in := checkoutInput("", 1)
	in.Items[0].Snapshot = &models.ProductSnapshot{
		Name:  "Heirloom Brooch",
		SKU:   "HB-01",
		Price: 12000,
	}

	order, err := svc.CreateOrder(uuid.New(), in)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)

	item := order.Items[0]
	assert.Nil(t, item.ProductID)
	assert.False(t, item.StockDebited)
	assert.Equal(t, "Heirloom Brooch", item.Snapshot.Name)
	assert.Equal(t, 12000.0, item.UnitPrice)
}

func TestCreateOrderSnapshotFieldsWinOverProduct(t *testing.T) {
	svc, db := newOrderService(t)
	product := createTestProduct(t, db, "Pearl Necklace", 5000, 4)

	in := checkoutInput(product.ID.String(), 1)
	in.Items[0].Snapshot = &models.ProductSnapshot{Name: "Pearl Necklace (Gift Box)"}

	order, err := svc.CreateOrder(uuid.New(), in)
	require.NoError(t, err)

	item := order.Items[0]
	assert.Equal(t, "Pearl Necklace (Gift Box)", item.Snapshot.Name)
	assert.Equal(t, "SKU-Pearl Necklace", item.Snapshot.SKU, "unset snapshot fields fall back to the product")
	assert.Equal(t, 5000.0, item.UnitPrice)
	require.NotNil(t, item.ProductID)
	assert.Equal(t, product.ID, *item.ProductID)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _ := newOrderService(t)

	tests := []struct {
		name   string
		mutate func(*CreateOrderInput)
		field  string
	}{
		{"empty cart", func(in *CreateOrderInput) { in.Items = nil }, "items"},
		{"zero quantity", func(in *CreateOrderInput) { in.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"negative price", func(in *CreateOrderInput) { in.Items[0].Price = -1 }, "items[0].price"},
		{"missing email", func(in *CreateOrderInput) { in.CustomerInfo.Email = "" }, "customer_info.email"},
		{"missing name", func(in *CreateOrderInput) { in.CustomerInfo.Name = "" }, "customer_info.name"},
		{"missing address line", func(in *CreateOrderInput) { in.ShippingAddress.Line = "" }, "shipping_address.line"},
		{"missing city", func(in *CreateOrderInput) { in.ShippingAddress.City = "" }, "shipping_address.city"},
		{"negative supplied pricing", func(in *CreateOrderInput) {
			in.Pricing = &models.Pricing{Subtotal: -1, Total: 10}
		}, "pricing"},
		{"negative coupon", func(in *CreateOrderInput) {
			in.Coupon = &CouponInput{Code: "OOPS", Discount: -5}
		}, "coupon.discount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := checkoutInput(uuid.NewString(), 1)
			in.Items[0].Snapshot = &models.ProductSnapshot{Name: "x", Price: 1}
			tt.mutate(&in)

			_, err := svc.CreateOrder(uuid.New(), in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestCreateOrderUnknownProductRejected(t *testing.T) {
	svc, _ := newOrderService(t)

	_, err := svc.CreateOrder(uuid.New(), checkoutInput(uuid.NewString(), 1))
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateOrderSuppliedPricingTrusted(t *testing.T) {
	svc, db := newOrderService(t)
	product := createTestProduct(t, db, "Gold Bangle", 3000, 6)

	in := checkoutInput(product.ID.String(), 1)
	in.Pricing = &models.Pricing{Subtotal: 3000, Tax: 540, ShippingCost: 0, Discount: 540, Total: 3000}

	order, err := svc.CreateOrder(uuid.New(), in)
	require.NoError(t, err)
	assert.Equal(t, *in.Pricing, order.Pricing)
}

func TestCreateOrderUpdatesUserStats(t *testing.T) {
	svc, db := newOrderService(t)
	product := createTestProduct(t, db, "Emerald Studs", 2500, 8)

	user := models.User{Email: "arjun@example.com", FirstName: "Arjun"}
	require.NoError(t, db.Create(&user).Error)

	_, err := svc.CreateOrder(user.ID, checkoutInput(product.ID.String(), 1))
	require.NoError(t, err)

	var got models.User
	require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
	assert.Equal(t, 1, got.OrdersCount)
	assert.InDelta(t, 3150.0, got.TotalSpent, 1e-9)
}

func TestConfirmPayment(t *testing.T) {
	svc, db := newOrderService(t)
	product := createTestProduct(t, db, "Gold Chain", 4000, 3)

	order, err := svc.CreateOrder(uuid.New(), checkoutInput(product.ID.String(), 1))
	require.NoError(t, err)

	confirmed, err := svc.ConfirmPayment(order.ID, "txn-001", "upi")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, confirmed.Status)
	assert.Equal(t, models.PaymentStatusCompleted, confirmed.Payment.Status)
	assert.Equal(t, "txn-001", confirmed.Payment.TransactionID)
	require.NotNil(t, confirmed.Payment.PaidAt)

	// Second confirmation with a different transaction id is a conflict and
	// leaves the original payment record untouched.
	_, err = svc.ConfirmPayment(order.ID, "txn-002", "upi")
	assert.ErrorIs(t, err, ErrPaymentAlreadyCompleted)

	var got models.Order
	require.NoError(t, db.First(&got, "id = ?", order.ID).Error)
	assert.Equal(t, "txn-001", got.Payment.TransactionID)
	assert.Equal(t, models.OrderStatusConfirmed, got.Status)
}

func TestConfirmPaymentAppendsHistory(t *testing.T) {
	svc, db := newOrderService(t)
	product := createTestProduct(t, db, "Nose Pin", 600, 9)

	order, err := svc.CreateOrder(uuid.New(), checkoutInput(product.ID.String(), 1))
	require.NoError(t, err)

	var before int64
	require.NoError(t, db.Model(&models.OrderStatusEvent{}).Where("order_id = ?", order.ID).Count(&before).Error)
	assert.Zero(t, before, "creation itself must not write a history entry")

	_, err = svc.ConfirmPayment(order.ID, "txn-100", "")
	require.NoError(t, err)

	var events []models.OrderStatusEvent
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, models.OrderStatusConfirmed, events[0].Status)
	assert.Equal(t, "payment", events[0].UpdatedBy)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	svc, db := newOrderService(t)
	product := createTestProduct(t, db, "Silver Anklet", 900, 5)

	order, err := svc.CreateOrder(uuid.New(), checkoutInput(product.ID.String(), 3))
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(order.ID, "changed mind", "customer")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 5, got.StockQuantity, "cancel must credit back exactly what was debited")

	var events []models.OrderStatusEvent
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, models.OrderStatusCancelled, events[0].Status)
	assert.Equal(t, "changed mind", events[0].Note)
}

func TestCancelOrderGuard(t *testing.T) {
	for _, status := range []string{
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
		models.OrderStatusReturned,
	} {
		t.Run(status, func(t *testing.T) {
			svc, db := newOrderService(t)
			product := createTestProduct(t, db, "Toe Ring", 300, 7)

			order, err := svc.CreateOrder(uuid.New(), checkoutInput(product.ID.String(), 1))
			require.NoError(t, err)
			require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
				UpdateColumn("status", status).Error)

			_, err = svc.CancelOrder(order.ID, "too late", "customer")
			assert.ErrorIs(t, err, ErrOrderNotCancellable)
		})
	}
}

func TestUpdateStatusAppendsHistory(t *testing.T) {
	svc, db := newOrderService(t)
	product := createTestProduct(t, db, "Bridal Set", 95000, 2)

	order, err := svc.CreateOrder(uuid.New(), checkoutInput(product.ID.String(), 1))
	require.NoError(t, err)

	transitions := []string{
		models.OrderStatusConfirmed,
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
	}
	for _, status := range transitions {
		_, err := svc.UpdateStatus(order.ID, UpdateStatusInput{Status: status, UpdatedBy: "admin"})
		require.NoError(t, err)
	}

	var events []models.OrderStatusEvent
	require.NoError(t, db.Where("order_id = ?", order.ID).Order("occurred_at asc").Find(&events).Error)
	require.Len(t, events, len(transitions))
	for i, status := range transitions {
		assert.Equal(t, status, events[i].Status)
	}
}

func TestUpdateStatusShippedSetsTracking(t *testing.T) {
	svc, db := newOrderService(t)
	product := createTestProduct(t, db, "Kada", 15000, 4)

	order, err := svc.CreateOrder(uuid.New(), checkoutInput(product.ID.String(), 1))
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(order.ID, UpdateStatusInput{
		Status:    models.OrderStatusShipped,
		Note:      "left warehouse",
		UpdatedBy: "admin",
		Tracking: &models.Tracking{
			Carrier:        "BlueDart",
			TrackingNumber: "BD123456",
			TrackingURL:    "https://bluedart.example/BD123456",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "BlueDart", updated.Tracking.Carrier)
	require.NotNil(t, updated.EstimatedDelivery)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), *updated.EstimatedDelivery, time.Minute)

	var got models.Order
	require.NoError(t, db.First(&got, "id = ?", order.ID).Error)
	assert.Equal(t, "BD123456", got.Tracking.TrackingNumber)
	require.NotNil(t, got.EstimatedDelivery)
}

func TestUpdateStatusDeliveredStampsDelivery(t *testing.T) {
	svc, _ := newOrderService(t)
	svcProduct := createTestProduct(t, svc.db, "Mangalsutra", 22000, 3)

	order, err := svc.CreateOrder(uuid.New(), checkoutInput(svcProduct.ID.String(), 1))
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(order.ID, UpdateStatusInput{
		Status:    models.OrderStatusDelivered,
		UpdatedBy: "admin",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ActualDelivery)
	assert.WithinDuration(t, time.Now(), *updated.ActualDelivery, time.Minute)
}

func TestTrackOrder(t *testing.T) {
	svc, _ := newOrderService(t)
	product := createTestProduct(t, svc.db, "Jhumka", 1800, 6)

	order, err := svc.CreateOrder(uuid.New(), checkoutInput(product.ID.String(), 1))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(order.ID, UpdateStatusInput{Status: models.OrderStatusConfirmed, UpdatedBy: "admin"})
	require.NoError(t, err)

	byNumber, err := svc.TrackOrder(order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, byNumber.OrderNumber)
	assert.Equal(t, models.OrderStatusConfirmed, byNumber.Status)
	require.Len(t, byNumber.StatusHistory, 1)

	byID, err := svc.TrackOrder(order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, byNumber.OrderNumber, byID.OrderNumber)

	_, err = svc.TrackOrder("AUR0000000000000")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestDeleteOrderRemovesChildren(t *testing.T) {
	svc, db := newOrderService(t)
	product := createTestProduct(t, db, "Payal", 1200, 8)

	order, err := svc.CreateOrder(uuid.New(), checkoutInput(product.ID.String(), 1))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(order.ID, UpdateStatusInput{Status: models.OrderStatusConfirmed, UpdatedBy: "admin"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(order.ID))

	var orders, items, events int64
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).Count(&orders).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&items).Error)
	require.NoError(t, db.Model(&models.OrderStatusEvent{}).Where("order_id = ?", order.ID).Count(&events).Error)
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.Zero(t, events)

	assert.ErrorIs(t, svc.DeleteOrder(order.ID), ErrOrderNotFound)
}

func TestConfirmPaymentUnknownOrder(t *testing.T) {
	svc, _ := newOrderService(t)

	_, err := svc.ConfirmPayment(uuid.New(), "txn-404", "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
