package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/aurum/internal/middleware"
	"github.com/example/aurum/internal/models"
	"github.com/example/aurum/internal/services"
	"github.com/example/aurum/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, orders *services.OrderService) *OrderHandler {
	return &OrderHandler{db: db, orders: orders}
}

// CreateOrder places an order for the authenticated user.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req services.CreateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.CreateOrder(userID, req)
	if err != nil {
		return renderOrderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"placed_at":    order.PlacedAt,
			"pricing":      order.Pricing,
			"payment": fiber.Map{
				"method":   order.Payment.Method,
				"status":   order.Payment.Status,
				"qr_image": order.Payment.QRImage,
			},
		},
	})
}

// ListOrders returns orders for the authenticated user.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Where("user_id = ?", userID).Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns a single order for the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").Preload("StatusHistory").
		First(&order, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type confirmPaymentRequest struct {
	TransactionID string `json:"transaction_id"`
	Method        string `json:"method"`
}

// ConfirmPayment marks the user's order as paid.
func (h *OrderHandler) ConfirmPayment(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := h.ownedOrderID(c, userID)
	if err != nil {
		return err
	}

	var req confirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.TransactionID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "transaction_id is required")
	}

	order, err := h.orders.ConfirmPayment(id, req.TransactionID, req.Method)
	if err != nil {
		return renderOrderError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder cancels the user's order while it is still cancellable.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := h.ownedOrderID(c, userID)
	if err != nil {
		return err
	}

	var req cancelOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.CancelOrder(id, req.Reason, "customer")
	if err != nil {
		return renderOrderError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// TrackOrder is the public tracking endpoint, addressed by order number or id.
func (h *OrderHandler) TrackOrder(c *fiber.Ctx) error {
	view, err := h.orders.TrackOrder(c.Params("orderNumber"))
	if err != nil {
		return renderOrderError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": view})
}

// ownedOrderID parses the id param and verifies the order belongs to userID.
func (h *OrderHandler) ownedOrderID(c *fiber.Ctx, userID uuid.UUID) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var count int64
	if err := h.db.Model(&models.Order{}).
		Where("id = ? AND user_id = ?", id, userID).
		Count(&count).Error; err != nil {
		return uuid.Nil, err
	}
	if count == 0 {
		return uuid.Nil, fiber.NewError(fiber.StatusNotFound, "order not found")
	}

	return id, nil
}

// renderOrderError maps service errors onto HTTP responses.
func renderOrderError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "validation failed",
			"fields":  verr.Fields,
		})
	}

	var stockErr *services.InsufficientStockError
	if errors.As(err, &stockErr) {
		return fiber.NewError(fiber.StatusConflict, stockErr.Error())
	}

	switch {
	case errors.Is(err, services.ErrOrderNotFound), errors.Is(err, services.ErrProductNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPaymentAlreadyCompleted), errors.Is(err, services.ErrOrderNotCancellable):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return err
}
