package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/aurum/internal/models"
	"github.com/example/aurum/internal/services"
	"github.com/example/aurum/internal/utils"
)

// AdminOrderHandler manages the admin order console endpoints.
type AdminOrderHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

// NewAdminOrderHandler constructs AdminOrderHandler.
func NewAdminOrderHandler(db *gorm.DB, orders *services.OrderService) *AdminOrderHandler {
	return &AdminOrderHandler{db: db, orders: orders}
}

// ListOrders returns all orders, filterable by status and payment status.
func (h *AdminOrderHandler) ListOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if paymentStatus := c.Query("payment_status"); paymentStatus != "" {
		query = query.Where("payment_status = ?", paymentStatus)
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

// UpdateStatus applies a fulfillment status transition to an order.
func (h *AdminOrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req services.UpdateStatusInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.UpdatedBy == "" {
		req.UpdatedBy = "admin"
	}

	order, err := h.orders.UpdateStatus(id, req)
	if err != nil {
		return renderOrderError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// DeleteOrder removes an order outright, bypassing business invariants.
func (h *AdminOrderHandler) DeleteOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.orders.DeleteOrder(id); err != nil {
		return renderOrderError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}
