package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/aurum/internal/models"
	"github.com/example/aurum/internal/utils"
)

// ProductHandler manages product CRUD.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// ListProducts returns paginated products with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Product{}).Where("is_active = ?", true)

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	if metal := c.Query("metal"); metal != "" {
		query = query.Where("metal = ?", metal)
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("name ILIKE ? OR short_description ILIKE ?", q, q)
	}

	if minPrice := c.Query("min_price"); minPrice != "" {
		if val, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price >= ?", val)
		}
	}

	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if val, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price <= ?", val)
		}
	}

	if stockStatus := c.Query("stock_status"); stockStatus != "" {
		query = query.Where("stock_status = ?", stockStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetProduct loads a single product.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

type productRequest struct {
	Slug              string  `json:"slug"`
	SKU               string  `json:"sku"`
	Name              string  `json:"name"`
	ShortDescription  string  `json:"short_description"`
	LongDescription   string  `json:"long_description"`
	Category          string  `json:"category"`
	Metal             string  `json:"metal"`
	Purity            string  `json:"purity"`
	Gemstone          string  `json:"gemstone"`
	WeightGrams       float64 `json:"weight_grams"`
	Price             float64 `json:"price"`
	Image             string  `json:"image"`
	Specifications    string  `json:"specifications"`
	StockQuantity     int     `json:"stock_quantity"`
	LowStockThreshold int     `json:"low_stock_threshold"`
	IsActive          *bool   `json:"is_active"`
}

// CreateProduct adds a product to the catalog (admin only).
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" || req.SKU == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name and sku are required")
	}

	product := models.Product{
		Slug:              req.Slug,
		SKU:               req.SKU,
		Name:              req.Name,
		ShortDescription:  req.ShortDescription,
		LongDescription:   req.LongDescription,
		Category:          req.Category,
		Metal:             req.Metal,
		Purity:            req.Purity,
		Gemstone:          req.Gemstone,
		WeightGrams:       req.WeightGrams,
		Price:             req.Price,
		Image:             req.Image,
		Specifications:    req.Specifications,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
		IsActive:          true,
	}
	if product.LowStockThreshold <= 0 {
		product.LowStockThreshold = models.DefaultLowStockThreshold
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.db.Create(&product).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct modifies an existing product (admin only).
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Slug != "" {
		product.Slug = req.Slug
	}
	if req.SKU != "" {
		product.SKU = req.SKU
	}
	if req.Name != "" {
		product.Name = req.Name
	}
	product.ShortDescription = req.ShortDescription
	product.LongDescription = req.LongDescription
	if req.Category != "" {
		product.Category = req.Category
	}
	product.Metal = req.Metal
	product.Purity = req.Purity
	product.Gemstone = req.Gemstone
	product.WeightGrams = req.WeightGrams
	if req.Price > 0 {
		product.Price = req.Price
	}
	if req.Image != "" {
		product.Image = req.Image
	}
	if req.Specifications != "" {
		product.Specifications = req.Specifications
	}
	product.StockQuantity = req.StockQuantity
	if req.LowStockThreshold > 0 {
		product.LowStockThreshold = req.LowStockThreshold
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.db.Save(&product).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct removes a product from the catalog (admin only).
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	res := h.db.Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}

	return c.JSON(fiber.Map{"success": true})
}
