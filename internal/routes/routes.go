package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/aurum/internal/config"
	"github.com/example/aurum/internal/handlers"
	"github.com/example/aurum/internal/middleware"
	"github.com/example/aurum/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	emailService := services.NewSMTPEmailService(cfg)
	whatsappService := services.NewCloudWhatsAppService(cfg)
	invoiceService := services.NewPDFInvoiceService(cfg.InvoiceDir)
	notifier := services.NewNotificationService(db, emailService, whatsappService, invoiceService)

	qrService := services.NewUPIQRService(cfg)
	orderService := services.NewOrderService(db, notifier, qrService, services.PricingConfig{
		TaxRate:               cfg.TaxRate,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		FlatShippingFee:       cfg.FlatShippingFee,
	})

	authHandler := handlers.NewAuthHandler(db, cfg)
	productHandler := handlers.NewProductHandler(db)
	orderHandler := handlers.NewOrderHandler(db, orderService)
	adminOrderHandler := handlers.NewAdminOrderHandler(db, orderService)
	profileHandler := handlers.NewProfileHandler(db)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Public catalog
	products := api.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/:id", productHandler.GetProduct)

	// Public order tracking, registered before the protected :id routes.
	api.Get("/orders/track/:orderNumber", orderHandler.TrackOrder)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Post("/orders/:id/confirm-payment", orderHandler.ConfirmPayment)
	protected.Post("/orders/:id/cancel", orderHandler.CancelOrder)

	protected.Get("/profile", profileHandler.GetProfile)

	// Admin console
	admin := api.Group("/admin", middleware.AuthMiddleware(cfg), middleware.RequireAdmin())
	admin.Get("/orders", adminOrderHandler.ListOrders)
	admin.Put("/orders/:id/status", adminOrderHandler.UpdateStatus)
	admin.Delete("/orders/:id", adminOrderHandler.DeleteOrder)

	admin.Post("/products", productHandler.CreateProduct)
	admin.Put("/products/:id", productHandler.UpdateProduct)
	admin.Delete("/products/:id", productHandler.DeleteProduct)
}
