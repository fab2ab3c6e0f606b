package services

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/example/aurum/internal/models"
)

// ErrNotConfigured is returned by a channel whose credentials are absent.
// The dispatcher treats it as a structured skip, not a delivery failure.
var ErrNotConfigured = errors.New("channel not configured")

// EmailSender delivers order emails.
type EmailSender interface {
	SendOrderConfirmation(order *models.Order, invoicePath string) error
	SendAdminOrderAlert(order *models.Order) error
}

// WhatsAppSender delivers WhatsApp messages.
type WhatsAppSender interface {
	SendAdminOrderAlert(order *models.Order) error
	SendCustomerStatusUpdate(phone string, order *models.Order, newStatus string) error
}

// InvoiceGenerator renders an order invoice and returns its file path.
type InvoiceGenerator interface {
	GenerateInvoicePDF(order *models.Order) (string, error)
}

// NotificationService fans an order out to every configured channel. Each
// channel runs behind its own failure boundary: one channel failing never
// stops the others and never touches committed order state beyond the
// observability flags.
type NotificationService struct {
	db       *gorm.DB
	email    EmailSender
	whatsapp WhatsAppSender
	invoices InvoiceGenerator
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, email EmailSender, whatsapp WhatsAppSender, invoices InvoiceGenerator) *NotificationService {
	return &NotificationService{db: db, email: email, whatsapp: whatsapp, invoices: invoices}
}

// Dispatch attempts invoice generation, customer and admin email, and the
// admin WhatsApp summary for the order, records each outcome on the order's
// notification flags and returns them.
func (s *NotificationService) Dispatch(order *models.Order) models.NotificationFlags {
	var flags models.NotificationFlags

	invoicePath := ""
	if s.invoices != nil {
		path, err := s.invoices.GenerateInvoicePDF(order)
		switch {
		case errors.Is(err, ErrNotConfigured):
			log.Printf("[Notify] invoice generation not configured, skipping for order %s", order.OrderNumber)
		case err != nil:
			log.Printf("[Notify] invoice generation failed for order %s: %v", order.OrderNumber, err)
		default:
			invoicePath = path
			flags.InvoiceGenerated = true
		}
	}

	if s.email != nil {
		if err := s.email.SendOrderConfirmation(order, invoicePath); err != nil {
			logChannelError("customer email", order.OrderNumber, err)
		} else {
			flags.EmailSent = true
		}

		if err := s.email.SendAdminOrderAlert(order); err != nil {
			logChannelError("admin email", order.OrderNumber, err)
		}
	}

	if s.whatsapp != nil {
		if err := s.whatsapp.SendAdminOrderAlert(order); err != nil {
			logChannelError("admin whatsapp", order.OrderNumber, err)
		} else {
			flags.WhatsAppSent = true
		}
	}

	s.recordFlags(order.ID.String(), flags)
	return flags
}

// NotifyStatusChange sends the customer a WhatsApp update about a status
// transition, when a phone number is on file.
func (s *NotificationService) NotifyStatusChange(order *models.Order, newStatus string) {
	if s.whatsapp == nil || order.CustomerInfo.Phone == "" {
		return
	}
	if err := s.whatsapp.SendCustomerStatusUpdate(order.CustomerInfo.Phone, order, newStatus); err != nil {
		logChannelError("customer whatsapp", order.OrderNumber, err)
	}
}

func (s *NotificationService) recordFlags(orderID string, flags models.NotificationFlags) {
	updates := map[string]any{
		"notif_email_sent":        flags.EmailSent,
		"notif_whats_app_sent":    flags.WhatsAppSent,
		"notif_invoice_generated": flags.InvoiceGenerated,
	}
	if err := s.db.Model(&models.Order{}).Where("id = ?", orderID).Updates(updates).Error; err != nil {
		log.Printf("[Notify] failed to record notification flags for order %s: %v", orderID, err)
	}
}

func logChannelError(channel, orderNumber string, err error) {
	if errors.Is(err, ErrNotConfigured) {
		log.Printf("[Notify] %s not configured, skipping for order %s", channel, orderNumber)
		return
	}
	log.Printf("[Notify] %s delivery failed for order %s: %v", channel, orderNumber, err)
}
