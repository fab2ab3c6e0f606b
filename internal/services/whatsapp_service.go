package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/example/aurum/internal/config"
	"github.com/example/aurum/internal/models"
)

// CloudWhatsAppService sends messages through the WhatsApp Cloud API.
type CloudWhatsAppService struct {
	token      string
	phoneID    string
	adminPhone string
	client     *http.Client
}

// NewCloudWhatsAppService constructs a CloudWhatsAppService from config.
func NewCloudWhatsAppService(cfg *config.Config) *CloudWhatsAppService {
	return &CloudWhatsAppService{
		token:      cfg.WhatsAppToken,
		phoneID:    cfg.WhatsAppPhoneID,
		adminPhone: cfg.WhatsAppAdminPhone,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

type whatsAppTextMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (s *CloudWhatsAppService) sendText(to, body string) error {
	if s.token == "" || s.phoneID == "" {
		return ErrNotConfigured
	}

	url := fmt.Sprintf("https://graph.facebook.com/v19.0/%s/messages", s.phoneID)

	msg := whatsAppTextMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
	}
	msg.Text.Body = body

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[WhatsApp] failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[WhatsApp] unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("whatsapp returned status %d", resp.StatusCode)
	}

	return nil
}

// SendAdminOrderAlert sends the new-order summary to the admin phone.
func (s *CloudWhatsAppService) SendAdminOrderAlert(order *models.Order) error {
	if s.adminPhone == "" {
		return ErrNotConfigured
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		itemTotal := item.UnitPrice * float64(item.Quantity)
		fmt.Fprintf(&itemsList, "%d. %s\n   %d x %s = %s\n",
			i+1,
			item.Snapshot.Name,
			item.Quantity,
			FormatAmount(item.UnitPrice),
			FormatAmount(itemTotal),
		)
	}

	message := fmt.Sprintf(`🛒 NEW ORDER!
📋 Order: %s
👤 Customer: %s
📞 Phone: %s
📦 Items:
%s💰 Total: %s
💳 Payment: %s
📍 Status: %s`,
		order.OrderNumber,
		order.CustomerInfo.Name,
		order.CustomerInfo.Phone,
		itemsList.String(),
		FormatAmount(order.Pricing.Total),
		order.Payment.Method,
		order.Status,
	)

	return s.sendText(s.adminPhone, strings.TrimSpace(message))
}

// SendCustomerStatusUpdate tells the customer their order moved to newStatus.
func (s *CloudWhatsAppService) SendCustomerStatusUpdate(phone string, order *models.Order, newStatus string) error {
	if phone == "" {
		return ErrNotConfigured
	}

	message := fmt.Sprintf("Hi %s, your Aurum Jewels order %s is now %s.",
		order.CustomerInfo.Name, order.OrderNumber, newStatus)

	if newStatus == models.OrderStatusShipped && order.Tracking.TrackingNumber != "" {
		message += fmt.Sprintf(" Track it with %s via %s.",
			order.Tracking.TrackingNumber, order.Tracking.Carrier)
	}

	return s.sendText(phone, message)
}
