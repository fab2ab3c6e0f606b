package services

import (
	"encoding/base64"
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/example/aurum/internal/config"
	"github.com/example/aurum/internal/models"
)

// UPIQRService renders a payment QR for UPI-class payment methods.
type UPIQRService struct {
	virtualAddress string
	payeeName      string
}

// NewUPIQRService constructs a UPIQRService from config.
func NewUPIQRService(cfg *config.Config) *UPIQRService {
	return &UPIQRService{
		virtualAddress: cfg.UPIVirtualAddress,
		payeeName:      cfg.UPIPayeeName,
	}
}

// PaymentQR bundles the rendered QR image with the underlying payment URI.
type PaymentQR struct {
	QRImage    string `json:"qr_image"`
	PaymentURI string `json:"payment_uri"`
}

// GeneratePaymentQR builds the UPI deep link for the order total and encodes
// it as a base64 PNG data URI.
func (s *UPIQRService) GeneratePaymentQR(order *models.Order) (*PaymentQR, error) {
	if s.virtualAddress == "" {
		return nil, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("pa", s.virtualAddress)
	params.Set("pn", s.payeeName)
	params.Set("am", fmt.Sprintf("%.2f", order.Pricing.Total))
	params.Set("cu", "INR")
	params.Set("tn", "Order "+order.OrderNumber)
	uri := "upi://pay?" + params.Encode()

	png, err := qrcode.Encode(uri, qrcode.Medium, 256)
	if err != nil {
		return nil, err
	}

	return &PaymentQR{
		QRImage:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		PaymentURI: uri,
	}, nil
}
