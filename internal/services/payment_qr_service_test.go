package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/aurum/internal/config"
	"github.com/example/aurum/internal/models"
)

func TestGeneratePaymentQR(t *testing.T) {
	svc := NewUPIQRService(&config.Config{
		UPIVirtualAddress: "aurum@okbank",
		UPIPayeeName:      "Aurum Jewels",
	})

	order := &models.Order{
		OrderNumber: "AUR1234567890001",
		Pricing:     models.Pricing{Total: 3740},
	}

	qr, err := svc.GeneratePaymentQR(order)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(qr.QRImage, "data:image/png;base64,"))
	assert.True(t, strings.HasPrefix(qr.PaymentURI, "upi://pay?"))
	assert.Contains(t, qr.PaymentURI, "am=3740.00")
	assert.Contains(t, qr.PaymentURI, "pa=aurum%40okbank")
	assert.Contains(t, qr.PaymentURI, "AUR1234567890001")
}

func TestGeneratePaymentQRNotConfigured(t *testing.T) {
	svc := NewUPIQRService(&config.Config{})

	_, err := svc.GeneratePaymentQR(&models.Order{OrderNumber: "AUR1"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
