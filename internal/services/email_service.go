package services

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/example/aurum/internal/config"
	"github.com/example/aurum/internal/models"
)

// SMTPEmailService sends order emails over SMTP.
type SMTPEmailService struct {
	host       string
	port       int
	user       string
	password   string
	from       string
	adminEmail string
}

// NewSMTPEmailService constructs an SMTPEmailService from config.
func NewSMTPEmailService(cfg *config.Config) *SMTPEmailService {
	return &SMTPEmailService{
		host:       cfg.SMTPHost,
		port:       cfg.SMTPPort,
		user:       cfg.SMTPUser,
		password:   cfg.SMTPPassword,
		from:       cfg.SMTPFrom,
		adminEmail: cfg.AdminEmail,
	}
}

func (s *SMTPEmailService) configured() bool {
	return s.host != "" && s.from != ""
}

// SendOrderConfirmation emails the customer their order summary, attaching
// the invoice PDF when one was generated.
func (s *SMTPEmailService) SendOrderConfirmation(order *models.Order, invoicePath string) error {
	if !s.configured() {
		return ErrNotConfigured
	}
	if order.CustomerInfo.Email == "" {
		return fmt.Errorf("order %s has no customer email", order.OrderNumber)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", order.CustomerInfo.Email)
	m.SetHeader("Subject", fmt.Sprintf("Order %s confirmed — Aurum Jewels", order.OrderNumber))
	m.SetBody("text/html", customerOrderBody(order))

	if invoicePath != "" {
		if _, err := os.Stat(invoicePath); err == nil {
			m.Attach(invoicePath)
		}
	}

	return s.send(m)
}

// SendAdminOrderAlert emails the store admin about a new order.
func (s *SMTPEmailService) SendAdminOrderAlert(order *models.Order) error {
	if !s.configured() || s.adminEmail == "" {
		return ErrNotConfigured
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.adminEmail)
	m.SetHeader("Subject", fmt.Sprintf("New order %s (%s)", order.OrderNumber, FormatAmount(order.Pricing.Total)))
	m.SetBody("text/html", adminOrderBody(order))

	return s.send(m)
}

func (s *SMTPEmailService) send(m *gomail.Message) error {
	d := gomail.NewDialer(s.host, s.port, s.user, s.password)
	return d.DialAndSend(m)
}

func customerOrderBody(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Thank you for your order, %s!</h2>", order.CustomerInfo.Name)
	fmt.Fprintf(&b, "<p>Order <b>%s</b> placed on %s.</p>", order.OrderNumber, order.PlacedAt.Format("02 Jan 2006"))
	b.WriteString("<table border=\"0\" cellpadding=\"4\"><tr><th align=\"left\">Item</th><th>Qty</th><th>Price</th></tr>")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td align=\"center\">%d</td><td align=\"right\">%s</td></tr>",
			item.Snapshot.Name, item.Quantity, FormatAmount(item.UnitPrice*float64(item.Quantity)))
	}
	b.WriteString("</table>")
	fmt.Fprintf(&b, "<p>Subtotal: %s<br>Tax: %s<br>Shipping: %s<br>Discount: %s<br><b>Total: %s</b></p>",
		FormatAmount(order.Pricing.Subtotal),
		FormatAmount(order.Pricing.Tax),
		FormatAmount(order.Pricing.ShippingCost),
		FormatAmount(order.Pricing.Discount),
		FormatAmount(order.Pricing.Total))
	fmt.Fprintf(&b, "<p>Track your order anytime with number <b>%s</b>.</p>", order.OrderNumber)
	return b.String()
}

func adminOrderBody(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h3>New order %s</h3>", order.OrderNumber)
	fmt.Fprintf(&b, "<p>Customer: %s (%s, %s)</p>",
		order.CustomerInfo.Name, order.CustomerInfo.Email, order.CustomerInfo.Phone)
	fmt.Fprintf(&b, "<p>Payment: %s (%s)</p>", order.Payment.Method, order.Payment.Status)
	b.WriteString("<ul>")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "<li>%s × %d — %s</li>", item.Snapshot.Name, item.Quantity,
			FormatAmount(item.UnitPrice*float64(item.Quantity)))
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p><b>Total: %s</b></p>", FormatAmount(order.Pricing.Total))
	fmt.Fprintf(&b, "<p>Ship to: %s, %s %s, %s</p>",
		order.ShippingAddress.Line, order.ShippingAddress.City,
		order.ShippingAddress.PostalCode, order.ShippingAddress.Country)
	return b.String()
}

// FormatAmount formats a rupee amount with thousand separators.
func FormatAmount(amount float64) string {
	intAmount := int64(amount)
	str := fmt.Sprintf("%d", intAmount)

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return "₹" + result.String()
}
