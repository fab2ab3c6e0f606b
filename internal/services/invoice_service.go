package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"github.com/example/aurum/internal/models"
)

// PDFInvoiceService writes order invoices as PDF files into a directory.
type PDFInvoiceService struct {
	dir string
}

// NewPDFInvoiceService constructs a PDFInvoiceService writing into dir.
func NewPDFInvoiceService(dir string) *PDFInvoiceService {
	return &PDFInvoiceService{dir: dir}
}

// GenerateInvoicePDF renders the invoice and returns its file path.
func (s *PDFInvoiceService) GenerateInvoicePDF(order *models.Order) (string, error) {
	if s.dir == "" {
		return "", ErrNotConfigured
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice %s", order.OrderNumber), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Aurum Jewels")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Tax Invoice  %s", order.OrderNumber))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Date: %s", order.PlacedAt.Format("02 Jan 2006")))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, "Billed to")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 5, order.CustomerInfo.Name)
	pdf.Ln(5)
	pdf.Cell(0, 5, order.CustomerInfo.Email)
	pdf.Ln(5)
	pdf.Cell(0, 5, fmt.Sprintf("%s, %s %s", order.ShippingAddress.Line,
		order.ShippingAddress.City, order.ShippingAddress.PostalCode))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(90, 7, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 7, "Unit Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range order.Items {
		name := item.Snapshot.Name
		if item.Variant != "" {
			name = fmt.Sprintf("%s (%s)", name, item.Variant)
		}
		pdf.CellFormat(90, 7, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", item.UnitPrice*float64(item.Quantity)), "1", 1, "R", false, 0, "")
	}

	totals := []struct {
		label string
		value float64
	}{
		{"Subtotal", order.Pricing.Subtotal},
		{"Tax", order.Pricing.Tax},
		{"Shipping", order.Pricing.ShippingCost},
		{"Discount", order.Pricing.Discount},
		{"Total", order.Pricing.Total},
	}
	for i, row := range totals {
		if i == len(totals)-1 {
			pdf.SetFont("Helvetica", "B", 10)
		}
		pdf.CellFormat(110, 7, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, row.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", row.value), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 5, "Thank you for shopping with Aurum Jewels.")

	path := filepath.Join(s.dir, fmt.Sprintf("invoice-%s.pdf", order.OrderNumber))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", err
	}

	return path, nil
}
