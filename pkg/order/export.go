package order

import (
	"bytes"
	"context"
	"fmt"

	"github.com/tealeg/xlsx"

	"github.com/example/shoppurs/pkg/models"
)

const maxExportRows = 10000

var exportHeaders = []string{
	"Order No", "Placed At", "Customer ID", "Status", "Payment Method", "Payment Status",
	"Quantity", "Total", "City", "Pincode", "Delivered At", "Invoice",
}

// ExportOrders renders the orders matching f (ignoring paging) as an xlsx
// workbook.
func (s *Service) ExportOrders(ctx context.Context, f Filter) ([]byte, error) {
	var orders []models.Order
	err := f.apply(s.db.WithContext(ctx).Model(&models.Order{})).
		Preload("Payment").
		Order("created_at DESC, id DESC").
		Limit(maxExportRows).
		Find(&orders).Error
	if err != nil {
		return nil, s.fail("Failed to load orders for export", err)
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, s.fail("Failed to create export sheet", fmt.Errorf("add sheet: %w", err))
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetString(h)
	}

	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetString(o.OrderNumber)
		row.AddCell().SetString(o.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetInt(int(o.UserID))
		row.AddCell().SetString(string(o.Status))
		row.AddCell().SetString(o.PaymentMethod)
		paymentStatus := ""
		if o.Payment != nil {
			paymentStatus = string(o.Payment.Status)
		}
		row.AddCell().SetString(paymentStatus)
		row.AddCell().SetString(o.TotalQuantity.String())
		row.AddCell().SetString(o.TotalAmount.StringFixed(2))
		row.AddCell().SetString(o.Delivery.City)
		row.AddCell().SetString(o.Delivery.Pincode)
		deliveredAt := ""
		if o.DeliveredAt != nil {
			deliveredAt = o.DeliveredAt.Format("2006-01-02 15:04:05")
		}
		row.AddCell().SetString(deliveredAt)
		invoicePath := ""
		if o.InvoicePath != nil {
			invoicePath = *o.InvoicePath
		}
		row.AddCell().SetString(invoicePath)
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, s.fail("Failed to write export", fmt.Errorf("write xlsx: %w", err))
	}
	return buf.Bytes(), nil
}
