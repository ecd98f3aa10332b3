// Package invoice renders tax invoices for delivered orders.
package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/example/shoppurs/pkg/apperr"
	"github.com/example/shoppurs/pkg/config"
	"github.com/example/shoppurs/pkg/models"
	"github.com/example/shoppurs/pkg/storage"
)

const contentType = "application/pdf"

type Result struct {
	Number      string
	Path        string
	Summary     Summary
	GeneratedAt time.Time
}

type Generator struct {
	store  storage.Store
	issuer config.InvoiceConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewGenerator(store storage.Store, issuer config.InvoiceConfig, logger *zap.Logger) *Generator {
	return &Generator{
		store:  store,
		issuer: issuer,
		logger: logger.Named("invoice"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Generate renders the invoice of order (with Lines loaded) and writes it to
// storage, overwriting any earlier rendering.
func (g *Generator) Generate(ctx context.Context, order *models.Order) (*Result, error) {
	if order == nil || order.ID == 0 {
		return nil, apperr.Wrap(apperr.KindInvoiceGenerationFailed, apperr.MsgInvoiceFailed, errors.New("order not persisted"))
	}

	res := &Result{
		Number:      Number(order.ID),
		Summary:     ComputeTaxes(order.Lines),
		GeneratedAt: g.now(),
	}

	data, err := g.render(order, res)
	if err != nil {
		g.logger.Error("Failed to render invoice", zap.Uint("order_id", order.ID), zap.Error(err))
		return nil, apperr.Wrap(apperr.KindInvoiceGenerationFailed, apperr.MsgInvoiceFailed, err)
	}

	path, err := g.store.Put(ctx, Path(res.Number), data, contentType)
	if err != nil {
		g.logger.Error("Failed to store invoice", zap.Uint("order_id", order.ID), zap.Error(err))
		return nil, apperr.Wrap(apperr.KindInvoiceGenerationFailed, apperr.MsgInvoiceFailed, err)
	}
	res.Path = path

	g.logger.Info("Invoice generated",
		zap.Uint("order_id", order.ID),
		zap.String("invoice_number", res.Number),
		zap.Int("bytes", len(data)))
	return res, nil
}

var columns = []struct {
	title string
	width float64
	align string
}{
	{"Item", 50, "L"},
	{"HSN", 18, "C"},
	{"MRP", 18, "R"},
	{"Price", 18, "R"},
	{"CGST%", 14, "R"},
	{"SGST%", 14, "R"},
	{"IGST%", 14, "R"},
	{"Qty", 16, "R"},
	{"Total", 28, "R"},
}

// typeface is the font family used for the document and the conversion its
// strings need before they reach fpdf.
type typeface struct {
	family string
	text   func(string) string
}

func (g *Generator) typeface(pdf *fpdf.Fpdf) typeface {
	if g.issuer.FontPath == "" {
		return typeface{family: "Helvetica", text: pdf.UnicodeTranslatorFromDescriptor("")}
	}
	bold := g.issuer.FontBoldPath
	if bold == "" {
		bold = g.issuer.FontPath
	}
	pdf.AddUTF8Font("invoice", "", g.issuer.FontPath)
	pdf.AddUTF8Font("invoice", "I", g.issuer.FontPath)
	pdf.AddUTF8Font("invoice", "B", bold)
	return typeface{family: "invoice", text: func(s string) string { return s }}
}

func (g *Generator) render(order *models.Order, res *Result) ([]byte, error) {
	qr, err := qrcode.Encode(res.Number, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tf := g.typeface(pdf)
	txt := tf.text
	pdf.SetTitle(res.Number, true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 25)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetFont(tf.family, "I", 8)
		pdf.CellFormat(0, 5, txt(g.issuer.Footer), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont(tf.family, "B", 16)
	pdf.CellFormat(150, 8, txt(g.issuer.IssuerName), "", 1, "L", false, 0, "")
	pdf.SetFont(tf.family, "", 9)
	pdf.MultiCell(150, 4.5, txt(g.issuer.IssuerAddress), "", "L", false)
	if g.issuer.IssuerGSTIN != "" {
		pdf.CellFormat(150, 4.5, txt("GSTIN: "+g.issuer.IssuerGSTIN), "", 1, "L", false, 0, "")
	}
	if g.issuer.IssuerPhone != "" {
		pdf.CellFormat(150, 4.5, txt("Phone: "+g.issuer.IssuerPhone), "", 1, "L", false, 0, "")
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 168, 10, 32, 32, false, opts, 0, "")

	pdf.SetY(45)
	pdf.SetFont(tf.family, "B", 13)
	pdf.CellFormat(0, 8, "TAX INVOICE", "B", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(tf.family, "", 9)
	meta := [][2]string{
		{"Invoice No", res.Number},
		{"Order No", order.OrderNumber},
		{"Order Date", order.CreatedAt.Format("02 Jan 2006 15:04")},
		{"Invoice Date", res.GeneratedAt.Format("02 Jan 2006 15:04")},
		{"Payment", order.PaymentMethod},
	}
	for _, kv := range meta {
		pdf.CellFormat(30, 5, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, txt(kv[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	d := order.Delivery
	pdf.SetFont(tf.family, "B", 10)
	pdf.CellFormat(0, 6, "Bill To", "", 1, "L", false, 0, "")
	pdf.SetFont(tf.family, "", 9)
	for _, s := range []string{
		d.Name,
		d.Line,
		joinNonEmpty(", ", d.Landmark, d.City, d.State, d.Pincode),
		d.Country,
		d.Phone,
	} {
		if s != "" {
			pdf.CellFormat(0, 4.5, txt(s), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(4)

	tableHeader(pdf, tf.family)
	pdf.SetFont(tf.family, "", 8)
	_, pageH := pdf.GetPageSize()
	for i, l := range order.Lines {
		if pdf.GetY()+6 > pageH-30 {
			pdf.AddPage()
			tableHeader(pdf, tf.family)
			pdf.SetFont(tf.family, "", 8)
		}
		cells := []string{
			txt(truncate(l.ProductName+" "+l.UnitLabel, 32)),
			txt(l.HSNCode),
			l.MRP.StringFixed(2),
			l.UnitPrice.StringFixed(2),
			l.CGSTRate.StringFixed(2),
			l.SGSTRate.StringFixed(2),
			l.IGSTRate.StringFixed(2),
			l.Quantity.String(),
			res.Summary.Lines[i].Total.StringFixed(2),
		}
		for j, c := range columns {
			pdf.CellFormat(c.width, 6, cells[j], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(3)

	totals := [][2]string{
		{"Taxable Value", res.Summary.Taxable.StringFixed(2)},
		{"CGST", res.Summary.CGST.StringFixed(2)},
		{"SGST", res.Summary.SGST.StringFixed(2)},
		{"IGST", res.Summary.IGST.StringFixed(2)},
	}
	pdf.SetFont(tf.family, "", 9)
	for _, kv := range totals {
		pdf.CellFormat(150, 5, kv[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 5, kv[1], "", 1, "R", false, 0, "")
	}
	pdf.SetFont(tf.family, "B", 10)
	pdf.CellFormat(150, 7, "Grand Total (Rs.)", "T", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, res.Summary.GrandTotal.StringFixed(2), "T", 1, "R", false, 0, "")

	pdf.Ln(12)
	pdf.SetFont(tf.family, "", 9)
	pdf.CellFormat(0, 5, txt("For "+g.issuer.IssuerName), "", 1, "R", false, 0, "")
	pdf.Ln(10)
	pdf.CellFormat(0, 5, "Authorised Signatory", "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func tableHeader(pdf *fpdf.Fpdf, family string) {
	pdf.SetFont(family, "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range columns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-2]) + ".."
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
