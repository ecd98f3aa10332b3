package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/shoppurs/pkg/apperr"
	"github.com/example/shoppurs/pkg/config"
	"github.com/example/shoppurs/pkg/models"
	"github.com/example/shoppurs/pkg/storage"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(price, qty, cgst, sgst, igst string) models.OrderLine {
	return models.OrderLine{
		ProductName: "Toor Dal",
		UnitLabel:   "1kg",
		HSNCode:     "0713",
		MRP:         dec("120"),
		UnitPrice:   dec(price),
		Quantity:    dec(qty),
		LineTotal:   dec(price).Mul(dec(qty)),
		CGSTRate:    dec(cgst),
		SGSTRate:    dec(sgst),
		IGSTRate:    dec(igst),
	}
}

func TestComputeTaxes(t *testing.T) {
	s := ComputeTaxes([]models.OrderLine{
		line("100", "2", "5", "5", "0"),
		line("85", "1.5", "2.5", "2.5", "0"),
		line("33.33", "1", "0", "0", "2.5"),
	})

	require.Len(t, s.Lines, 3)
	assert.Equal(t, "200.00", s.Lines[0].Taxable.StringFixed(2))
	assert.Equal(t, "220.00", s.Lines[0].Total.StringFixed(2))
	assert.Equal(t, "127.50", s.Lines[1].Taxable.StringFixed(2))
	assert.Equal(t, "3.19", s.Lines[1].CGST.StringFixed(2))
	assert.Equal(t, "0.83", s.Lines[2].IGST.StringFixed(2))

	cgst, sgst, igst, grand := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range s.Lines {
		cgst, sgst, igst = cgst.Add(l.CGST), sgst.Add(l.SGST), igst.Add(l.IGST)
		grand = grand.Add(l.Total)
	}
	assert.True(t, cgst.Equal(s.CGST))
	assert.True(t, sgst.Equal(s.SGST))
	assert.True(t, igst.Equal(s.IGST))
	assert.True(t, grand.Equal(s.GrandTotal))
	assert.True(t, s.Taxable.Add(s.CGST).Add(s.SGST).Add(s.IGST).Equal(s.GrandTotal))
}

func TestComputeTaxes_Empty(t *testing.T) {
	s := ComputeTaxes(nil)
	assert.Empty(t, s.Lines)
	assert.True(t, s.GrandTotal.IsZero())
}

func TestNumberAndPath(t *testing.T) {
	assert.Equal(t, "INV-00000042", Number(42))
	assert.Equal(t, "invoices/INV-00000042.pdf", Path(Number(42)))
}

func testOrder(n int) *models.Order {
	o := &models.Order{
		ID:            7,
		OrderNumber:   "20260101120000-ABCDEF123456",
		PaymentMethod: models.PaymentMethodCOD,
		CreatedAt:     time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Delivery: models.AddressSnapshot{
			Name: "Asha", Line: "12 MG Road", City: "Pune", State: "MH", Pincode: "411001", Phone: "9999999999",
		},
	}
	for i := 0; i < n; i++ {
		l := line("100", "1", "5", "5", "0")
		l.ProductName = fmt.Sprintf("Item %d with a rather long descriptive name", i)
		o.Lines = append(o.Lines, l)
	}
	return o
}

func TestGenerate_WritesPDF(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	g := NewGenerator(store, config.InvoiceConfig{
		IssuerName:    "Shoppurs Mart",
		IssuerAddress: "1 Market Yard, Pune",
		IssuerGSTIN:   "27ABCDE1234F1Z5",
		Footer:        "Thank you for shopping with us",
	}, zap.NewNop())

	// enough lines to spill onto a second page
	res, err := g.Generate(context.Background(), testOrder(60))
	require.NoError(t, err)
	assert.Equal(t, "INV-00000007", res.Number)
	assert.Equal(t, "invoices/INV-00000007.pdf", res.Path)
	assert.Equal(t, "6600.00", res.Summary.GrandTotal.StringFixed(2))

	data, err := store.Get(context.Background(), res.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	// regeneration overwrites in place
	again, err := g.Generate(context.Background(), testOrder(1))
	require.NoError(t, err)
	assert.Equal(t, res.Path, again.Path)
}

type failingStore struct{}

func (failingStore) Put(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("disk full")
}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, storage.ErrNotFound
}

func TestGenerate_Failures(t *testing.T) {
	g := NewGenerator(failingStore{}, config.InvoiceConfig{IssuerName: "X"}, zap.NewNop())

	_, err := g.Generate(context.Background(), testOrder(1))
	assert.Equal(t, apperr.KindInvoiceGenerationFailed, apperr.KindOf(err))
	assert.Equal(t, apperr.MsgInvoiceFailed, apperr.Message(err))

	_, err = g.Generate(context.Background(), &models.Order{})
	assert.Equal(t, apperr.KindInvoiceGenerationFailed, apperr.KindOf(err))
}

func TestTypeface_CoreFontMapsToCp1252(t *testing.T) {
	g := NewGenerator(failingStore{}, config.InvoiceConfig{}, zap.NewNop())
	tf := g.typeface(fpdf.New("P", "mm", "A4", ""))

	assert.Equal(t, "Helvetica", tf.family)
	assert.Equal(t, "Cr\xe8me Br\xfbl\xe9e \x80", tf.text("Crème Brûlée €"))
}

func TestGenerate_AccentedText(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	g := NewGenerator(store, config.InvoiceConfig{
		IssuerName:    "Épicerie Señor",
		IssuerAddress: "Straße 1, Zürich",
		Footer:        "Merci beaucoup",
	}, zap.NewNop())

	o := testOrder(2)
	o.Delivery.Name = "José Müller"
	o.Lines[0].ProductName = "Crème fraîche"

	res, err := g.Generate(context.Background(), o)
	require.NoError(t, err)
	data, err := store.Get(context.Background(), res.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestGenerate_MissingUTF8Font(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	g := NewGenerator(store, config.InvoiceConfig{
		IssuerName: "X",
		FontPath:   filepath.Join(t.TempDir(), "missing.ttf"),
	}, zap.NewNop())

	_, err = g.Generate(context.Background(), testOrder(1))
	assert.Equal(t, apperr.KindInvoiceGenerationFailed, apperr.KindOf(err))
}
