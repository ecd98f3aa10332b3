package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/shoppurs/pkg/audit"
	"github.com/example/shoppurs/pkg/config"
	"github.com/example/shoppurs/pkg/database/dbtest"
	"github.com/example/shoppurs/pkg/invoice"
	"github.com/example/shoppurs/pkg/models"
	"github.com/example/shoppurs/pkg/storage"
)

type published struct {
	topic string
	key   string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, key: key, event: event})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *recordingAuditor) Record(e audit.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *recordingAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type failingInvoicer struct{}

func (failingInvoicer) Generate(context.Context, *models.Order) (*invoice.Result, error) {
	return nil, errors.New("renderer crashed")
}

type fixture struct {
	db        *gorm.DB
	svc       *Service
	store     *storage.LocalStore
	publisher *recordingPublisher
	auditor   *recordingAuditor
	user      models.User
	addr      models.Address
	rice      models.Product
	dal       models.Product
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		db:        db,
		store:     store,
		publisher: &recordingPublisher{},
		auditor:   &recordingAuditor{},
	}
	gen := invoice.NewGenerator(store, config.InvoiceConfig{IssuerName: "Shoppurs Mart", Footer: "Thank you"}, zap.NewNop())
	opts = append([]Option{WithPublisher(f.publisher), WithAuditor(f.auditor)}, opts...)
	f.svc = NewService(db, gen, zap.NewNop(), opts...)

	f.user = dbtest.User(t, db, "asha")
	f.addr = dbtest.Address(t, db, f.user.ID, "12 MG Road", true)
	f.rice = dbtest.Product(t, db, "Rice", "", dbtest.UnitSpec{Label: "1kg", Step: "1", Rate: "100"})
	f.dal = dbtest.Product(t, db, "Dal", "", dbtest.UnitSpec{Label: "500g", Step: "0.5", Rate: "85"})
	return f
}

func (f *fixture) addToCart(t *testing.T, userID uint, p models.Product, qty string) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.CartLine{
		UserID:    userID,
		ProductID: p.ID,
		UnitID:    p.Units[0].ID,
		Quantity:  decimal.RequireFromString(qty),
	}).Error)
}

func (f *fixture) cartSize(t *testing.T, userID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.CartLine{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	return n
}

func (f *fixture) place(t *testing.T, method string) *Receipt {
	t.Helper()
	r, err := f.svc.PlaceOrder(context.Background(), f.user.ID, PlaceRequest{PaymentMethod: method}, "")
	require.NoError(t, err)
	return r
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
