// Package messaging publishes order domain events.
package messaging

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicOrderPlaced        = "orders.placed"
	TopicOrderStatusChanged = "orders.status"
)

// Publisher sends an event to a topic, keyed for partitioning.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
	Close() error
}

type OrderPlaced struct {
	OrderID       uint            `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        uint            `json:"user_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	PlacedAt      time.Time       `json:"placed_at"`
}

type OrderStatusChanged struct {
	OrderID     uint      `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	InvoicePath string    `json:"invoice_path,omitempty"`
	ChangedAt   time.Time `json:"changed_at"`
}

type nop struct{}

// Nop drops every event. Used when no brokers are configured.
func Nop() Publisher { return nop{} }

func (nop) PublishEvent(context.Context, string, string, any) error { return nil }

func (nop) Close() error { return nil }
