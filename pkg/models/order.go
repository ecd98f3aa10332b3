package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderNumber     string          `gorm:"type:varchar(40);not null;uniqueIndex" json:"order_number"`
	UserID          uint            `gorm:"not null;index;uniqueIndex:idx_orders_user_idempotency" json:"user_id"`
	IdempotencyKey  *string         `gorm:"type:varchar(64);uniqueIndex:idx_orders_user_idempotency" json:"-"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	TotalQuantity   decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"total_quantity"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Delivery        AddressSnapshot `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_address"`
	PaymentMethod   string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	Notes           string          `gorm:"type:varchar(500)" json:"notes"`
	PlacedBy        *uint           `json:"placed_by,omitempty"`
	ProofOfDelivery string          `gorm:"type:varchar(500)" json:"proof_of_delivery,omitempty"`
	InvoicePath     *string         `gorm:"type:varchar(500)" json:"invoice_path,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	Lines           []OrderLine     `gorm:"foreignKey:OrderID" json:"lines,omitempty"`
	Payment         *Payment        `gorm:"foreignKey:OrderID" json:"payment,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderLine is a denormalized snapshot of the product at commit time.
type OrderLine struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	OrderID            uint            `gorm:"not null;index" json:"order_id"`
	ProductID          uint            `gorm:"not null" json:"product_id"`
	UnitID             uint            `gorm:"not null" json:"unit_id"`
	UnitLabel          string          `gorm:"type:varchar(50)" json:"unit_label"`
	Quantity           decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantity"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	LineTotal          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	ProductName        string          `gorm:"type:varchar(200);not null" json:"product_name"`
	ProductDescription string          `gorm:"type:text" json:"product_description"`
	HSNCode            string          `gorm:"column:hsn_code;type:varchar(20)" json:"hsn_code"`
	MRP                decimal.Decimal `gorm:"column:mrp;type:decimal(12,2)" json:"mrp"`
	CGSTRate           decimal.Decimal `gorm:"column:cgst_rate;type:decimal(5,2)" json:"cgst_rate"`
	SGSTRate           decimal.Decimal `gorm:"column:sgst_rate;type:decimal(5,2)" json:"sgst_rate"`
	IGSTRate           decimal.Decimal `gorm:"column:igst_rate;type:decimal(5,2)" json:"igst_rate"`
	ImageURL           string          `gorm:"type:varchar(500)" json:"image_url"`
	CreatedAt          time.Time       `json:"created_at"`
}

func (OrderLine) TableName() string {
	return "order_lines"
}
