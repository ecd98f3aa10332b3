package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusCOD     PaymentStatus = "cod"
	PaymentStatusDone    PaymentStatus = "done"
)

const PaymentMethodCOD = "cod"

type Payment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;uniqueIndex" json:"order_id"`
	InvoiceNo string          `gorm:"type:varchar(40)" json:"invoice_no"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method    string          `gorm:"type:varchar(20);not null" json:"method"`
	Status    PaymentStatus   `gorm:"type:varchar(20);not null" json:"status"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// InitialPaymentStatus is "cod" for cash on delivery and "pending" for any
// online method.
func InitialPaymentStatus(method string) PaymentStatus {
	if method == PaymentMethodCOD {
		return PaymentStatusCOD
	}
	return PaymentStatusPending
}

// InvoiceTaxSummary is the persisted tax breakdown of a generated invoice.
type InvoiceTaxSummary struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       uint            `gorm:"not null;uniqueIndex" json:"order_id"`
	InvoiceNumber string          `gorm:"type:varchar(40);not null;uniqueIndex" json:"invoice_number"`
	FilePath      string          `gorm:"type:varchar(500);not null" json:"file_path"`
	Taxable       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"taxable"`
	CGST          decimal.Decimal `gorm:"column:cgst;type:decimal(12,2);not null" json:"cgst"`
	SGST          decimal.Decimal `gorm:"column:sgst;type:decimal(12,2);not null" json:"sgst"`
	IGST          decimal.Decimal `gorm:"column:igst;type:decimal(12,2);not null" json:"igst"`
	GrandTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"grand_total"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

func (InvoiceTaxSummary) TableName() string {
	return "invoice_tax_summaries"
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Product{},
		&ProductUnit{},
		&CartLine{},
		&Address{},
		&Order{},
		&OrderLine{},
		&Payment{},
		&InvoiceTaxSummary{},
	}
}
