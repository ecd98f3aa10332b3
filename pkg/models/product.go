package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(200);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Barcode     *string         `gorm:"type:varchar(64);uniqueIndex" json:"barcode,omitempty"`
	HSNCode     string          `gorm:"column:hsn_code;type:varchar(20)" json:"hsn_code"`
	MRP         decimal.Decimal `gorm:"column:mrp;type:decimal(12,2);not null;default:0" json:"mrp"`
	CGSTRate    decimal.Decimal `gorm:"column:cgst_rate;type:decimal(5,2);not null;default:0" json:"cgst_rate"`
	SGSTRate    decimal.Decimal `gorm:"column:sgst_rate;type:decimal(5,2);not null;default:0" json:"sgst_rate"`
	IGSTRate    decimal.Decimal `gorm:"column:igst_rate;type:decimal(5,2);not null;default:0" json:"igst_rate"`
	ImageURL    string          `gorm:"type:varchar(500)" json:"image_url"`
	Status      string          `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Units       []ProductUnit   `gorm:"foreignKey:ProductID" json:"units,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// ProductUnit is one purchasable measure of a product, e.g. "500g" with a
// step of 0.5 or "1kg" with a step of 1.
type ProductUnit struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Label     string          `gorm:"type:varchar(50);not null" json:"label"`
	StepValue decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"step_value"`
	Rate      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"rate"`
	Status    string          `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (ProductUnit) TableName() string {
	return "product_units"
}

func (u ProductUnit) Active() bool {
	return u.Status == StatusActive
}
