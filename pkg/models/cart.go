package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is unique per (user, product, unit).
type CartLine struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;uniqueIndex:idx_cart_user_product_unit" json:"user_id"`
	ProductID uint            `gorm:"not null;uniqueIndex:idx_cart_user_product_unit" json:"product_id"`
	UnitID    uint            `gorm:"not null;uniqueIndex:idx_cart_user_product_unit" json:"unit_id"`
	Quantity  decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (CartLine) TableName() string {
	return "cart_lines"
}
