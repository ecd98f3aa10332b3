package dbtest

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/shoppurs/pkg/models"
)

func User(t testing.TB, db *gorm.DB, name string) models.User {
	t.Helper()
	u := models.User{Name: name, Email: name + "@example.com", Role: models.RoleCustomer}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// UnitSpec describes a unit to seed: label, step and rate as decimal strings.
type UnitSpec struct {
	Label    string
	Step     string
	Rate     string
	Inactive bool
}

// Product seeds a product with 5% CGST, 5% SGST and the given units.
func Product(t testing.TB, db *gorm.DB, name string, barcode string, units ...UnitSpec) models.Product {
	t.Helper()
	p := models.Product{
		Name:        name,
		Description: name + " description",
		HSNCode:     "0713",
		MRP:         decimal.NewFromInt(120),
		CGSTRate:    decimal.NewFromInt(5),
		SGSTRate:    decimal.NewFromInt(5),
		IGSTRate:    decimal.Zero,
		Status:      models.StatusActive,
	}
	if barcode != "" {
		p.Barcode = &barcode
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	for _, spec := range units {
		status := models.StatusActive
		if spec.Inactive {
			status = models.StatusInactive
		}
		u := models.ProductUnit{
			ProductID: p.ID,
			Label:     spec.Label,
			StepValue: decimal.RequireFromString(spec.Step),
			Rate:      decimal.RequireFromString(spec.Rate),
			Status:    status,
		}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("create unit: %v", err)
		}
		p.Units = append(p.Units, u)
	}
	return p
}

func Address(t testing.TB, db *gorm.DB, userID uint, line string, isDefault bool) models.Address {
	t.Helper()
	a := models.Address{
		UserID:    userID,
		Name:      "Receiver",
		Phone:     "9999999999",
		Line:      line,
		City:      "Pune",
		State:     "MH",
		Country:   "IN",
		Pincode:   "411001",
		IsDefault: isDefault,
	}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("create address: %v", err)
	}
	return a
}
