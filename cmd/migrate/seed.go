package main

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/shoppurs/pkg/models"
)

type demoData struct {
	Users    []models.User
	Products []models.Product
}

type demoUnit struct {
	label, step, rate string
}

type demoProduct struct {
	name, barcode, hsn, mrp string
	units                   []demoUnit
}

var demoProducts = []demoProduct{
	{"Basmati Rice", "8901030865278", "1006", "130", []demoUnit{{"1kg", "1", "120"}, {"5kg", "5", "560"}}},
	{"Toor Dal", "8901725181109", "0713", "180", []demoUnit{{"500g", "0.5", "85"}, {"1kg", "1", "165"}}},
	{"Sunflower Oil", "8906007280018", "1512", "210", []demoUnit{{"1L", "1", "195"}}},
	{"Sugar", "8904063200015", "1701", "50", []demoUnit{{"500g", "0.5", "24"}, {"1kg", "1", "46"}}},
}

// seedDemo inserts demo rows keyed on email and barcode, so running it
// twice leaves one copy.
func seedDemo(ctx context.Context, db *gorm.DB) (*demoData, error) {
	out := &demoData{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range []models.User{
			{Name: "Demo Customer", Email: "customer@shoppurs.test", Phone: "9000000001", Role: models.RoleCustomer},
			{Name: "Store Employee", Email: "employee@shoppurs.test", Phone: "9000000002", Role: models.RoleEmployee},
			{Name: "Store Admin", Email: "admin@shoppurs.test", Phone: "9000000003", Role: models.RoleAdmin},
		} {
			var user models.User
			if err := tx.Where(models.User{Email: u.Email}).Attrs(u).FirstOrCreate(&user).Error; err != nil {
				return err
			}
			out.Users = append(out.Users, user)
		}

		customer := out.Users[0]
		var addrs int64
		if err := tx.Model(&models.Address{}).Where("user_id = ?", customer.ID).Count(&addrs).Error; err != nil {
			return err
		}
		if addrs == 0 {
			home := models.Address{
				UserID: customer.ID, Name: customer.Name, Phone: customer.Phone,
				Line: "12 MG Road", City: "Pune", State: "MH", Country: "IN", Pincode: "411001",
				IsDefault: true,
			}
			if err := tx.Create(&home).Error; err != nil {
				return err
			}
		}

		for _, dp := range demoProducts {
			p, err := seedProduct(tx, dp)
			if err != nil {
				return err
			}
			out.Products = append(out.Products, *p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func seedProduct(tx *gorm.DB, dp demoProduct) (*models.Product, error) {
	barcode := dp.barcode
	attrs := models.Product{
		Name:     dp.name,
		Barcode:  &barcode,
		HSNCode:  dp.hsn,
		MRP:      decimal.RequireFromString(dp.mrp),
		CGSTRate: decimal.NewFromFloat(2.5),
		SGSTRate: decimal.NewFromFloat(2.5),
		Status:   models.StatusActive,
	}
	var p models.Product
	if err := tx.Where("barcode = ?", barcode).Attrs(attrs).FirstOrCreate(&p).Error; err != nil {
		return nil, err
	}

	for _, du := range dp.units {
		var u models.ProductUnit
		attrs := models.ProductUnit{
			ProductID: p.ID,
			Label:     du.label,
			StepValue: decimal.RequireFromString(du.step),
			Rate:      decimal.RequireFromString(du.rate),
			Status:    models.StatusActive,
		}
		if err := tx.Where("product_id = ? AND label = ?", p.ID, du.label).Attrs(attrs).FirstOrCreate(&u).Error; err != nil {
			return nil, err
		}
		p.Units = append(p.Units, u)
	}
	return &p, nil
}
