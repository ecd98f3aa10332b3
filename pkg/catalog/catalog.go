// Package catalog resolves products, their units and pricing. It never
// writes.
package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/shoppurs/pkg/apperr"
	"github.com/example/shoppurs/pkg/database"
	"github.com/example/shoppurs/pkg/models"
)

type Reader struct {
	db *gorm.DB
}

func NewReader(db *gorm.DB) *Reader {
	return &Reader{db: db}
}

// GetProduct returns the product with all of its units.
func (r *Reader) GetProduct(ctx context.Context, productID uint) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).
		Preload("Units", func(db *gorm.DB) *gorm.DB { return db.Order("step_value ASC, id ASC") }).
		Where("id = ?", productID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.MsgProductNotFound)
		}
		return nil, database.Classify(err)
	}
	return &p, nil
}

// GetActiveUnit loads unitID and checks it belongs to productID and is
// active.
func (r *Reader) GetActiveUnit(ctx context.Context, productID, unitID uint) (*models.ProductUnit, error) {
	return GetActiveUnit(r.db.WithContext(ctx), productID, unitID)
}

// SmallestActiveUnit picks the active unit with the minimum step value.
func (r *Reader) SmallestActiveUnit(ctx context.Context, productID uint) (*models.ProductUnit, error) {
	if err := productExists(r.db.WithContext(ctx), productID); err != nil {
		return nil, err
	}

	var u models.ProductUnit
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, models.StatusActive).
		Order("step_value ASC, id ASC").
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.MsgNoActiveUnits)
		}
		return nil, database.Classify(err)
	}
	return &u, nil
}

func (r *Reader) ResolveBarcode(ctx context.Context, code string) (uint, error) {
	if code == "" {
		return 0, apperr.Validation("Barcode is required")
	}

	var p models.Product
	err := r.db.WithContext(ctx).Select("id").Where("barcode = ?", code).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.NotFound(apperr.MsgProductNotFound)
		}
		return 0, database.Classify(err)
	}
	return p.ID, nil
}

// GetActiveUnit is the transaction-friendly form used by the cart.
func GetActiveUnit(db *gorm.DB, productID, unitID uint) (*models.ProductUnit, error) {
	var u models.ProductUnit
	err := db.Where("id = ? AND product_id = ?", unitID, productID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if perr := productExists(db, productID); perr != nil {
				return nil, perr
			}
			return nil, apperr.NotFound(apperr.MsgUnitNotFound)
		}
		return nil, database.Classify(err)
	}
	if !u.Active() {
		return nil, apperr.NotFound(apperr.MsgUnitNotFound)
	}
	return &u, nil
}

func productExists(db *gorm.DB, productID uint) error {
	var count int64
	if err := db.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return database.Classify(err)
	}
	if count == 0 {
		return apperr.NotFound(apperr.MsgProductNotFound)
	}
	return nil
}
