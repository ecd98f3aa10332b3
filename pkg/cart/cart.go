// Package cart keeps each user's (product, unit) → quantity lines.
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/shoppurs/pkg/address"
	"github.com/example/shoppurs/pkg/apperr"
	"github.com/example/shoppurs/pkg/catalog"
	"github.com/example/shoppurs/pkg/database"
	"github.com/example/shoppurs/pkg/models"
)

type Store struct {
	db       *gorm.DB
	catalog  *catalog.Reader
	resolver *address.Resolver
	logger   *zap.Logger
}

func NewStore(db *gorm.DB, catalog *catalog.Reader, resolver *address.Resolver, logger *zap.Logger) *Store {
	return &Store{
		db:       db,
		catalog:  catalog,
		resolver: resolver,
		logger:   logger.Named("cart"),
	}
}

// View is the cart as shown to the user. Address is nil when the user has
// none yet.
type View struct {
	Lines         []Line          `json:"lines"`
	Total         decimal.Decimal `json:"total"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	Address       *models.Address `json:"address"`
}

type Count struct {
	TotalLines    int64           `json:"total_lines"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
}

// AddLine merges quantity into the user's line for (product, unit) or
// creates it. The increment happens in the database.
func (s *Store) AddLine(ctx context.Context, userID, productID, unitID uint, quantity decimal.Decimal) (*models.CartLine, error) {
	if !quantity.IsPositive() {
		return nil, apperr.Validation(apperr.MsgQuantityPositive)
	}

	db := s.db.WithContext(ctx)
	if _, err := catalog.GetActiveUnit(db, productID, unitID); err != nil {
		return nil, err
	}

	line := models.CartLine{
		UserID:    userID,
		ProductID: productID,
		UnitID:    unitID,
		Quantity:  quantity,
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}, {Name: "unit_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_lines.quantity + ?", quantity),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&line).Error
	if err != nil {
		return nil, database.Classify(err)
	}

	var stored models.CartLine
	err = db.Where("user_id = ? AND product_id = ? AND unit_id = ?", userID, productID, unitID).First(&stored).Error
	if err != nil {
		return nil, database.Classify(err)
	}

	s.logger.Debug("Cart line added",
		zap.Uint("user_id", userID),
		zap.Uint("product_id", productID),
		zap.Uint("unit_id", unitID),
		zap.String("quantity", stored.Quantity.String()))
	return &stored, nil
}

// AddAuto adds one step of the product's smallest active unit.
func (s *Store) AddAuto(ctx context.Context, userID, productID uint) (*models.CartLine, error) {
	unit, err := s.catalog.SmallestActiveUnit(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.AddLine(ctx, userID, productID, unit.ID, unit.StepValue)
}

func (s *Store) AddByBarcode(ctx context.Context, userID uint, code string) (*models.CartLine, error) {
	productID, err := s.catalog.ResolveBarcode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.AddAuto(ctx, userID, productID)
}

// ChangeUnit moves a line to another unit of the same product. If the user
// already has a line for that unit, the quantities are merged into it and
// the old line is removed; otherwise the line is retargeted and its quantity
// reset to one step of the new unit.
func (s *Store) ChangeUnit(ctx context.Context, userID, lineID, newUnitID uint) (*models.CartLine, error) {
	var result models.CartLine

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		line, err := lockLine(tx, userID, lineID)
		if err != nil {
			return err
		}
		if line.UnitID == newUnitID {
			result = *line
			return nil
		}

		unit, err := catalog.GetActiveUnit(tx, line.ProductID, newUnitID)
		if err != nil {
			return err
		}

		var target models.CartLine
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ? AND unit_id = ?", userID, line.ProductID, newUnitID).
			First(&target).Error
		switch {
		case err == nil:
			if err := tx.Model(&target).Update("quantity", gorm.Expr("quantity + ?", line.Quantity)).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.CartLine{}, line.ID).Error; err != nil {
				return err
			}
			return tx.First(&result, target.ID).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			err := tx.Model(line).Updates(map[string]interface{}{
				"unit_id":  newUnitID,
				"quantity": unit.StepValue,
			}).Error
			if err != nil {
				return err
			}
			return tx.First(&result, line.ID).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, database.Classify(err)
	}
	return &result, nil
}

// Increase adds one unit step to the line.
func (s *Store) Increase(ctx context.Context, userID, lineID uint) (*models.CartLine, error) {
	db := s.db.WithContext(ctx)

	line, err := findLine(db, userID, lineID)
	if err != nil {
		return nil, err
	}
	step, err := unitStep(db, line.UnitID)
	if err != nil {
		return nil, err
	}

	res := db.Model(&models.CartLine{}).
		Where("id = ? AND user_id = ?", lineID, userID).
		Update("quantity", gorm.Expr("quantity + ?", step))
	if res.Error != nil {
		return nil, database.Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound(apperr.MsgCartLineNotFound)
	}

	return findLine(db, userID, lineID)
}

// Decrease removes one unit step. A line holding one step or less is
// deleted instead of going to zero; the returned line is nil in that case.
func (s *Store) Decrease(ctx context.Context, userID, lineID uint) (*models.CartLine, error) {
	var result *models.CartLine

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		line, err := lockLine(tx, userID, lineID)
		if err != nil {
			return err
		}
		step, err := unitStep(tx, line.UnitID)
		if err != nil {
			return err
		}

		if line.Quantity.LessThanOrEqual(step) {
			return tx.Delete(&models.CartLine{}, line.ID).Error
		}

		if err := tx.Model(line).Update("quantity", gorm.Expr("quantity - ?", step)).Error; err != nil {
			return err
		}
		result = &models.CartLine{}
		return tx.First(result, line.ID).Error
	})
	if err != nil {
		return nil, database.Classify(err)
	}
	return result, nil
}

func (s *Store) Remove(ctx context.Context, userID, lineID uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", lineID, userID).Delete(&models.CartLine{})
	if res.Error != nil {
		return database.Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(apperr.MsgCartLineNotFound)
	}
	return nil
}

// Fetch returns the cart with live prices and the address an order would be
// delivered to. It does not modify the cart.
func (s *Store) Fetch(ctx context.Context, userID uint, addressID *uint) (*View, error) {
	lines, err := LoadLines(s.db.WithContext(ctx), userID, false)
	if err != nil {
		return nil, database.Classify(err)
	}
	total, qty := Totals(lines)
	if lines == nil {
		lines = []Line{}
	}

	view := &View{Lines: lines, Total: total, TotalQuantity: qty}

	addr, err := s.resolver.ResolveForOrder(ctx, userID, addressID)
	switch {
	case err == nil:
		view.Address = addr
	case apperr.Is(err, apperr.KindNoAddressAvailable):
	default:
		return nil, err
	}
	return view, nil
}

func (s *Store) Count(ctx context.Context, userID uint) (*Count, error) {
	var c Count
	err := s.db.WithContext(ctx).Model(&models.CartLine{}).
		Select("COUNT(*) AS total_lines, COALESCE(SUM(quantity), 0) AS total_quantity").
		Where("user_id = ?", userID).
		Scan(&c).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return &c, nil
}

func findLine(db *gorm.DB, userID, lineID uint) (*models.CartLine, error) {
	var line models.CartLine
	if err := db.Where("id = ? AND user_id = ?", lineID, userID).First(&line).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.MsgCartLineNotFound)
		}
		return nil, database.Classify(err)
	}
	return &line, nil
}

func lockLine(tx *gorm.DB, userID, lineID uint) (*models.CartLine, error) {
	return findLine(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, lineID)
}

func unitStep(db *gorm.DB, unitID uint) (decimal.Decimal, error) {
	var unit models.ProductUnit
	if err := db.Select("id", "step_value").Where("id = ?", unitID).First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, apperr.NotFound(apperr.MsgUnitNotFound)
		}
		return decimal.Zero, database.Classify(err)
	}
	return unit.StepValue, nil
}
