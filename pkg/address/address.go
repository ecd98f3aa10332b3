// Package address manages delivery addresses and picks the one an order is
// shipped to.
package address

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/shoppurs/pkg/apperr"
	"github.com/example/shoppurs/pkg/database"
	"github.com/example/shoppurs/pkg/models"
)

type Resolver struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewResolver(db *gorm.DB, logger *zap.Logger) *Resolver {
	return &Resolver{db: db, logger: logger.Named("address")}
}

type CreateRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Line      string `json:"line" binding:"required"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state"`
	Country   string `json:"country"`
	Pincode   string `json:"pincode" binding:"required"`
	Landmark  string `json:"landmark"`
	IsDefault bool   `json:"is_default"`
}

func (r CreateRequest) validate() error {
	if strings.TrimSpace(r.Line) == "" || strings.TrimSpace(r.City) == "" || strings.TrimSpace(r.Pincode) == "" {
		return apperr.Validation("Address line, city and pincode are required")
	}
	return nil
}

// ResolveForOrder returns the explicit address when given, else the default,
// else the most recently created one.
func (r *Resolver) ResolveForOrder(ctx context.Context, userID uint, explicitID *uint) (*models.Address, error) {
	return Resolve(r.db.WithContext(ctx), userID, explicitID)
}

// Resolve is ResolveForOrder against an arbitrary handle, typically an open
// transaction.
func Resolve(db *gorm.DB, userID uint, explicitID *uint) (*models.Address, error) {
	var a models.Address

	if explicitID != nil {
		err := db.Where("id = ? AND user_id = ? AND deleted = ?", *explicitID, userID, false).First(&a).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound(apperr.MsgAddressNotFound)
			}
			return nil, database.Classify(err)
		}
		return &a, nil
	}

	err := db.Where("user_id = ? AND deleted = ? AND is_default = ?", userID, false, true).First(&a).Error
	if err == nil {
		return &a, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.Classify(err)
	}

	err = db.Where("user_id = ? AND deleted = ?", userID, false).Order("created_at DESC, id DESC").First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNoAddressAvailable, apperr.MsgNoAddress)
		}
		return nil, database.Classify(err)
	}
	return &a, nil
}

// SetDefault clears every default flag of the user and sets the target in
// one transaction.
func (r *Resolver) SetDefault(ctx context.Context, userID, addressID uint) (*models.Address, error) {
	var a models.Address
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwner(tx, userID); err != nil {
			return err
		}
		if err := tx.Where("id = ? AND user_id = ? AND deleted = ?", addressID, userID, false).First(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(apperr.MsgAddressNotFound)
			}
			return err
		}
		if err := clearDefault(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(&a).Update("is_default", true).Error; err != nil {
			return err
		}
		a.IsDefault = true
		return nil
	})
	if err != nil {
		return nil, database.Classify(err)
	}

	r.logger.Info("Default address changed", zap.Uint("user_id", userID), zap.Uint("address_id", addressID))
	return &a, nil
}

// Create stores a new address. The user's first address becomes the default.
func (r *Resolver) Create(ctx context.Context, userID uint, req CreateRequest) (*models.Address, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	a := models.Address{
		UserID:   userID,
		Name:     req.Name,
		Phone:    req.Phone,
		Line:     req.Line,
		City:     req.City,
		State:    req.State,
		Country:  req.Country,
		Pincode:  req.Pincode,
		Landmark: req.Landmark,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwner(tx, userID); err != nil {
			return err
		}
		var live int64
		if err := tx.Model(&models.Address{}).Where("user_id = ? AND deleted = ?", userID, false).Count(&live).Error; err != nil {
			return err
		}
		a.IsDefault = req.IsDefault || live == 0
		if a.IsDefault {
			if err := clearDefault(tx, userID); err != nil {
				return err
			}
		}
		return tx.Create(&a).Error
	})
	if err != nil {
		return nil, database.Classify(err)
	}
	return &a, nil
}

func (r *Resolver) List(ctx context.Context, userID uint) ([]models.Address, error) {
	var addrs []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND deleted = ?", userID, false).
		Order("is_default DESC, created_at DESC, id DESC").
		Find(&addrs).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return addrs, nil
}

// Delete soft-deletes the address; orders keep their own copy.
func (r *Resolver) Delete(ctx context.Context, userID, addressID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Address{}).
		Where("id = ? AND user_id = ? AND deleted = ?", addressID, userID, false).
		Updates(map[string]interface{}{"deleted": true, "is_default": false})
	if res.Error != nil {
		return database.Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(apperr.MsgAddressNotFound)
	}
	return nil
}

// lockOwner takes the user row and every address row of the user FOR
// UPDATE, so default changes of one user run one at a time even when the
// user has no default (or no address) yet.
func lockOwner(tx *gorm.DB, userID uint) error {
	var owner []models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Where("id = ?", userID).Find(&owner).Error; err != nil {
		return err
	}
	var addrs []models.Address
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Where("user_id = ?", userID).Find(&addrs).Error
}

func clearDefault(tx *gorm.DB, userID uint) error {
	return tx.Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}
