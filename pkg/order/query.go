package order

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/shoppurs/pkg/apperr"
	"github.com/example/shoppurs/pkg/database"
	"github.com/example/shoppurs/pkg/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Page struct {
	Orders   []models.Order `json:"orders"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// Filter selects orders for staff listings. Nil fields do not filter.
type Filter struct {
	Status   *models.OrderStatus
	UserID   *uint
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	return q
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// ListOrders returns the user's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID uint, page, pageSize int) (*Page, error) {
	return s.list(ctx, Filter{UserID: &userID, Page: page, PageSize: pageSize})
}

func (s *Service) ListAllOrders(ctx context.Context, f Filter) (*Page, error) {
	return s.list(ctx, f)
}

func (s *Service) list(ctx context.Context, f Filter) (*Page, error) {
	page, size := normalizePage(f.Page, f.PageSize)
	db := s.db.WithContext(ctx)

	var total int64
	if err := f.apply(db.Model(&models.Order{})).Count(&total).Error; err != nil {
		return nil, s.fail("Failed to count orders", err)
	}

	orders := []models.Order{}
	err := f.apply(db.Model(&models.Order{})).
		Preload("Payment").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&orders).Error
	if err != nil {
		return nil, s.fail("Failed to list orders", err)
	}

	return &Page{Orders: orders, Total: total, Page: page, PageSize: size}, nil
}

// OrderDetails returns an order with lines and payment. Customers only see
// their own orders; staff see all of them.
func (s *Service) OrderDetails(ctx context.Context, viewerID uint, staff bool, orderID uint) (*models.Order, error) {
	if s.cache != nil {
		cached, err := s.cache.GetOrderCache(ctx, orderID)
		if err != nil {
			s.logger.Warn("Order cache read failed", zap.Uint("order_id", orderID), zap.Error(err))
		}
		if cached != nil {
			if !staff && cached.UserID != viewerID {
				return nil, apperr.NotFound(apperr.MsgOrderNotFound)
			}
			return cached, nil
		}
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !staff && order.UserID != viewerID {
		return nil, apperr.NotFound(apperr.MsgOrderNotFound)
	}

	if s.cache != nil {
		s.cacheOrder(ctx, order)
	}
	return order, nil
}

// cacheOrder writes the snapshot and then re-reads the row version. A
// transition that committed between the load and the write has already run
// its own invalidation, so the stale entry is dropped here instead.
func (s *Service) cacheOrder(ctx context.Context, order *models.Order) {
	if err := s.cache.CacheOrder(ctx, order); err != nil {
		s.logger.Warn("Order cache write failed", zap.Uint("order_id", order.ID), zap.Error(err))
		return
	}

	var current models.Order
	err := s.db.WithContext(ctx).Select("id", "status", "updated_at").Where("id = ?", order.ID).First(&current).Error
	if err == nil && current.Status == order.Status && current.UpdatedAt.Equal(order.UpdatedAt) {
		return
	}
	if err := s.cache.InvalidateOrder(ctx, order.ID); err != nil {
		s.logger.Warn("Failed to drop stale order cache", zap.Uint("order_id", order.ID), zap.Error(err))
	}
}

func (s *Service) loadOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Payment").
		Where("id = ?", orderID).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.MsgOrderNotFound)
		}
		return nil, database.Classify(err)
	}
	return &o, nil
}
