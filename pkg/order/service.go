// Package order turns carts into orders and drives them through their
// lifecycle up to delivery and invoicing.
package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/shoppurs/pkg/address"
	"github.com/example/shoppurs/pkg/apperr"
	"github.com/example/shoppurs/pkg/audit"
	"github.com/example/shoppurs/pkg/cart"
	"github.com/example/shoppurs/pkg/database"
	"github.com/example/shoppurs/pkg/invoice"
	"github.com/example/shoppurs/pkg/messaging"
	"github.com/example/shoppurs/pkg/models"
)

const (
	maxIdempotencyKey = 64
	counterProof      = "counter"
)

var terminalStatuses = []models.OrderStatus{models.OrderStatusDelivered, models.OrderStatusCancelled}

// Invoicer renders and stores the invoice of a delivered order.
type Invoicer interface {
	Generate(ctx context.Context, order *models.Order) (*invoice.Result, error)
}

// Cache holds order details between reads. GetOrderCache returns nil on a
// miss.
type Cache interface {
	CacheOrder(ctx context.Context, order *models.Order) error
	GetOrderCache(ctx context.Context, orderID uint) (*models.Order, error)
	InvalidateOrder(ctx context.Context, orderID uint) error
}

type Auditor interface {
	Record(e audit.Entry)
}

type Service struct {
	db        *gorm.DB
	invoicer  Invoicer
	cache     Cache
	publisher messaging.Publisher
	auditor   Auditor
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithPublisher(p messaging.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func NewService(db *gorm.DB, invoicer Invoicer, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		db:        db,
		invoicer:  invoicer,
		publisher: messaging.Nop(),
		auditor:   audit.Nop{},
		logger:    logger.Named("order"),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type PlaceRequest struct {
	AddressID     *uint  `json:"address_id"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	Notes         string `json:"notes"`
}

func (r *PlaceRequest) normalize() error {
	r.PaymentMethod = strings.ToLower(strings.TrimSpace(r.PaymentMethod))
	if r.PaymentMethod == "" {
		return apperr.Validation("Payment method is required")
	}
	if len(r.PaymentMethod) > 20 {
		return apperr.Validation("Payment method is too long")
	}
	r.Notes = strings.TrimSpace(r.Notes)
	if len(r.Notes) > 500 {
		return apperr.Validation("Notes must be at most 500 characters")
	}
	return nil
}

type CounterRequest struct {
	CustomerID uint `json:"customer_id" binding:"required"`
	PlaceRequest
}

type TransitionRequest struct {
	Status          string `json:"status" binding:"required"`
	ProofOfDelivery string `json:"proof_of_delivery"`
}

// Receipt is what the caller gets back after a commit.
type Receipt struct {
	OrderID         uint                   `json:"order_id"`
	OrderNumber     string                 `json:"order_number"`
	TotalAmount     decimal.Decimal        `json:"total_amount"`
	TotalQuantity   decimal.Decimal        `json:"total_quantity"`
	Status          models.OrderStatus     `json:"status"`
	PaymentStatus   models.PaymentStatus   `json:"payment_status,omitempty"`
	InvoicePath     *string                `json:"invoice_path,omitempty"`
	DeliveryAddress models.AddressSnapshot `json:"delivery_address"`
}

func receiptOf(o *models.Order) *Receipt {
	r := &Receipt{
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		TotalAmount:     o.TotalAmount,
		TotalQuantity:   o.TotalQuantity,
		Status:          o.Status,
		InvoicePath:     o.InvoicePath,
		DeliveryAddress: o.Delivery,
	}
	if o.Payment != nil {
		r.PaymentStatus = o.Payment.Status
	}
	return r
}

// PlaceOrder commits the user's cart as a pending order. A repeated call
// with the same idempotency key returns the first order's receipt.
func (s *Service) PlaceOrder(ctx context.Context, userID uint, req PlaceRequest, idempotencyKey string) (*Receipt, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	key, err := normalizeKey(idempotencyKey)
	if err != nil {
		return nil, err
	}

	if key != nil {
		existing, err := s.findByKey(ctx, userID, *key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Info("Replaying order for idempotency key",
				zap.Uint("user_id", userID),
				zap.Uint("order_id", existing.ID))
			return receiptOf(existing), nil
		}
	}

	var order *models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.commit(tx, userID, nil, req, key)
		return err
	})
	if err != nil {
		// a concurrent request with the same key may have won the race
		if key != nil && (apperr.Is(err, apperr.KindEmptyCart) || database.IsDuplicate(err)) {
			if existing, ferr := s.findByKey(ctx, userID, *key); ferr == nil && existing != nil {
				return receiptOf(existing), nil
			}
		}
		return nil, s.fail("Failed to place order", err, zap.Uint("user_id", userID))
	}

	s.logger.Info("Order placed",
		zap.Uint("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Uint("user_id", userID),
		zap.String("total_amount", order.TotalAmount.String()))
	s.afterPlace(ctx, order, audit.ActionPlaced, userID)

	return receiptOf(order), nil
}

// PlaceCounterOrder commits a customer's cart on behalf of staff and
// delivers it at once, invoice included.
func (s *Service) PlaceCounterOrder(ctx context.Context, staffID uint, req CounterRequest) (*Receipt, error) {
	if err := req.PlaceRequest.normalize(); err != nil {
		return nil, err
	}

	var order *models.Order
	var result *invoice.Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.User
		if err := tx.Select("id").Where("id = ?", req.CustomerID).First(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Customer not found")
			}
			return err
		}

		var err error
		order, err = s.commit(tx, req.CustomerID, &staffID, req.PlaceRequest, nil)
		if err != nil {
			return err
		}
		result, err = s.deliver(ctx, tx, order, models.OrderStatusPending, counterProof)
		return err
	})
	if err != nil {
		return nil, s.fail("Failed to place counter order", err,
			zap.Uint("staff_id", staffID),
			zap.Uint("customer_id", req.CustomerID))
	}

	s.logger.Info("Counter order delivered",
		zap.Uint("order_id", order.ID),
		zap.Uint("staff_id", staffID),
		zap.String("invoice", result.Number))
	s.afterPlace(ctx, order, audit.ActionCounterPlaced, staffID)
	s.recordInvoice(order, staffID, result)

	return receiptOf(order), nil
}

// commit runs inside tx: lock the cart, snapshot it into an order with
// lines and a payment record, then clear exactly the locked lines.
func (s *Service) commit(tx *gorm.DB, customerID uint, placedBy *uint, req PlaceRequest, key *string) (*models.Order, error) {
	lines, err := cart.LoadLines(tx, customerID, true)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperr.New(apperr.KindEmptyCart, apperr.MsgEmptyCart)
	}
	for _, l := range lines {
		if l.UnitStatus != models.StatusActive {
			return nil, apperr.Validationf("%s %s is no longer available", l.ProductName, l.UnitLabel)
		}
	}

	addr, err := address.Resolve(tx, customerID, req.AddressID)
	if err != nil {
		return nil, err
	}

	orderLines := make([]models.OrderLine, 0, len(lines))
	cartIDs := make([]uint, 0, len(lines))
	total, qty := decimal.Zero, decimal.Zero
	for _, l := range lines {
		lineTotal := l.LineTotal.Round(2)
		total = total.Add(lineTotal)
		qty = qty.Add(l.Quantity)
		cartIDs = append(cartIDs, l.ID)
		orderLines = append(orderLines, models.OrderLine{
			ProductID:          l.ProductID,
			UnitID:             l.UnitID,
			UnitLabel:          l.UnitLabel,
			Quantity:           l.Quantity,
			UnitPrice:          l.Rate,
			LineTotal:          lineTotal,
			ProductName:        l.ProductName,
			ProductDescription: l.ProductDescription,
			HSNCode:            l.HSNCode,
			MRP:                l.MRP,
			CGSTRate:           l.CGSTRate,
			SGSTRate:           l.SGSTRate,
			IGSTRate:           l.IGSTRate,
			ImageURL:           l.ImageURL,
		})
	}

	order := &models.Order{
		OrderNumber:    newOrderNumber(s.now()),
		UserID:         customerID,
		IdempotencyKey: key,
		TotalAmount:    total,
		TotalQuantity:  qty,
		Status:         models.OrderStatusPending,
		Delivery:       addr.Snapshot(),
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
		PlacedBy:       placedBy,
	}
	if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
		return nil, err
	}

	for i := range orderLines {
		orderLines[i].OrderID = order.ID
	}
	if err := tx.Create(&orderLines).Error; err != nil {
		return nil, err
	}

	payment := &models.Payment{
		OrderID:   order.ID,
		InvoiceNo: invoice.Number(order.ID),
		Amount:    total,
		Method:    req.PaymentMethod,
		Status:    models.InitialPaymentStatus(req.PaymentMethod),
	}
	if err := tx.Create(payment).Error; err != nil {
		return nil, err
	}

	if err := tx.Where("user_id = ? AND id IN ?", customerID, cartIDs).Delete(&models.CartLine{}).Error; err != nil {
		return nil, err
	}

	order.Lines = orderLines
	order.Payment = payment
	return order, nil
}

// TransitionStatus moves an order along its lifecycle. Moving to delivered
// settles the payment and generates the invoice in the same transaction.
func (s *Service) TransitionStatus(ctx context.Context, actorID, orderID uint, req TransitionRequest) (*models.Order, error) {
	to, err := ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	var order models.Order
	var from models.OrderStatus
	var result *invoice.Result
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", orderID).First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(apperr.MsgOrderNotFound)
			}
			return err
		}
		from = order.Status
		if err := CanTransition(from, to); err != nil {
			return err
		}

		if to == models.OrderStatusDelivered {
			result, err = s.deliver(ctx, tx, &order, from, strings.TrimSpace(req.ProofOfDelivery))
			return err
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ? AND status NOT IN ?", orderID, from, terminalStatuses).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return finalizedOrMissing(tx, orderID)
		}
		order.Status = to
		return nil
	})
	if err != nil {
		return nil, s.fail("Failed to transition order", err,
			zap.Uint("order_id", orderID),
			zap.String("to", string(to)))
	}

	s.logger.Info("Order status changed",
		zap.Uint("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Uint("actor_id", actorID))
	s.afterTransition(ctx, &order, from, actorID)
	s.recordInvoice(&order, actorID, result)

	return s.loadOrder(ctx, orderID)
}

// deliver finalizes order inside tx. The conditional update is the
// terminal check; zero affected rows means someone else finalized it.
func (s *Service) deliver(ctx context.Context, tx *gorm.DB, order *models.Order, from models.OrderStatus, proof string) (*invoice.Result, error) {
	now := s.now()

	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ? AND status NOT IN ?", order.ID, from, terminalStatuses).
		Updates(map[string]interface{}{
			"status":            models.OrderStatusDelivered,
			"delivered_at":      now,
			"proof_of_delivery": proof,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, finalizedOrMissing(tx, order.ID)
	}

	err := tx.Model(&models.Payment{}).
		Where("order_id = ? AND status IN ?", order.ID, []models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusCOD}).
		Updates(map[string]interface{}{"status": models.PaymentStatusDone, "paid_at": now}).Error
	if err != nil {
		return nil, err
	}

	if err := tx.Where("order_id = ?", order.ID).Order("id ASC").Find(&order.Lines).Error; err != nil {
		return nil, err
	}
	order.Status = models.OrderStatusDelivered
	order.DeliveredAt = &now
	order.ProofOfDelivery = proof
	if order.Payment != nil {
		order.Payment.Status = models.PaymentStatusDone
		order.Payment.PaidAt = &now
	}

	result, err := s.invoicer.Generate(ctx, order)
	if err != nil {
		if !apperr.Is(err, apperr.KindInvoiceGenerationFailed) {
			err = apperr.Wrap(apperr.KindInvoiceGenerationFailed, apperr.MsgInvoiceFailed, err)
		}
		return nil, err
	}

	if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Update("invoice_path", result.Path).Error; err != nil {
		return nil, err
	}
	order.InvoicePath = &result.Path

	summary := models.InvoiceTaxSummary{
		OrderID:       order.ID,
		InvoiceNumber: result.Number,
		FilePath:      result.Path,
		Taxable:       result.Summary.Taxable,
		CGST:          result.Summary.CGST,
		SGST:          result.Summary.SGST,
		IGST:          result.Summary.IGST,
		GrandTotal:    result.Summary.GrandTotal,
		GeneratedAt:   result.GeneratedAt,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"invoice_number", "file_path", "taxable", "cgst", "sgst", "igst", "grand_total", "generated_at",
		}),
	}).Create(&summary).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CancelOrder cancels the caller's own order while it is still pending.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	db := s.db.WithContext(ctx)

	res := db.Model(&models.Order{}).
		Where("id = ? AND user_id = ? AND status = ?", orderID, userID, models.OrderStatusPending).
		Update("status", models.OrderStatusCancelled)
	if res.Error != nil {
		return nil, s.fail("Failed to cancel order", res.Error, zap.Uint("order_id", orderID))
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.Order{}).Where("id = ? AND user_id = ?", orderID, userID).Count(&count).Error; err != nil {
			return nil, s.fail("Failed to cancel order", err, zap.Uint("order_id", orderID))
		}
		if count == 0 {
			return nil, apperr.NotFound(apperr.MsgOrderNotFound)
		}
		return nil, apperr.New(apperr.KindOrderNotCancellable, apperr.MsgOrderNotCancelable)
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Order cancelled", zap.Uint("order_id", orderID), zap.Uint("user_id", userID))
	s.afterTransition(ctx, order, models.OrderStatusPending, userID)
	return order, nil
}

func finalizedOrMissing(tx *gorm.DB, orderID uint) error {
	var o models.Order
	if err := tx.Select("id", "status").Where("id = ?", orderID).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(apperr.MsgOrderNotFound)
		}
		return err
	}
	if o.Status.Terminal() {
		return apperr.New(apperr.KindOrderAlreadyFinalized, apperr.MsgOrderFinalized)
	}
	return apperr.New(apperr.KindTransactionConflict, apperr.MsgConflict)
}

func normalizeKey(key string) (*string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	if len(key) > maxIdempotencyKey {
		return nil, apperr.Validationf("Idempotency key must be at most %d characters", maxIdempotencyKey)
	}
	return &key, nil
}

func (s *Service) findByKey(ctx context.Context, userID uint, key string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Preload("Payment").
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return &o, nil
}

// fail classifies err and logs the ones the caller will only see as a
// generic message.
func (s *Service) fail(msg string, err error, fields ...zap.Field) error {
	err = database.Classify(err)
	switch apperr.KindOf(err) {
	case apperr.KindInternal, apperr.KindInvoiceGenerationFailed, apperr.KindTransactionConflict:
		s.logger.Error(msg, append(fields, zap.Error(err))...)
	}
	return err
}

func (s *Service) afterPlace(ctx context.Context, order *models.Order, action string, actorID uint) {
	event := messaging.OrderPlaced{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		TotalAmount:   order.TotalAmount,
		TotalQuantity: order.TotalQuantity,
		PaymentMethod: order.PaymentMethod,
		Status:        string(order.Status),
		PlacedAt:      s.now(),
	}
	if err := s.publisher.PublishEvent(ctx, messaging.TopicOrderPlaced, order.OrderNumber, event); err != nil {
		s.logger.Warn("Failed to publish order placed", zap.Uint("order_id", order.ID), zap.Error(err))
	}

	s.auditor.Record(audit.Entry{
		Action:  action,
		OrderID: order.ID,
		ActorID: actorID,
		Data: map[string]interface{}{
			"order_number":   order.OrderNumber,
			"user_id":        order.UserID,
			"total_amount":   order.TotalAmount.String(),
			"total_quantity": order.TotalQuantity.String(),
			"payment_method": order.PaymentMethod,
			"lines":          len(order.Lines),
		},
	})
}

func (s *Service) afterTransition(ctx context.Context, order *models.Order, from models.OrderStatus, actorID uint) {
	if s.cache != nil {
		if err := s.cache.InvalidateOrder(ctx, order.ID); err != nil {
			s.logger.Warn("Failed to invalidate order cache", zap.Uint("order_id", order.ID), zap.Error(err))
		}
	}

	event := messaging.OrderStatusChanged{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		From:        string(from),
		To:          string(order.Status),
		ChangedAt:   s.now(),
	}
	if order.InvoicePath != nil {
		event.InvoicePath = *order.InvoicePath
	}
	if err := s.publisher.PublishEvent(ctx, messaging.TopicOrderStatusChanged, order.OrderNumber, event); err != nil {
		s.logger.Warn("Failed to publish status change", zap.Uint("order_id", order.ID), zap.Error(err))
	}

	action := audit.ActionStatusChanged
	if order.Status == models.OrderStatusCancelled {
		action = audit.ActionCancelled
	}
	s.auditor.Record(audit.Entry{
		Action:  action,
		OrderID: order.ID,
		ActorID: actorID,
		Data:    map[string]interface{}{"from": string(from), "to": string(order.Status)},
	})
}

func (s *Service) recordInvoice(order *models.Order, actorID uint, result *invoice.Result) {
	if result == nil {
		return
	}
	s.auditor.Record(audit.Entry{
		Action:  audit.ActionInvoiced,
		OrderID: order.ID,
		ActorID: actorID,
		Data: map[string]interface{}{
			"invoice_number": result.Number,
			"path":           result.Path,
			"grand_total":    result.Summary.GrandTotal.String(),
		},
	})
}
