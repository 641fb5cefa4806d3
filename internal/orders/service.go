package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threepillars/storefront-backend/pkg/db"
	"github.com/threepillars/storefront-backend/pkg/db/models"
	"github.com/threepillars/storefront-backend/pkg/enums"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
	"github.com/threepillars/storefront-backend/pkg/logger"
	"github.com/threepillars/storefront-backend/pkg/pagination"
	"github.com/threepillars/storefront-backend/pkg/types"
)

type stockRestorer interface {
	RestoreStock(ctx context.Context, tx *gorm.DB, tenantID, productID uuid.UUID, qty int) error
}

type notifier interface {
	OrderStatusChanged(ctx context.Context, order *models.Order)
	OrderCancelled(ctx context.Context, order *models.Order)
}

// Page is one cursor page of orders.
type Page struct {
	Orders     []models.Order
	NextCursor string
}

// Service owns the order lifecycle. Every transition funnels through the
// state machine in transitions.go.
type Service interface {
	Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*models.Order, error)
	List(ctx context.Context, tenantID uuid.UUID, filter ListFilter, params pagination.Params) (*Page, error)
	UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, status enums.OrderStatus, note *string) (*models.Order, error)
	UpdatePayment(ctx context.Context, tenantID, orderID uuid.UUID, status enums.PaymentStatus, transactionID *string) (*models.Order, error)
	UpdateTracking(ctx context.Context, tenantID, orderID uuid.UUID, input TrackingInput) (*models.Order, error)
	Cancel(ctx context.Context, tenantID, orderID uuid.UUID, reason string) (*models.Order, error)
	MarkPaid(ctx context.Context, order *models.Order, gatewayPaymentID, transactionID *string) error
	MarkShipped(ctx context.Context, order *models.Order, courier types.CourierInfo) error
}

type service struct {
	db       *db.Client
	repo     *Repository
	products stockRestorer
	notify   notifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the order lifecycle service. notify may be nil.
func NewService(client *db.Client, repo *Repository, products stockRestorer, notify notifier, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		db:       client,
		repo:     repo,
		products: products,
		notify:   notify,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
	}
	return order, nil
}

func (s *service) GetByNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*models.Order, error) {
	order, err := s.repo.FindByNumber(ctx, tenantID, orderNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter, params pagination.Params) (*Page, error) {
	rows, err := s.repo.List(ctx, tenantID, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &Page{Orders: rows}
	if len(rows) > limit {
		page.Orders = rows[:limit]
		last := page.Orders[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, status enums.OrderStatus, note *string) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", status)
	}
	if status == enums.OrderStatusCancelled {
		reason := "cancelled via status update"
		if note != nil {
			reason = *note
		}
		return s.Cancel(ctx, tenantID, orderID, reason)
	}

	order, err := s.Get(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, status) {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidStatusTransition, "cannot move order from %s to %s", order.Status, status).
			WithDetails(map[string]any{"from": order.Status.String(), "to": status.String()})
	}

	s.applyStatus(order, status)
	appendNote(order, note)

	if err := s.repo.Save(ctx, nil, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving order status")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order status updated to "+status.String())
	if s.notify != nil {
		s.notify.OrderStatusChanged(ctx, order)
	}
	return order, nil
}

// TrackingInput carries manual courier detail updates for an order.
type TrackingInput struct {
	TrackingNumber    *string
	WaybillNumber     *string
	CollectionCode    *string
	EstimatedDelivery *time.Time
}

// UpdatePayment records a payment state change made outside the gateway
// webhook, e.g. a manual reconciliation. A completed payment also advances
// the order itself to paid.
func (s *service) UpdatePayment(ctx context.Context, tenantID, orderID uuid.UUID, status enums.PaymentStatus, transactionID *string) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment status %q", status)
	}

	order, err := s.Get(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	becamePaid := false
	switch status {
	case enums.PaymentStatusCompleted:
		if order.PaymentStatus != enums.PaymentStatusCompleted {
			if !CanTransition(order.Status, enums.OrderStatusPaid) {
				return nil, pkgerrors.Newf(pkgerrors.CodeInvalidStatusTransition, "cannot mark order in status %s as paid", order.Status).
					WithDetails(map[string]any{"from": order.Status.String(), "to": enums.OrderStatusPaid.String()})
			}
			s.applyStatus(order, enums.OrderStatusPaid)
			becamePaid = true
		}
	default:
		order.PaymentStatus = status
	}
	if transactionID != nil {
		order.TransactionID = transactionID
	}

	if err := s.repo.Save(ctx, nil, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving payment status")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "payment status updated to "+status.String())
	if becamePaid && s.notify != nil {
		s.notify.OrderStatusChanged(ctx, order)
	}
	return order, nil
}

// UpdateTracking attaches or corrects courier details without moving the
// state machine.
func (s *service) UpdateTracking(ctx context.Context, tenantID, orderID uuid.UUID, input TrackingInput) (*models.Order, error) {
	order, err := s.Get(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if input.TrackingNumber != nil {
		order.TrackingNumber = input.TrackingNumber
	}
	if input.WaybillNumber != nil {
		order.WaybillNumber = input.WaybillNumber
	}
	if input.CollectionCode != nil {
		order.CollectionCode = input.CollectionCode
	}
	if input.EstimatedDelivery != nil {
		order.EstimatedDelivery = input.EstimatedDelivery
	}

	if err := s.repo.Save(ctx, nil, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving tracking details")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "tracking details updated")
	return order, nil
}

// Cancel aborts a pending or paid order, hands every tracked unit back to the
// shelf and, when payment already completed, flags the payment for refund.
func (s *service) Cancel(ctx context.Context, tenantID, orderID uuid.UUID, reason string) (*models.Order, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason is required")
	}

	order, err := s.Get(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusPaid {
		return nil, pkgerrors.Newf(pkgerrors.CodeOrderCannotBeCancelled, "order in status %s cannot be cancelled", order.Status).
			WithDetails(map[string]any{"status": order.Status.String()})
	}

	now := s.now()
	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &now
	if order.PaymentStatus == enums.PaymentStatusCompleted {
		order.PaymentStatus = enums.PaymentStatusRefunded
	}
	appendNote(order, &reason)

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if err := s.products.RestoreStock(ctx, tx, tenantID, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return s.repo.Save(ctx, tx, order)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling order")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order cancelled")
	if s.notify != nil {
		s.notify.OrderCancelled(ctx, order)
	}
	return order, nil
}

// MarkPaid records a confirmed payment. Callers are responsible for
// verification and idempotency; this only moves the state machine.
func (s *service) MarkPaid(ctx context.Context, order *models.Order, gatewayPaymentID, transactionID *string) error {
	if !CanTransition(order.Status, enums.OrderStatusPaid) {
		return pkgerrors.Newf(pkgerrors.CodeInvalidStatusTransition, "cannot move order from %s to paid", order.Status).
			WithDetails(map[string]any{"from": order.Status.String(), "to": enums.OrderStatusPaid.String()})
	}

	s.applyStatus(order, enums.OrderStatusPaid)
	if gatewayPaymentID != nil {
		order.GatewayPaymentID = gatewayPaymentID
	}
	if transactionID != nil {
		order.TransactionID = transactionID
	}

	if err := s.repo.Save(ctx, nil, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving paid order")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order marked paid")
	if s.notify != nil {
		s.notify.OrderStatusChanged(ctx, order)
	}
	return nil
}

// MarkShipped attaches courier details and moves the order to shipped.
func (s *service) MarkShipped(ctx context.Context, order *models.Order, courier types.CourierInfo) error {
	if !CanTransition(order.Status, enums.OrderStatusShipped) {
		return pkgerrors.Newf(pkgerrors.CodeInvalidStatusTransition, "cannot move order from %s to shipped", order.Status).
			WithDetails(map[string]any{"from": order.Status.String(), "to": enums.OrderStatusShipped.String()})
	}

	s.applyStatus(order, enums.OrderStatusShipped)
	order.Courier = &courier
	if courier.WaybillNumber != "" {
		order.WaybillNumber = &courier.WaybillNumber
	}
	if courier.TrackingNumber != "" {
		order.TrackingNumber = &courier.TrackingNumber
	}
	if courier.CollectionCode != "" {
		order.CollectionCode = &courier.CollectionCode
	}

	if err := s.repo.Save(ctx, nil, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving shipped order")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order marked shipped")
	if s.notify != nil {
		s.notify.OrderStatusChanged(ctx, order)
	}
	return nil
}

func (s *service) applyStatus(order *models.Order, status enums.OrderStatus) {
	now := s.now()
	order.Status = status
	switch status {
	case enums.OrderStatusPaid:
		order.PaymentStatus = enums.PaymentStatusCompleted
		if order.PaidAt == nil {
			order.PaidAt = &now
		}
	case enums.OrderStatusShipped:
		if order.ShippedAt == nil {
			order.ShippedAt = &now
		}
	case enums.OrderStatusDelivered:
		if order.DeliveredAt == nil {
			order.DeliveredAt = &now
		}
	}
}

// appendNote adds to the order's running note log instead of replacing it.
func appendNote(order *models.Order, note *string) {
	if note == nil || *note == "" {
		return
	}
	if order.Notes == nil || *order.Notes == "" {
		order.Notes = note
		return
	}
	combined := *order.Notes + "\n" + *note
	order.Notes = &combined
}
