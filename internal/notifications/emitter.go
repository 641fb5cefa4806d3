package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/threepillars/storefront-backend/pkg/db/models"
	"github.com/threepillars/storefront-backend/pkg/enums"
	"github.com/threepillars/storefront-backend/pkg/logger"
)

// Emitter fans order events out to a customer's devices. It runs strictly
// after the primary transaction has committed and never propagates failure
// back to the caller; delivery problems are logged and recorded per device.
type Emitter struct {
	repo   *Repository
	pusher Pusher
	logg   *logger.Logger
}

func NewEmitter(repo *Repository, pusher Pusher, logg *logger.Logger) (*Emitter, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository is required")
	}
	if pusher == nil {
		return nil, fmt.Errorf("pusher is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Emitter{repo: repo, pusher: pusher, logg: logg}, nil
}

// Notify delivers one event to every active device of the user, honoring
// their preference toggles. Always returns without error.
func (e *Emitter) Notify(ctx context.Context, tenantID, userID uuid.UUID, event enums.NotificationEvent, title, body string, data map[string]string) {
	pref, err := e.repo.Preference(ctx, tenantID, userID)
	if err != nil {
		e.logg.Warn(ctx, "loading notification preference failed: "+err.Error())
		return
	}
	if !allows(pref, event) {
		return
	}

	devices, err := e.repo.ActiveDevices(ctx, tenantID, userID)
	if err != nil {
		e.logg.Warn(ctx, "listing devices failed: "+err.Error())
		return
	}
	if len(devices) == 0 {
		return
	}

	var failures error
	for _, device := range devices {
		pushErr := e.pusher.Push(ctx, device, PushMessage{Title: title, Body: body, Data: data})

		record := models.NotificationMessage{
			TenantID:  tenantID,
			UserID:    userID,
			DeviceID:  &device.ID,
			Event:     event,
			Title:     title,
			Body:      body,
			Delivered: pushErr == nil,
		}
		if pushErr != nil {
			msg := pushErr.Error()
			record.Error = &msg
			failures = multierr.Append(failures, fmt.Errorf("device %s: %w", device.ID, pushErr))
		}
		if recErr := e.repo.RecordMessage(ctx, &record); recErr != nil {
			failures = multierr.Append(failures, fmt.Errorf("recording message: %w", recErr))
		}
	}
	if failures != nil {
		e.logg.Warn(ctx, "notification deliveries failed: "+failures.Error())
	}
}

// OrderCreated implements the checkout hook.
func (e *Emitter) OrderCreated(ctx context.Context, order *models.Order) {
	e.emitForOrder(ctx, order, enums.NotificationEventOrderCreated,
		"Order placed",
		fmt.Sprintf("Order %s was placed for %s %s.", order.OrderNumber, order.Currency, order.Total.StringFixed(2)))
}

// OrderStatusChanged implements the lifecycle hook for paid, shipped and
// delivered transitions. Other statuses are not customer-facing.
func (e *Emitter) OrderStatusChanged(ctx context.Context, order *models.Order) {
	switch order.Status {
	case enums.OrderStatusPaid:
		e.emitForOrder(ctx, order, enums.NotificationEventOrderPaid,
			"Payment received",
			fmt.Sprintf("Payment for order %s was received.", order.OrderNumber))
	case enums.OrderStatusShipped:
		body := fmt.Sprintf("Order %s is on its way.", order.OrderNumber)
		if order.CollectionCode != nil && *order.CollectionCode != "" {
			body = fmt.Sprintf("Order %s is on its way. Collection code: %s.", order.OrderNumber, *order.CollectionCode)
		}
		e.emitForOrder(ctx, order, enums.NotificationEventOrderShipped, "Order shipped", body)
	case enums.OrderStatusDelivered:
		e.emitForOrder(ctx, order, enums.NotificationEventOrderDelivered,
			"Order delivered",
			fmt.Sprintf("Order %s was delivered.", order.OrderNumber))
	}
}

// OrderCancelled implements the cancellation hook.
func (e *Emitter) OrderCancelled(ctx context.Context, order *models.Order) {
	e.emitForOrder(ctx, order, enums.NotificationEventOrderCancelled,
		"Order cancelled",
		fmt.Sprintf("Order %s was cancelled.", order.OrderNumber))
}

func (e *Emitter) emitForOrder(ctx context.Context, order *models.Order, event enums.NotificationEvent, title, body string) {
	if order.CustomerID == nil {
		// anonymous checkout, nowhere to deliver
		return
	}
	e.Notify(ctx, order.TenantID, *order.CustomerID, event, title, body, map[string]string{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"status":       order.Status.String(),
	})
}

// allows applies the master switch and the per-event toggles. No stored
// preference means everything is on.
func allows(pref *models.NotificationPreference, event enums.NotificationEvent) bool {
	if pref == nil {
		return true
	}
	if !pref.Enabled {
		return false
	}
	switch event {
	case enums.NotificationEventOrderPaid, enums.NotificationEventPaymentFailed:
		return pref.PaymentUpdates
	default:
		return pref.OrderUpdates
	}
}
