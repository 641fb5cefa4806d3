package yoco

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threepillars/storefront-backend/internal/integrations"
	"github.com/threepillars/storefront-backend/pkg/db/models"
	"github.com/threepillars/storefront-backend/pkg/enums"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
	"github.com/threepillars/storefront-backend/pkg/logger"
	"github.com/threepillars/storefront-backend/pkg/metrics"
)

const idempotencyScope = "yoco"

// Webhook replays can arrive days later; the dedup window covers Yoco's
// retry schedule with room to spare.
const idempotencyTTL = 24 * time.Hour

type checkoutCreator interface {
	CreateCheckout(ctx context.Context, secretKey string, req CheckoutRequest) (*CheckoutResponse, error)
}

type orderStore interface {
	FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
	FindByGatewayCheckoutID(ctx context.Context, checkoutID string) (*models.Order, error)
	Save(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

type paidMarker interface {
	MarkPaid(ctx context.Context, order *models.Order, gatewayPaymentID, transactionID *string) error
}

type credentialSource interface {
	Yoco(ctx context.Context, tenantID uuid.UUID) (*integrations.YocoCredentials, error)
}

type idempotencyStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(ctx context.Context, keys ...string) error
}

// Session is the caller-facing result of opening a checkout.
type Session struct {
	CheckoutID  string `json:"checkout_id"`
	RedirectURL string `json:"redirect_url"`
	PublicKey   string `json:"public_key,omitempty"`
}

// PaymentState reports where an order stands with the gateway.
type PaymentState struct {
	OrderID           uuid.UUID  `json:"order_id"`
	OrderNumber       string     `json:"order_number"`
	Status            string     `json:"status"`
	PaymentStatus     string     `json:"payment_status"`
	GatewayCheckoutID *string    `json:"gateway_checkout_id,omitempty"`
	GatewayPaymentID  *string    `json:"gateway_payment_id,omitempty"`
	TransactionID     *string    `json:"transaction_id,omitempty"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
}

// Service is the Yoco gateway adapter: it opens hosted checkout sessions and
// settles orders from verified webhooks.
type Service interface {
	CreateCheckoutSession(ctx context.Context, tenantID, orderID uuid.UUID, successURL, cancelURL string) (*Session, error)
	PaymentStatus(ctx context.Context, tenantID, orderID uuid.UUID) (*PaymentState, error)
	HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) error
}

type service struct {
	client  checkoutCreator
	store   orderStore
	marker  paidMarker
	creds   credentialSource
	idem    idempotencyStore
	webhook *metrics.WebhookMetrics
	logg    *logger.Logger
}

// NewService builds the gateway adapter. webhook metrics may be nil.
func NewService(client checkoutCreator, store orderStore, marker paidMarker, creds credentialSource, idem idempotencyStore, webhook *metrics.WebhookMetrics, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("yoco client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("order store is required")
	}
	if marker == nil {
		return nil, fmt.Errorf("order lifecycle is required")
	}
	if creds == nil {
		return nil, fmt.Errorf("credential resolver is required")
	}
	if idem == nil {
		return nil, fmt.Errorf("idempotency store is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		client:  client,
		store:   store,
		marker:  marker,
		creds:   creds,
		idem:    idem,
		webhook: webhook,
		logg:    logg,
	}, nil
}

func (s *service) CreateCheckoutSession(ctx context.Context, tenantID, orderID uuid.UUID, successURL, cancelURL string) (*Session, error) {
	order, err := s.store.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "checkout sessions require a pending order, got %s", order.Status)
	}

	creds, err := s.creds.Yoco(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.CreateCheckout(ctx, creds.SecretKey, CheckoutRequest{
		Amount:     minorUnits(order),
		Currency:   order.Currency.String(),
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Metadata: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"tenant_id":    order.TenantID.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating yoco checkout")
	}

	// The session id is only written after the gateway call succeeds, so a
	// timeout never leaves a half-updated order behind.
	order.GatewayCheckoutID = &resp.ID
	if err := s.store.Save(ctx, nil, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving checkout session id")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "yoco checkout session created")
	return &Session{
		CheckoutID:  resp.ID,
		RedirectURL: resp.RedirectURL,
		PublicKey:   creds.PublicKey,
	}, nil
}

// PaymentStatus surfaces the gateway state recorded on the order. It never
// calls out to the gateway; webhooks are the source of truth.
func (s *service) PaymentStatus(ctx context.Context, tenantID, orderID uuid.UUID) (*PaymentState, error) {
	order, err := s.store.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
	}
	return &PaymentState{
		OrderID:           order.ID,
		OrderNumber:       order.OrderNumber,
		Status:            order.Status.String(),
		PaymentStatus:     order.PaymentStatus.String(),
		GatewayCheckoutID: order.GatewayCheckoutID,
		GatewayPaymentID:  order.GatewayPaymentID,
		TransactionID:     order.TransactionID,
		PaidAt:            order.PaidAt,
	}, nil
}

func (s *service) HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) error {
	event, err := ParseEvent(rawBody)
	if err != nil || event.ID == "" {
		s.count("unknown", "malformed")
		return pkgerrors.New(pkgerrors.CodeValidation, "malformed webhook payload")
	}

	checkoutID := event.Payload.Metadata.CheckoutID
	if checkoutID == "" {
		s.count(event.Type, "malformed")
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook payload missing checkout id")
	}

	order, err := s.store.FindByGatewayCheckoutID(ctx, checkoutID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving webhook order")
	}
	if order == nil {
		s.count(event.Type, "unknown_order")
		return pkgerrors.New(pkgerrors.CodeOrderNotFound, "no order for checkout session")
	}

	// Signature verification always uses the order's tenant's secret, even
	// when the session was created with platform fallback credentials.
	creds, err := s.creds.Yoco(ctx, order.TenantID)
	if err != nil {
		return err
	}
	if !VerifySignature(rawBody, signatureHeader, creds.WebhookSecret) {
		s.count(event.Type, "invalid_signature")
		return pkgerrors.New(pkgerrors.CodeWebhookVerification, "webhook signature verification failed")
	}

	key := s.idem.IdempotencyKey(idempotencyScope, event.ID)
	fresh, err := s.idem.SetNX(ctx, key, order.ID.String(), idempotencyTTL)
	if err != nil {
		// Redis being down must not drop payments; the state machine still
		// rejects double processing.
		s.logg.Warn(ctx, "webhook dedup store unavailable, continuing without dedup")
	} else if !fresh {
		s.count(event.Type, "duplicate")
		return nil
	}

	if err := s.process(ctx, event, order); err != nil {
		if delErr := s.idem.Del(ctx, key); delErr != nil {
			s.logg.Warn(ctx, "failed to release webhook idempotency key")
		}
		return err
	}
	s.count(event.Type, "processed")
	return nil
}

func (s *service) process(ctx context.Context, event *Event, order *models.Order) error {
	switch event.Type {
	case EventPaymentSucceeded:
		if order.Status != enums.OrderStatusPending {
			s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "webhook replay for settled order ignored")
			return nil
		}
		if event.Payload.Amount != minorUnits(order) {
			return pkgerrors.New(pkgerrors.CodeAmountMismatch, "webhook amount does not match order total").
				WithDetails(map[string]any{
					"webhook_amount": event.Payload.Amount,
					"order_amount":   minorUnits(order),
				})
		}
		paymentID := event.Payload.ID
		return s.marker.MarkPaid(ctx, order, &paymentID, nil)

	case EventPaymentFailed:
		order.PaymentStatus = enums.PaymentStatusFailed
		if err := s.store.Save(ctx, nil, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording failed payment")
		}
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "payment failed for order")
		return nil

	default:
		s.logg.Info(ctx, "ignoring unhandled yoco event type "+event.Type)
		return nil
	}
}

func (s *service) count(event, outcome string) {
	if s.webhook != nil {
		s.webhook.Inc(event, outcome)
	}
}

// minorUnits converts the order total to integer cents, the representation
// the gateway works in.
func minorUnits(order *models.Order) int64 {
	return order.Total.Shift(2).IntPart()
}
