package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threepillars/storefront-backend/internal/cart"
	"github.com/threepillars/storefront-backend/pkg/db"
	"github.com/threepillars/storefront-backend/pkg/db/models"
	"github.com/threepillars/storefront-backend/pkg/enums"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
	"github.com/threepillars/storefront-backend/pkg/logger"
	"github.com/threepillars/storefront-backend/pkg/types"
)

type cartFinder interface {
	FindActive(ctx context.Context, tenantID uuid.UUID, identity cart.Identity, now time.Time) (*models.Cart, error)
}

type stockKeeper interface {
	FindByID(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
	DecrementStock(ctx context.Context, tx *gorm.DB, tenantID, productID uuid.UUID, qty int) (bool, error)
}

type notifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
}

// Customer is the buyer snapshot frozen onto the order.
type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// Input carries everything checkout needs beyond the cart itself. Shipping
// fields override what the cart already holds when set.
type Input struct {
	Customer        Customer
	ShippingAddress *types.Address
	DeliveryMethod  *enums.DeliveryMethod
	PickupPoint     *types.PickupPoint
	PaymentMethod   enums.PaymentMethod
	Notes           *string
}

// Service mints orders from carts. The order, its items, the stock
// decrements and the cart clearing commit or roll back as one unit.
type Service interface {
	CreateOrderFromCart(ctx context.Context, tenantID uuid.UUID, identity cart.Identity, input Input) (*models.Order, error)
}

type service struct {
	db       *db.Client
	repo     *Repository
	carts    cartFinder
	products stockKeeper
	notify   notifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the checkout orchestrator. notify may be nil.
func NewService(client *db.Client, repo *Repository, carts cartFinder, products stockKeeper, notify notifier, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("checkout repository is required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart finder is required")
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
		carts:    carts,
		products: products,
		notify:   notify,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) CreateOrderFromCart(ctx context.Context, tenantID uuid.UUID, identity cart.Identity, input Input) (*models.Order, error) {
	now := s.now()

	basket, err := s.carts.FindActive(ctx, tenantID, identity, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if basket == nil {
		return nil, pkgerrors.New(pkgerrors.CodeCartNotFound, "cart not found")
	}
	if len(basket.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeCartEmpty, "cart has no items")
	}

	// The order copies the cart's totals verbatim, so the delivery method
	// is frozen with them. A different method must go through the cart's
	// shipping update first, where the totals get recomputed.
	if input.DeliveryMethod != nil && *input.DeliveryMethod != cartDeliveryMethod(basket) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery method does not match the cart; update the cart shipping first").
			WithDetails(map[string]any{
				"cart_delivery_method":      string(cartDeliveryMethod(basket)),
				"requested_delivery_method": string(*input.DeliveryMethod),
			})
	}

	// Validation gate before the transaction. The conditional decrement
	// inside the transaction re-checks tracked lines, so a race here only
	// changes which error the caller sees, never the stock arithmetic.
	tracked := make(map[uuid.UUID]bool, len(basket.Items))
	for _, item := range basket.Items {
		isTracked, err := s.checkLine(ctx, tenantID, item)
		if err != nil {
			return nil, err
		}
		tracked[item.ProductID] = isTracked
	}

	order := s.buildOrder(basket, input)

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.repo.NextOrderNumber(ctx, tx, tenantID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocating order number")
		}
		order.OrderNumber = number

		for _, item := range basket.Items {
			if !tracked[item.ProductID] {
				continue
			}
			ok, err := s.products.DecrementStock(ctx, tx, tenantID, item.ProductID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrementing stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for requested quantity").
					WithDetails(map[string]any{
						"product_id": item.ProductID.String(),
						"requested":  item.Quantity,
					})
			}
		}

		if err := s.repo.CreateOrder(ctx, tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
		}
		if err := s.repo.ClearCart(ctx, tx, basket.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"order_number": order.OrderNumber,
		"total":        order.Total.StringFixed(2),
	})
	s.logg.Info(logCtx, "order created from cart")

	if s.notify != nil {
		s.notify.OrderCreated(ctx, order)
	}
	return order, nil
}

// checkLine validates availability for one cart line and reports whether the
// product tracks inventory. Untracked products never gate on stock and must
// not be decremented later.
func (s *service) checkLine(ctx context.Context, tenantID uuid.UUID, item models.CartItem) (bool, error) {
	product, err := s.products.FindByID(ctx, tenantID, item.ProductID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if product == nil || product.Status != enums.ProductStatusActive {
		return false, pkgerrors.New(pkgerrors.CodeProductNotFound, "product no longer available").
			WithDetails(map[string]any{"product_id": item.ProductID.String()})
	}
	if !product.TrackInventory {
		return false, nil
	}
	if !product.InStock || product.StockQuantity <= 0 {
		return true, pkgerrors.New(pkgerrors.CodeOutOfStock, "product is out of stock").
			WithDetails(map[string]any{"product_id": item.ProductID.String()})
	}
	if item.Quantity > product.StockQuantity {
		return true, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for requested quantity").
			WithDetails(map[string]any{
				"product_id": item.ProductID.String(),
				"requested":  item.Quantity,
				"available":  product.StockQuantity,
			})
	}
	return true, nil
}

// cartDeliveryMethod is the method the cart's totals were priced against.
func cartDeliveryMethod(basket *models.Cart) enums.DeliveryMethod {
	if basket.DeliveryMethod != nil {
		return *basket.DeliveryMethod
	}
	return enums.DeliveryMethodStandard
}

// buildOrder copies the cart verbatim. Totals are not recomputed here; the
// cart engine already owns that math.
func (s *service) buildOrder(basket *models.Cart, input Input) *models.Order {
	order := &models.Order{
		ID:         uuid.New(),
		TenantID:   basket.TenantID,
		CustomerID: basket.UserID,
		SessionID:  basket.SessionID,

		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodYoco,

		Subtotal:       basket.Subtotal,
		ShippingCost:   basket.ShippingCost,
		TaxAmount:      basket.TaxAmount,
		DiscountAmount: basket.DiscountAmount,
		Total:          basket.Total,
		Currency:       basket.Currency,

		CustomerFirstName: input.Customer.FirstName,
		CustomerLastName:  input.Customer.LastName,
		CustomerEmail:     input.Customer.Email,
		CustomerPhone:     input.Customer.Phone,

		ShippingAddress: basket.ShippingAddress,
		PickupPoint:     basket.PickupPoint,
		Notes:           input.Notes,
	}

	if input.PaymentMethod.IsValid() {
		order.PaymentMethod = input.PaymentMethod
	}
	order.DeliveryMethod = cartDeliveryMethod(basket)
	if input.ShippingAddress != nil {
		normalized := input.ShippingAddress.Normalized()
		order.ShippingAddress = &normalized
	}
	if input.PickupPoint != nil {
		order.PickupPoint = input.PickupPoint
	}

	order.Items = make([]models.OrderItem, 0, len(basket.Items))
	for _, line := range basket.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:           uuid.New(),
			OrderID:      order.ID,
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			ProductImage: line.ProductImage,
			ProductSKU:   line.ProductSKU,
			Price:        line.Price,
			Quantity:     line.Quantity,
			Subtotal:     line.Subtotal,
		})
	}
	return order
}
