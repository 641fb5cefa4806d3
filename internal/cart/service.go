package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threepillars/storefront-backend/pkg/db/models"
	"github.com/threepillars/storefront-backend/pkg/enums"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
	"github.com/threepillars/storefront-backend/pkg/logger"
	"github.com/threepillars/storefront-backend/pkg/types"
)

// TTL is the sliding cart lifetime; every mutation pushes expiry out again.
const TTL = 30 * 24 * time.Hour

type repository interface {
	FindActive(ctx context.Context, tenantID uuid.UUID, identity Identity, now time.Time) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	Save(ctx context.Context, cart *models.Cart) error
	UpsertItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	RekeyToUser(ctx context.Context, tenantID uuid.UUID, sessionID string, userID uuid.UUID) error
}

type productFinder interface {
	FindByID(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
}

// ShippingInput sets the cart's delivery parameters in one call.
type ShippingInput struct {
	Address        *types.Address
	DeliveryMethod *enums.DeliveryMethod
	PickupPoint    *types.PickupPoint
}

// Service is the cart engine. All mutations recompute totals and slide the
// expiry window.
type Service interface {
	Get(ctx context.Context, tenantID uuid.UUID, identity Identity) (*models.Cart, error)
	AddItem(ctx context.Context, tenantID uuid.UUID, identity Identity, productID uuid.UUID, quantity int) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, tenantID uuid.UUID, identity Identity, productID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, tenantID uuid.UUID, identity Identity, productID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, tenantID uuid.UUID, identity Identity) (*models.Cart, error)
	SetShipping(ctx context.Context, tenantID uuid.UUID, identity Identity, input ShippingInput) (*models.Cart, error)
	ApplyDiscount(ctx context.Context, tenantID uuid.UUID, identity Identity, code string) (*models.Cart, error)
	RekeyToUser(ctx context.Context, tenantID uuid.UUID, sessionID string, userID uuid.UUID) error
}

type service struct {
	repo      repository
	products  productFinder
	discounts DiscountResolver
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the cart service.
func NewService(repo repository, products productFinder, discounts DiscountResolver, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder is required")
	}
	if discounts == nil {
		return nil, fmt.Errorf("discount resolver is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo:      repo,
		products:  products,
		discounts: discounts,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, tenantID uuid.UUID, identity Identity) (*models.Cart, error) {
	return s.loadOrCreate(ctx, tenantID, identity)
}

func (s *service) AddItem(ctx context.Context, tenantID uuid.UUID, identity Identity, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.sellableProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.loadOrCreate(ctx, tenantID, identity)
	if err != nil {
		return nil, err
	}

	newQty := quantity
	var existing *models.CartItem
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			existing = &cart.Items[i]
			newQty += existing.Quantity
			break
		}
	}

	if product.TrackInventory && newQty > product.StockQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for requested quantity").
			WithDetails(map[string]any{
				"product_id": productID.String(),
				"requested":  newQty,
				"available":  product.StockQuantity,
			})
	}

	item := models.CartItem{
		CartID:       cart.ID,
		ProductID:    product.ID,
		ProductName:  product.Name,
		ProductImage: product.Image,
		ProductSKU:   product.SKU,
		Price:        product.Price,
		Quantity:     newQty,
		Subtotal:     product.Price.Mul(decimal.NewFromInt(int64(newQty))).Round(2),
	}
	if existing != nil {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
	} else {
		item.ID = uuid.New()
	}
	if err := s.repo.UpsertItem(ctx, &item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart item")
	}

	return s.refresh(ctx, tenantID, identity)
}

func (s *service) UpdateItemQuantity(ctx context.Context, tenantID uuid.UUID, identity Identity, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, tenantID, identity, productID)
	}

	cart, err := s.requireCart(ctx, tenantID, identity)
	if err != nil {
		return nil, err
	}

	var existing *models.CartItem
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			existing = &cart.Items[i]
			break
		}
	}
	if existing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}

	product, err := s.sellableProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if product.TrackInventory && quantity > product.StockQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for requested quantity").
			WithDetails(map[string]any{
				"product_id": productID.String(),
				"requested":  quantity,
				"available":  product.StockQuantity,
			})
	}

	existing.Quantity = quantity
	existing.Price = product.Price
	existing.Subtotal = product.Price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	if err := s.repo.UpsertItem(ctx, existing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart item")
	}

	return s.refresh(ctx, tenantID, identity)
}

func (s *service) RemoveItem(ctx context.Context, tenantID uuid.UUID, identity Identity, productID uuid.UUID) (*models.Cart, error) {
	cart, err := s.requireCart(ctx, tenantID, identity)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, cart.ID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart item")
	}
	return s.refresh(ctx, tenantID, identity)
}

func (s *service) Clear(ctx context.Context, tenantID uuid.UUID, identity Identity) (*models.Cart, error) {
	cart, err := s.requireCart(ctx, tenantID, identity)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItems(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	cart.DiscountCode = nil
	cart.DiscountAmount = decimal.Zero
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart")
	}
	return s.refresh(ctx, tenantID, identity)
}

func (s *service) SetShipping(ctx context.Context, tenantID uuid.UUID, identity Identity, input ShippingInput) (*models.Cart, error) {
	cart, err := s.loadOrCreate(ctx, tenantID, identity)
	if err != nil {
		return nil, err
	}

	if input.DeliveryMethod != nil {
		if !input.DeliveryMethod.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid delivery method %q", *input.DeliveryMethod)
		}
		cart.DeliveryMethod = input.DeliveryMethod
	}
	if input.Address != nil {
		normalized := input.Address.Normalized()
		cart.ShippingAddress = &normalized
	}
	if input.PickupPoint != nil {
		cart.PickupPoint = input.PickupPoint
	}
	if cart.DeliveryMethod != nil && *cart.DeliveryMethod == enums.DeliveryMethodPudo && cart.PickupPoint == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup point is required for pudo delivery")
	}

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart shipping")
	}
	return s.refresh(ctx, tenantID, identity)
}

func (s *service) ApplyDiscount(ctx context.Context, tenantID uuid.UUID, identity Identity, code string) (*models.Cart, error) {
	cart, err := s.requireCart(ctx, tenantID, identity)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeCartEmpty, "cannot discount an empty cart")
	}

	subtotal := ComputeTotals(cart.Items, cart.DeliveryMethod, decimal.Zero).Subtotal
	amount, err := s.discounts.Resolve(ctx, tenantID, code, subtotal)
	if err != nil {
		return nil, err
	}

	cart.DiscountCode = &code
	cart.DiscountAmount = amount
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart discount")
	}
	return s.refresh(ctx, tenantID, identity)
}

func (s *service) RekeyToUser(ctx context.Context, tenantID uuid.UUID, sessionID string, userID uuid.UUID) error {
	if sessionID == "" || userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id and user id are required")
	}
	if err := s.repo.RekeyToUser(ctx, tenantID, sessionID, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rekeying cart")
	}
	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "session cart adopted by user")
	return nil
}

func (s *service) sellableProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, tenantID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if product == nil || product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found").
			WithDetails(map[string]any{"product_id": productID.String()})
	}
	if product.TrackInventory && (!product.InStock || product.StockQuantity <= 0) {
		return nil, pkgerrors.New(pkgerrors.CodeOutOfStock, "product is out of stock").
			WithDetails(map[string]any{"product_id": productID.String()})
	}
	return product, nil
}

func (s *service) loadOrCreate(ctx context.Context, tenantID uuid.UUID, identity Identity) (*models.Cart, error) {
	if !identity.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}

	cart, err := s.repo.FindActive(ctx, tenantID, identity, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if cart != nil {
		return cart, nil
	}

	cart = &models.Cart{
		ID:             uuid.New(),
		TenantID:       tenantID,
		UserID:         identity.UserID,
		SessionID:      identity.SessionID,
		Subtotal:       decimal.Zero,
		ShippingCost:   decimal.Zero,
		TaxAmount:      decimal.Zero,
		DiscountAmount: decimal.Zero,
		Total:          decimal.Zero,
		Currency:       enums.CurrencyZAR,
		ExpiresAt:      s.now().Add(TTL),
	}
	if err := s.repo.Create(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating cart")
	}
	return cart, nil
}

func (s *service) requireCart(ctx context.Context, tenantID uuid.UUID, identity Identity) (*models.Cart, error) {
	if !identity.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}
	cart, err := s.repo.FindActive(ctx, tenantID, identity, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeCartNotFound, "cart not found")
	}
	return cart, nil
}

// refresh reloads the cart, recomputes every denormalized money column and
// slides the expiry window.
func (s *service) refresh(ctx context.Context, tenantID uuid.UUID, identity Identity) (*models.Cart, error) {
	cart, err := s.repo.FindActive(ctx, tenantID, identity, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading cart")
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeCartNotFound, "cart not found")
	}

	totals := ComputeTotals(cart.Items, cart.DeliveryMethod, cart.DiscountAmount)
	cart.Subtotal = totals.Subtotal
	cart.ShippingCost = totals.Shipping
	cart.TaxAmount = totals.Tax
	cart.DiscountAmount = totals.Discount
	cart.Total = totals.Total
	cart.ExpiresAt = s.now().Add(TTL)

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart totals")
	}
	return cart, nil
}
