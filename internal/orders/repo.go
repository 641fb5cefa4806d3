package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threepillars/storefront-backend/pkg/db/models"
	"github.com/threepillars/storefront-backend/pkg/enums"
	"github.com/threepillars/storefront-backend/pkg/pagination"
)

// Repository handles tenant-scoped order persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListFilter narrows an order listing.
type ListFilter struct {
	Status     *enums.OrderStatus
	CustomerID *uuid.UUID
}

// FindByID loads an order with its line items inside the tenant boundary.
func (r *Repository) FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND tenant_id = ?", orderID, tenantID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// FindByNumber loads an order by its human-facing number.
func (r *Repository) FindByNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ? AND tenant_id = ?", orderNumber, tenantID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// FindByGatewayCheckoutID resolves an order from a gateway checkout-session
// id. Webhooks carry no tenant header, so this lookup is deliberately global;
// the session id itself identifies the tenant.
func (r *Repository) FindByGatewayCheckoutID(ctx context.Context, checkoutID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("gateway_checkout_id = ?", checkoutID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// List returns orders newest-first using cursor pagination. The returned
// slice may hold one extra row so callers can detect the next page.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID)

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var results []models.Order
	if err := query.
		Preload("Items").
		Order("created_at desc").
		Order("id desc").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Save persists order columns. Items are never rewritten; they are frozen at
// checkout.
func (r *Repository) Save(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Omit("Items").Save(order).Error
}
