package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/threepillars/storefront-backend/pkg/db/models"
)

const orderNumberPrefix = "ORD"

// Repository covers the writes that must share the checkout transaction.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// NextOrderNumber allocates the next ORD-YYYY-NNNN for the tenant. The tail
// row is locked on postgres so concurrent checkouts cannot mint duplicates;
// the unique index on order_number backstops everything else.
func (r *Repository) NextOrderNumber(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, now time.Time) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", orderNumberPrefix, now.Year())

	q := tx.WithContext(ctx).
		Model(&models.Order{}).
		Where("tenant_id = ? AND order_number LIKE ?", tenantID, prefix+"%").
		Order("order_number DESC").
		Limit(1)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var last models.Order
	seq := 0
	err := q.Take(&last).Error
	switch {
	case err == nil:
		tail := strings.TrimPrefix(last.OrderNumber, prefix)
		n, convErr := strconv.Atoi(tail)
		if convErr != nil {
			return "", fmt.Errorf("malformed order number %q: %w", last.OrderNumber, convErr)
		}
		seq = n
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first order of the year
	default:
		return "", err
	}

	return fmt.Sprintf("%s%04d", prefix, seq+1), nil
}

// CreateOrder persists the order together with its line items.
func (r *Repository) CreateOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

// ClearCart removes every line item and zeroes the denormalized totals,
// leaving the cart shell behind for the next session.
func (r *Repository) ClearCart(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	if err := tx.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"subtotal":        decimal.Zero,
			"shipping_cost":   decimal.Zero,
			"tax_amount":      decimal.Zero,
			"discount_amount": decimal.Zero,
			"total":           decimal.Zero,
			"discount_code":   nil,
		}).Error
}
