package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threepillars/storefront-backend/pkg/db/models"
)

// Repository handles cart persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to cart operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func identityScope(query *gorm.DB, identity Identity) *gorm.DB {
	if identity.UserID != nil && *identity.UserID != uuid.Nil {
		return query.Where("user_id = ?", *identity.UserID)
	}
	return query.Where("session_id = ?", *identity.SessionID)
}

// FindActive loads the live cart for the identity, items included. Expired
// carts are invisible here; GetOrCreate replaces them.
func (r *Repository) FindActive(ctx context.Context, tenantID uuid.UUID, identity Identity, now time.Time) (*models.Cart, error) {
	var cart models.Cart
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ?", tenantID).
		Where("expires_at > ?", now)
	if err := identityScope(query, identity).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// Create persists a fresh cart row.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

// Save writes the cart's denormalized columns.
func (r *Repository) Save(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).
		Omit("Items").
		Save(cart).Error
}

// UpsertItem inserts or replaces one line on the cart.
func (r *Repository) UpsertItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// DeleteItem removes one product's line from the cart.
func (r *Repository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{}).Error
}

// DeleteItems clears every line from the cart.
func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// Delete removes the cart row and, via FK cascade, its items.
func (r *Repository) Delete(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", cartID).
		Delete(&models.Cart{}).Error
}

// DeleteExpired removes carts whose expiry passed before the cutoff,
// items first. Returns the number of carts removed.
func (r *Repository) DeleteExpired(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := tx
	if conn == nil {
		conn = r.db
	}
	conn = conn.WithContext(ctx)

	if err := conn.
		Where("cart_id IN (?)", conn.Session(&gorm.Session{NewDB: true}).
			Model(&models.Cart{}).Select("id").Where("expires_at < ?", cutoff)).
		Delete(&models.CartItem{}).Error; err != nil {
		return 0, err
	}

	result := conn.Where("expires_at < ?", cutoff).Delete(&models.Cart{})
	return result.RowsAffected, result.Error
}

// RekeyToUser moves a session cart onto the user after login. Any prior cart
// the user held for the tenant is dropped; the session cart wins.
func (r *Repository) RekeyToUser(ctx context.Context, tenantID uuid.UUID, sessionID string, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sessionCart models.Cart
		err := tx.Where("tenant_id = ? AND session_id = ?", tenantID, sessionID).
			First(&sessionCart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		var existing models.Cart
		err = tx.Where("tenant_id = ? AND user_id = ?", tenantID, userID).
			First(&existing).Error
		if err == nil {
			if err := tx.Where("cart_id = ?", existing.ID).Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Model(&sessionCart).
			Updates(map[string]any{"user_id": userID, "session_id": nil}).Error
	})
}
