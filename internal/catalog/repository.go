package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threepillars/storefront-backend/pkg/db/models"
	"github.com/threepillars/storefront-backend/pkg/pagination"
)

// Repository handles tenant-scoped catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to catalog operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListFilter narrows a catalog listing.
type ListFilter struct {
	CategoryID *uuid.UUID
	Featured   *bool
	Search     string
}

// FindByID loads a product inside the tenant boundary.
func (r *Repository) FindByID(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads a product by its tenant-scoped slug.
func (r *Repository) FindBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND slug = ?", tenantID, slug).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// List returns active products newest-first using cursor pagination. The
// returned slice may hold one extra row so callers can detect the next page.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, "active")

	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}
	if filter.Search != "" {
		query = query.Where("name LIKE ?", "%"+filter.Search+"%")
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

	var products []models.Product
	if err := query.
		Order("created_at desc").
		Order("id desc").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// DecrementStock conditionally reduces stock inside the caller's transaction.
// The guard rides in the WHERE clause so two concurrent checkouts can never
// both win the last unit. Returns false when stock was insufficient.
func (r *Repository) DecrementStock(ctx context.Context, tx *gorm.DB, tenantID, productID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, errors.New("quantity must be positive")
	}
	res := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND tenant_id = ? AND track_inventory = ? AND stock_quantity >= ?", productID, tenantID, true, qty).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", qty),
			"in_stock":       gorm.Expr("stock_quantity - ? > 0", qty),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RestoreStock returns units to the shelf and re-lists the product.
func (r *Repository) RestoreStock(ctx context.Context, tx *gorm.DB, tenantID, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return errors.New("quantity must be positive")
	}
	return tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND tenant_id = ? AND track_inventory = ?", productID, tenantID, true).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", qty),
			"in_stock":       true,
		}).Error
}
