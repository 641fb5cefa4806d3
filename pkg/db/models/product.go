package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/threepillars/storefront-backend/pkg/enums"
)

// Product is a tenant-scoped catalog entry. Pricing is numeric(10,2); stock
// columns are only authoritative when TrackInventory is set.
type Product struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID       uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null;index;uniqueIndex:idx_products_tenant_slug" json:"tenant_id"`
	CategoryID     *uuid.UUID          `gorm:"column:category_id;type:uuid;index" json:"category_id,omitempty"`
	Slug           string              `gorm:"column:slug;not null;uniqueIndex:idx_products_tenant_slug" json:"slug"`
	Name           string              `gorm:"column:name;not null" json:"name"`
	Description    string              `gorm:"column:description" json:"description"`
	SKU            *string             `gorm:"column:sku" json:"sku,omitempty"`
	Price          decimal.Decimal     `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	CompareAtPrice *decimal.Decimal    `gorm:"column:compare_at_price;type:numeric(10,2)" json:"compare_at_price,omitempty"`
	Image          string              `gorm:"column:image" json:"image"`
	Images         pq.StringArray      `gorm:"column:images;type:text[]" json:"images"`
	Tags           pq.StringArray      `gorm:"column:tags;type:text[]" json:"tags"`
	Status         enums.ProductStatus `gorm:"column:status;not null;default:'active'" json:"status"`
	Featured       bool                `gorm:"column:featured;not null;default:false" json:"featured"`
	// No gorm default tags here: GORM drops zero-valued fields that carry
	// one from the INSERT, which would silently turn false into true.
	TrackInventory bool `gorm:"column:track_inventory;not null" json:"track_inventory"`
	InStock        bool `gorm:"column:in_stock;not null" json:"in_stock"`
	StockQuantity  int                 `gorm:"column:stock_quantity;not null;default:0" json:"stock_quantity"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// Category groups products inside one tenant's catalog.
type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index" json:"tenant_id"`
	Slug      string    `gorm:"column:slug;not null" json:"slug"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}
