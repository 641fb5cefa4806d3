package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threepillars/storefront-backend/pkg/enums"
	"github.com/threepillars/storefront-backend/pkg/types"
)

// Cart is a live basket keyed by tenant plus either a user or an anonymous
// session. Totals are denormalized and recomputed on every mutation.
type Cart struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID        uuid.UUID             `gorm:"column:tenant_id;type:uuid;not null;index" json:"tenant_id"`
	UserID          *uuid.UUID            `gorm:"column:user_id;type:uuid;index" json:"user_id,omitempty"`
	SessionID       *string               `gorm:"column:session_id;index" json:"-"`
	Subtotal        decimal.Decimal       `gorm:"column:subtotal;type:numeric(10,2);not null" json:"subtotal"`
	ShippingCost    decimal.Decimal       `gorm:"column:shipping_cost;type:numeric(10,2);not null" json:"shipping_cost"`
	TaxAmount       decimal.Decimal       `gorm:"column:tax_amount;type:numeric(10,2);not null" json:"tax_amount"`
	DiscountAmount  decimal.Decimal       `gorm:"column:discount_amount;type:numeric(10,2);not null" json:"discount_amount"`
	Total           decimal.Decimal       `gorm:"column:total;type:numeric(10,2);not null" json:"total"`
	DiscountCode    *string               `gorm:"column:discount_code" json:"discount_code,omitempty"`
	DeliveryMethod  *enums.DeliveryMethod `gorm:"column:delivery_method" json:"delivery_method,omitempty"`
	ShippingAddress *types.Address        `gorm:"column:shipping_address;type:jsonb;serializer:json" json:"shipping_address,omitempty"`
	PickupPoint     *types.PickupPoint    `gorm:"column:pickup_point;type:jsonb;serializer:json" json:"pickup_point,omitempty"`
	Currency        enums.Currency        `gorm:"column:currency;not null;default:'ZAR'" json:"currency"`
	ExpiresAt       time.Time             `gorm:"column:expires_at;not null;index" json:"expires_at"`
	Items           []CartItem            `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem snapshots the product at add-to-cart time.
type CartItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CartID       uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index;uniqueIndex:idx_cart_items_cart_product" json:"cart_id"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product" json:"product_id"`
	ProductName  string          `gorm:"column:product_name;not null" json:"product_name"`
	ProductImage string          `gorm:"column:product_image" json:"product_image"`
	ProductSKU   *string         `gorm:"column:product_sku" json:"product_sku,omitempty"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Quantity     int             `gorm:"column:quantity;not null" json:"quantity"`
	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null" json:"subtotal"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
