package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threepillars/storefront-backend/pkg/enums"
	"github.com/threepillars/storefront-backend/pkg/types"
)

// Order is the immutable record minted from a cart at checkout. Line items
// carry the cart's product snapshots; later catalog edits never touch them.
// Orders double as API payloads, so gorm and json tags live side by side.
type Order struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber string     `gorm:"column:order_number;not null;uniqueIndex" json:"order_number"`
	TenantID    uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index" json:"tenant_id"`
	CustomerID  *uuid.UUID `gorm:"column:customer_id;type:uuid;index" json:"customer_id,omitempty"`
	SessionID   *string    `gorm:"column:session_id" json:"-"`

	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'pending'" json:"status"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'" json:"payment_status"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null;default:'yoco'" json:"payment_method"`

	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null" json:"subtotal"`
	ShippingCost   decimal.Decimal `gorm:"column:shipping_cost;type:numeric(10,2);not null" json:"shipping_cost"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:numeric(10,2);not null" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(10,2);not null" json:"discount_amount"`
	Total          decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null" json:"total"`
	Currency       enums.Currency  `gorm:"column:currency;not null;default:'ZAR'" json:"currency"`

	CustomerFirstName string `gorm:"column:customer_first_name" json:"customer_first_name"`
	CustomerLastName  string `gorm:"column:customer_last_name" json:"customer_last_name"`
	CustomerEmail     string `gorm:"column:customer_email" json:"customer_email"`
	CustomerPhone     string `gorm:"column:customer_phone" json:"customer_phone"`

	DeliveryMethod    enums.DeliveryMethod `gorm:"column:delivery_method;not null;default:'standard'" json:"delivery_method"`
	ShippingAddress   *types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json" json:"shipping_address,omitempty"`
	PickupPoint       *types.PickupPoint   `gorm:"column:pickup_point;type:jsonb;serializer:json" json:"pickup_point,omitempty"`
	Courier           *types.CourierInfo   `gorm:"column:courier;type:jsonb;serializer:json" json:"courier,omitempty"`
	TrackingNumber    *string              `gorm:"column:tracking_number" json:"tracking_number,omitempty"`
	WaybillNumber     *string              `gorm:"column:waybill_number" json:"waybill_number,omitempty"`
	CollectionCode    *string              `gorm:"column:collection_code" json:"collection_code,omitempty"`
	EstimatedDelivery *time.Time           `gorm:"column:estimated_delivery" json:"estimated_delivery,omitempty"`

	GatewayCheckoutID *string `gorm:"column:gateway_checkout_id;index" json:"-"`
	GatewayPaymentID  *string `gorm:"column:gateway_payment_id" json:"-"`
	TransactionID     *string `gorm:"column:transaction_id" json:"transaction_id,omitempty"`

	Notes *string `gorm:"column:notes" json:"notes,omitempty"`

	PaidAt      *time.Time `gorm:"column:paid_at" json:"paid_at,omitempty"`
	ShippedAt   *time.Time `gorm:"column:shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	CancelledAt *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a frozen cart line copied at checkout.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	ProductName  string          `gorm:"column:product_name;not null" json:"product_name"`
	ProductImage string          `gorm:"column:product_image" json:"product_image"`
	ProductSKU   *string         `gorm:"column:product_sku" json:"product_sku,omitempty"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Quantity     int             `gorm:"column:quantity;not null" json:"quantity"`
	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null" json:"subtotal"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
