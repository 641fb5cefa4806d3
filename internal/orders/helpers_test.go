package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/threepillars/storefront-backend/pkg/db"
	"github.com/threepillars/storefront-backend/pkg/db/models"
	"github.com/threepillars/storefront-backend/pkg/enums"
)

const ordersDDL = `
CREATE TABLE products (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	category_id TEXT,
	slug TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	sku TEXT,
	price NUMERIC NOT NULL DEFAULT 0,
	compare_at_price NUMERIC,
	image TEXT NOT NULL DEFAULT '',
	images TEXT,
	tags TEXT,
	status TEXT NOT NULL DEFAULT 'active',
	featured INTEGER NOT NULL DEFAULT 0,
	track_inventory INTEGER NOT NULL DEFAULT 1,
	in_stock INTEGER NOT NULL DEFAULT 1,
	stock_quantity INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE orders (
	id TEXT PRIMARY KEY,
	order_number TEXT NOT NULL UNIQUE,
	tenant_id TEXT NOT NULL,
	customer_id TEXT,
	session_id TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	payment_status TEXT NOT NULL DEFAULT 'pending',
	payment_method TEXT NOT NULL DEFAULT 'yoco',
	subtotal NUMERIC NOT NULL DEFAULT 0,
	shipping_cost NUMERIC NOT NULL DEFAULT 0,
	tax_amount NUMERIC NOT NULL DEFAULT 0,
	discount_amount NUMERIC NOT NULL DEFAULT 0,
	total NUMERIC NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT 'ZAR',
	customer_first_name TEXT NOT NULL DEFAULT '',
	customer_last_name TEXT NOT NULL DEFAULT '',
	customer_email TEXT NOT NULL DEFAULT '',
	customer_phone TEXT NOT NULL DEFAULT '',
	delivery_method TEXT NOT NULL DEFAULT 'standard',
	shipping_address TEXT,
	pickup_point TEXT,
	courier TEXT,
	tracking_number TEXT,
	waybill_number TEXT,
	collection_code TEXT,
	estimated_delivery DATETIME,
	gateway_checkout_id TEXT,
	gateway_payment_id TEXT,
	transaction_id TEXT,
	notes TEXT,
	paid_at DATETIME,
	shipped_at DATETIME,
	delivered_at DATETIME,
	cancelled_at DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE order_items (
	id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL,
	product_id TEXT NOT NULL,
	product_name TEXT NOT NULL,
	product_image TEXT NOT NULL DEFAULT '',
	product_sku TEXT,
	price NUMERIC NOT NULL DEFAULT 0,
	quantity INTEGER NOT NULL DEFAULT 0,
	subtotal NUMERIC NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func newTestDB(t *testing.T) *db.Client {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(ordersDDL).Error)

	return db.FromConn(conn)
}

func seedProduct(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, stock int) models.Product {
	t.Helper()

	product := models.Product{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Slug:           "sku-" + uuid.NewString()[:8],
		Name:           "Buchu Extract",
		Price:          decimal.RequireFromString("50.00"),
		Status:         enums.ProductStatusActive,
		TrackInventory: true,
		InStock:        stock > 0,
		StockQuantity:  stock,
	}
	require.NoError(t, conn.Create(&product).Error)
	return product
}

func seedOrder(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, status enums.OrderStatus, items ...models.OrderItem) models.Order {
	t.Helper()

	order := models.Order{
		ID:             uuid.New(),
		OrderNumber:    "ORD-2026-" + uuid.NewString()[:4],
		TenantID:       tenantID,
		Status:         status,
		PaymentStatus:  enums.PaymentStatusPending,
		PaymentMethod:  enums.PaymentMethodYoco,
		Subtotal:       decimal.RequireFromString("100.00"),
		ShippingCost:   decimal.RequireFromString("50.00"),
		TaxAmount:      decimal.RequireFromString("15.00"),
		DiscountAmount: decimal.Zero,
		Total:          decimal.RequireFromString("165.00"),
		Currency:       enums.CurrencyZAR,
		DeliveryMethod: enums.DeliveryMethodStandard,
	}
	if status == enums.OrderStatusPaid || status == enums.OrderStatusShipped || status == enums.OrderStatusDelivered {
		order.PaymentStatus = enums.PaymentStatusCompleted
	}
	for i := range items {
		items[i].OrderID = order.ID
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	order.Items = items
	require.NoError(t, conn.Create(&order).Error)
	return order
}

func lineFor(product models.Product, qty int) models.OrderItem {
	return models.OrderItem{
		ID:          uuid.New(),
		ProductID:   product.ID,
		ProductName: product.Name,
		Price:       product.Price,
		Quantity:    qty,
		Subtotal:    product.Price.Mul(decimal.NewFromInt(int64(qty))),
	}
}
