package checkout

import (
	"testing"
	"time"

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

const checkoutDDL = `
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

CREATE TABLE carts (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	user_id TEXT,
	session_id TEXT,
	subtotal NUMERIC NOT NULL DEFAULT 0,
	shipping_cost NUMERIC NOT NULL DEFAULT 0,
	tax_amount NUMERIC NOT NULL DEFAULT 0,
	discount_amount NUMERIC NOT NULL DEFAULT 0,
	total NUMERIC NOT NULL DEFAULT 0,
	discount_code TEXT,
	delivery_method TEXT,
	shipping_address TEXT,
	pickup_point TEXT,
	currency TEXT NOT NULL DEFAULT 'ZAR',
	expires_at DATETIME NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE cart_items (
	id TEXT PRIMARY KEY,
	cart_id TEXT NOT NULL,
	product_id TEXT NOT NULL,
	product_name TEXT NOT NULL,
	product_image TEXT NOT NULL DEFAULT '',
	product_sku TEXT,
	price NUMERIC NOT NULL DEFAULT 0,
	quantity INTEGER NOT NULL DEFAULT 0,
	subtotal NUMERIC NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (cart_id, product_id)
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

	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(checkoutDDL).Error)

	return db.FromConn(conn)
}

func seedProduct(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, price string, stock int) models.Product {
	t.Helper()

	product := models.Product{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Slug:           "sku-" + uuid.NewString()[:8],
		Name:           "Honeybush Loose Leaf",
		Price:          decimal.RequireFromString(price),
		Status:         enums.ProductStatusActive,
		TrackInventory: true,
		InStock:        stock > 0,
		StockQuantity:  stock,
	}
	require.NoError(t, conn.Create(&product).Error)
	return product
}

// seedUntrackedProduct is a product sold without inventory accounting, the
// kind a voucher or digital good uses. Stock stays at zero on purpose.
func seedUntrackedProduct(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, price string) models.Product {
	t.Helper()

	product := models.Product{
		ID:       uuid.New(),
		TenantID: tenantID,
		Slug:     "sku-" + uuid.NewString()[:8],
		Name:     "Digital Gift Card",
		Price:    decimal.RequireFromString(price),
		Status:   enums.ProductStatusActive,
		InStock:  true,
	}
	require.NoError(t, conn.Create(&product).Error)
	return product
}

func seedCart(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, sessionID string, products ...models.Product) models.Cart {
	t.Helper()

	method := enums.DeliveryMethodStandard
	basket := models.Cart{
		ID:             uuid.New(),
		TenantID:       tenantID,
		SessionID:      &sessionID,
		Currency:       enums.CurrencyZAR,
		DeliveryMethod: &method,
		ExpiresAt:      time.Now().Add(TTLBuffer),
	}

	subtotal := decimal.Zero
	for _, p := range products {
		line := models.CartItem{
			ID:          uuid.New(),
			CartID:      basket.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Price:       p.Price,
			Quantity:    2,
			Subtotal:    p.Price.Mul(decimal.NewFromInt(2)),
		}
		subtotal = subtotal.Add(line.Subtotal)
		basket.Items = append(basket.Items, line)
	}

	basket.Subtotal = subtotal
	basket.ShippingCost = decimal.NewFromInt(50)
	basket.TaxAmount = subtotal.Mul(decimal.RequireFromString("0.15")).Round(2)
	basket.Total = subtotal.Add(basket.ShippingCost).Add(basket.TaxAmount)
	require.NoError(t, conn.Create(&basket).Error)
	return basket
}

// TTLBuffer keeps seeded carts comfortably inside the active window.
const TTLBuffer = 24 * time.Hour
