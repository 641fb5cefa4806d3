package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/threepillars/storefront-backend/pkg/db"
)

const cartsDDL = `
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
`

func newTestDB(t *testing.T) *db.Client {
	t.Helper()

	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(cartsDDL).Error)

	return db.FromConn(conn)
}
