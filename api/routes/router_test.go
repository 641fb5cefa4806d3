package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	cartsvc "github.com/threepillars/storefront-backend/internal/cart"
	"github.com/threepillars/storefront-backend/internal/catalog"
	checkoutsvc "github.com/threepillars/storefront-backend/internal/checkout"
	ordersvc "github.com/threepillars/storefront-backend/internal/orders"
	"github.com/threepillars/storefront-backend/internal/tenant"
	pkgauth "github.com/threepillars/storefront-backend/pkg/auth"
	"github.com/threepillars/storefront-backend/pkg/config"
	"github.com/threepillars/storefront-backend/pkg/db"
	"github.com/threepillars/storefront-backend/pkg/db/models"
	"github.com/threepillars/storefront-backend/pkg/enums"
	"github.com/threepillars/storefront-backend/pkg/logger"
	"github.com/threepillars/storefront-backend/pkg/types"
)

const routerDDL = `
CREATE TABLE tenants (
	id TEXT PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'active',
	currency TEXT NOT NULL DEFAULT 'ZAR',
	timezone TEXT NOT NULL DEFAULT 'Africa/Johannesburg',
	owner_id TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE tenant_memberships (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'member',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (tenant_id, user_id)
);

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

type routerHarness struct {
	handler http.Handler
	client  *db.Client
	cfg     *config.Config
}

func newRouterHarness(t *testing.T) *routerHarness {
	t.Helper()

	dsn := "file:routes_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(routerDDL).Error)

	client := db.FromConn(conn)
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT.Secret = "router-test-secret"

	resolver, err := tenant.NewResolver(tenant.NewRepository(conn), logg)
	require.NoError(t, err)

	catalogRepo := catalog.NewRepository(conn)
	catalogSvc, err := catalog.NewService(catalogRepo, logg)
	require.NoError(t, err)

	cartRepo := cartsvc.NewRepository(conn)
	cartService, err := cartsvc.NewService(cartRepo, catalogRepo, cartsvc.NewFixedAmountResolver(), logg)
	require.NoError(t, err)

	checkoutService, err := checkoutsvc.NewService(client, checkoutsvc.NewRepository(conn), cartRepo, catalogRepo, nil, logg)
	require.NoError(t, err)

	orderService, err := ordersvc.NewService(client, ordersvc.NewRepository(conn), catalogRepo, nil, logg)
	require.NoError(t, err)

	handler := NewRouter(Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       client,
		Tenants:  resolver,
		Catalog:  catalogSvc,
		Carts:    cartService,
		Checkout: checkoutService,
		Orders:   orderService,
	})

	return &routerHarness{handler: handler, client: client, cfg: cfg}
}

func (h *routerHarness) seedTenant(t *testing.T, ownerID uuid.UUID) models.Tenant {
	t.Helper()

	ten := models.Tenant{
		ID:      uuid.New(),
		Slug:    "store-" + uuid.NewString()[:8],
		Name:    "Karoo Trading",
		Status:  enums.TenantStatusActive,
		OwnerID: ownerID,
	}
	require.NoError(t, h.client.DB().Create(&ten).Error)
	return ten
}

func (h *routerHarness) seedProduct(t *testing.T, tenantID uuid.UUID, price string, stock int) models.Product {
	t.Helper()

	product := models.Product{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Slug:           "sku-" + uuid.NewString()[:8],
		Name:           "Rooibos Gift Tin",
		Price:          decimal.RequireFromString(price),
		Status:         enums.ProductStatusActive,
		TrackInventory: true,
		InStock:        stock > 0,
		StockQuantity:  stock,
	}
	require.NoError(t, h.client.DB().Create(&product).Error)
	return product
}

func (h *routerHarness) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()

	claims := pkgauth.AccessTokenClaims{UserID: userID}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.JWT.Secret))
	require.NoError(t, err)
	return signed
}

func (h *routerHarness) do(t *testing.T, method, target string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func decodeSuccess(t *testing.T, w *httptest.ResponseRecorder) types.SuccessEnvelope {
	t.Helper()

	var envelope types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	return envelope
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()

	var envelope types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	require.False(t, envelope.Success)
	return envelope
}

func TestHealthz(t *testing.T) {
	h := newRouterHarness(t)

	w := h.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeSuccess(t, w)
	data := envelope.Data.(map[string]any)
	assert.Equal(t, "ok", data["status"])
}

func TestListProductsWithoutTenantIsEmpty(t *testing.T) {
	h := newRouterHarness(t)

	w := h.do(t, http.MethodGet, "/api/v1/products", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeSuccess(t, w)
	data := envelope.Data.(map[string]any)
	assert.Empty(t, data["products"])
}

func TestListProductsWithTenantHeader(t *testing.T) {
	h := newRouterHarness(t)
	ten := h.seedTenant(t, uuid.New())
	h.seedProduct(t, ten.ID, "50.00", 10)

	w := h.do(t, http.MethodGet, "/api/v1/products", nil, map[string]string{
		"X-Company-Id": ten.ID.String(),
	})
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeSuccess(t, w)
	data := envelope.Data.(map[string]any)
	require.Len(t, data["products"], 1)
}

func TestStorefrontCartAndCheckoutFlow(t *testing.T) {
	h := newRouterHarness(t)
	ten := h.seedTenant(t, uuid.New())
	product := h.seedProduct(t, ten.ID, "50.00", 10)

	headers := map[string]string{
		"X-Company-Id": ten.ID.String(),
		"X-Session-Id": "sess-" + uuid.NewString()[:8],
	}

	w := h.do(t, http.MethodPost, "/api/v1/carts/items", map[string]any{
		"product_id": product.ID.String(),
		"quantity":   2,
	}, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	envelope := decodeSuccess(t, w)
	basket := envelope.Data.(map[string]any)
	assert.True(t, asDecimal(t, basket["total"]).Equal(decimal.RequireFromString("165")))

	w = h.do(t, http.MethodPost, "/api/v1/orders/create-from-cart", map[string]any{
		"customer": map[string]any{
			"first_name": "Sipho",
			"last_name":  "Nkosi",
			"email":      "sipho@example.com",
		},
	}, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	envelope = decodeSuccess(t, w)
	order := envelope.Data.(map[string]any)
	assert.Contains(t, order["order_number"], "ORD-")

	var stock int
	require.NoError(t, h.client.DB().
		Raw("SELECT stock_quantity FROM products WHERE id = ?", product.ID).
		Scan(&stock).Error)
	assert.Equal(t, 8, stock)
}

func TestOrdersRequireAuth(t *testing.T) {
	h := newRouterHarness(t)

	w := h.do(t, http.MethodGet, "/api/v1/orders", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrdersListForTenantOwner(t *testing.T) {
	h := newRouterHarness(t)
	owner := uuid.New()
	ten := h.seedTenant(t, owner)

	w := h.do(t, http.MethodGet, "/api/v1/orders", nil, map[string]string{
		"Authorization": "Bearer " + h.token(t, owner),
		"X-Company-Id":  ten.ID.String(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	envelope := decodeSuccess(t, w)
	data := envelope.Data.(map[string]any)
	assert.Empty(t, data["orders"])
}

func TestDirectOrderCreationRejected(t *testing.T) {
	h := newRouterHarness(t)
	owner := uuid.New()
	ten := h.seedTenant(t, owner)

	w := h.do(t, http.MethodPost, "/api/v1/orders", map[string]any{"anything": true}, map[string]string{
		"Authorization": "Bearer " + h.token(t, owner),
		"X-Company-Id":  ten.ID.String(),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	envelope := decodeError(t, w)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

// asDecimal accepts both quoted and bare json numbers.
func asDecimal(t *testing.T, v any) decimal.Decimal {
	t.Helper()

	switch value := v.(type) {
	case string:
		return decimal.RequireFromString(value)
	case float64:
		return decimal.NewFromFloat(value)
	default:
		t.Fatalf("unexpected numeric type %T", v)
		return decimal.Zero
	}
}
