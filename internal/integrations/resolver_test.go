package integrations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/threepillars/storefront-backend/pkg/config"
	"github.com/threepillars/storefront-backend/pkg/db/models"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
)

const settingsDDL = `
CREATE TABLE tenant_integration_settings (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL UNIQUE,
	yoco_secret_key TEXT,
	yoco_public_key TEXT,
	yoco_webhook_secret TEXT,
	yoco_sandbox_mode INTEGER NOT NULL DEFAULT 1,
	courier_api_key TEXT,
	courier_api_secret TEXT,
	courier_account_number TEXT,
	courier_sandbox_mode INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func newTestResolver(t *testing.T, yoco config.YocoConfig, courier config.CourierConfig) (*Resolver, *gorm.DB) {
	t.Helper()

	dsn := "file:integrations_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(settingsDDL).Error)

	resolver, err := NewResolver(conn, yoco, courier)
	require.NoError(t, err)
	return resolver, conn
}

func strptr(s string) *string { return &s }

func TestYocoFallsBackToPlatformDefaults(t *testing.T) {
	resolver, _ := newTestResolver(t,
		config.YocoConfig{SecretKey: "sk_platform", WebhookSecret: "whsec_platform", SandboxMode: true},
		config.CourierConfig{})

	creds, err := resolver.Yoco(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "sk_platform", creds.SecretKey)
	assert.Equal(t, "whsec_platform", creds.WebhookSecret)
	assert.True(t, creds.SandboxMode)
}

func TestYocoPrefersTenantCredentials(t *testing.T) {
	resolver, conn := newTestResolver(t,
		config.YocoConfig{SecretKey: "sk_platform", WebhookSecret: "whsec_platform"},
		config.CourierConfig{})
	tenantID := uuid.New()

	require.NoError(t, conn.Create(&models.TenantIntegrationSettings{
		ID:              uuid.New(),
		TenantID:        tenantID,
		YocoSecretKey:   strptr("sk_tenant"),
		YocoSandboxMode: false,
	}).Error)

	creds, err := resolver.Yoco(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, "sk_tenant", creds.SecretKey)
	assert.False(t, creds.SandboxMode)
	// webhook secret still falls through to the platform value
	assert.Equal(t, "whsec_platform", creds.WebhookSecret)
}

func TestYocoUnconfigured(t *testing.T) {
	resolver, _ := newTestResolver(t, config.YocoConfig{}, config.CourierConfig{})

	_, err := resolver.Yoco(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeGatewayNotConfigured))
}

func TestCourierPrefersTenantCredentials(t *testing.T) {
	resolver, conn := newTestResolver(t,
		config.YocoConfig{},
		config.CourierConfig{APIKey: "key_platform", APISecret: "secret_platform", AccountNumber: "ACC-1"})
	tenantID := uuid.New()

	require.NoError(t, conn.Create(&models.TenantIntegrationSettings{
		ID:             uuid.New(),
		TenantID:       tenantID,
		CourierAPIKey:  strptr("key_tenant"),
		CourierAPISecret: strptr("secret_tenant"),
	}).Error)

	creds, err := resolver.Courier(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, "key_tenant", creds.APIKey)
	assert.Equal(t, "secret_tenant", creds.APISecret)
	assert.Equal(t, "ACC-1", creds.AccountNumber)
}

func TestCourierUnconfigured(t *testing.T) {
	resolver, _ := newTestResolver(t, config.YocoConfig{}, config.CourierConfig{APIKey: "key only"})

	_, err := resolver.Courier(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeCourierNotConfigured))
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	resolver, conn := newTestResolver(t, config.YocoConfig{}, config.CourierConfig{})
	tenantID := uuid.New()

	require.NoError(t, resolver.Upsert(context.Background(), &models.TenantIntegrationSettings{
		TenantID:      tenantID,
		YocoSecretKey: strptr("sk_first"),
	}))
	require.NoError(t, resolver.Upsert(context.Background(), &models.TenantIntegrationSettings{
		TenantID:      tenantID,
		YocoSecretKey: strptr("sk_second"),
	}))

	var count int64
	require.NoError(t, conn.Model(&models.TenantIntegrationSettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	creds, err := resolver.Yoco(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, "sk_second", creds.SecretKey)
}
