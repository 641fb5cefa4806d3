package integrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threepillars/storefront-backend/pkg/config"
	"github.com/threepillars/storefront-backend/pkg/db/models"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
)

// YocoCredentials is the resolved gateway credential set for one tenant.
type YocoCredentials struct {
	SecretKey     string
	PublicKey     string
	WebhookSecret string
	SandboxMode   bool
}

// CourierCredentials is the resolved courier credential set for one tenant.
type CourierCredentials struct {
	APIKey        string
	APISecret     string
	AccountNumber string
	SandboxMode   bool
}

// Resolver answers which credentials a tenant uses for each integration.
// Tenant rows win field by field; blank fields fall back to the platform
// defaults from the environment.
type Resolver struct {
	db      *gorm.DB
	yoco    config.YocoConfig
	courier config.CourierConfig
}

func NewResolver(db *gorm.DB, yoco config.YocoConfig, courier config.CourierConfig) (*Resolver, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &Resolver{db: db, yoco: yoco, courier: courier}, nil
}

func (r *Resolver) settings(ctx context.Context, tenantID uuid.UUID) (*models.TenantIntegrationSettings, error) {
	var row models.TenantIntegrationSettings
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading integration settings")
	}
	return &row, nil
}

// Yoco resolves gateway credentials for a tenant. A missing secret key after
// fallback is a configuration error the caller must surface, not retry.
func (r *Resolver) Yoco(ctx context.Context, tenantID uuid.UUID) (*YocoCredentials, error) {
	creds := &YocoCredentials{
		SecretKey:     r.yoco.SecretKey,
		PublicKey:     r.yoco.PublicKey,
		WebhookSecret: r.yoco.WebhookSecret,
		SandboxMode:   r.yoco.SandboxMode,
	}

	row, err := r.settings(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if row != nil {
		if v := deref(row.YocoSecretKey); v != "" {
			creds.SecretKey = v
			creds.SandboxMode = row.YocoSandboxMode
		}
		if v := deref(row.YocoPublicKey); v != "" {
			creds.PublicKey = v
		}
		if v := deref(row.YocoWebhookSecret); v != "" {
			creds.WebhookSecret = v
		}
	}

	if creds.SecretKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayNotConfigured, "payment gateway is not configured for this store")
	}
	return creds, nil
}

// Courier resolves courier credentials for a tenant.
func (r *Resolver) Courier(ctx context.Context, tenantID uuid.UUID) (*CourierCredentials, error) {
	creds := &CourierCredentials{
		APIKey:        r.courier.APIKey,
		APISecret:     r.courier.APISecret,
		AccountNumber: r.courier.AccountNumber,
		SandboxMode:   r.courier.SandboxMode,
	}

	row, err := r.settings(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if row != nil {
		if v := deref(row.CourierAPIKey); v != "" {
			creds.APIKey = v
			creds.SandboxMode = row.CourierSandboxMode
		}
		if v := deref(row.CourierAPISecret); v != "" {
			creds.APISecret = v
		}
		if v := deref(row.CourierAccountNumber); v != "" {
			creds.AccountNumber = v
		}
	}

	if creds.APIKey == "" || creds.APISecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeCourierNotConfigured, "courier integration is not configured for this store")
	}
	return creds, nil
}

// Upsert stores a tenant's integration settings row.
func (r *Resolver) Upsert(ctx context.Context, row *models.TenantIntegrationSettings) error {
	existing, err := r.settings(ctx, row.TenantID)
	if err != nil {
		return err
	}
	if existing != nil {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
	} else if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving integration settings")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
