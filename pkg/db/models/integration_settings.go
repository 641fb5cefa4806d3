package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantIntegrationSettings carries a tenant's gateway and courier
// credentials. Blank fields fall back to the platform defaults.
type TenantIntegrationSettings struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex"`

	YocoSecretKey     *string `gorm:"column:yoco_secret_key"`
	YocoPublicKey     *string `gorm:"column:yoco_public_key"`
	YocoWebhookSecret *string `gorm:"column:yoco_webhook_secret"`
	YocoSandboxMode   bool    `gorm:"column:yoco_sandbox_mode;not null;default:true"`

	CourierAPIKey        *string `gorm:"column:courier_api_key"`
	CourierAPISecret     *string `gorm:"column:courier_api_secret"`
	CourierAccountNumber *string `gorm:"column:courier_account_number"`
	CourierSandboxMode   bool    `gorm:"column:courier_sandbox_mode;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (TenantIntegrationSettings) TableName() string {
	return "tenant_integration_settings"
}
