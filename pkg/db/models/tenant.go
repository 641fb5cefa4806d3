package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/threepillars/storefront-backend/pkg/enums"
)

// Tenant is a company storefront. All commerce rows hang off a tenant id.
type Tenant struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug      string             `gorm:"column:slug;not null;uniqueIndex"`
	Name      string             `gorm:"column:name;not null"`
	Email     string             `gorm:"column:email"`
	Phone     string             `gorm:"column:phone"`
	Status    enums.TenantStatus `gorm:"column:status;not null;default:'active'"`
	Currency  enums.Currency     `gorm:"column:currency;not null;default:'ZAR'"`
	Timezone  string             `gorm:"column:timezone;not null;default:'Africa/Johannesburg'"`
	OwnerID   uuid.UUID          `gorm:"column:owner_id;type:uuid;not null;index"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Tenant) TableName() string {
	return "tenants"
}

// TenantMembership links a user to a tenant they can act for.
type TenantMembership struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:idx_tenant_memberships_tenant_user"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_tenant_memberships_tenant_user"`
	Role      string    `gorm:"column:role;not null;default:'member'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (TenantMembership) TableName() string {
	return "tenant_memberships"
}
