package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/threepillars/storefront-backend/pkg/enums"
)

// Device is a push token registered by a customer's client.
type Device struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID   uuid.UUID            `gorm:"column:tenant_id;type:uuid;not null;index" json:"tenant_id"`
	UserID     uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Token      string               `gorm:"column:token;not null;uniqueIndex" json:"token"`
	Platform   enums.DevicePlatform `gorm:"column:platform;not null" json:"platform"`
	IsActive   bool                 `gorm:"column:is_active;not null;default:true" json:"is_active"`
	LastSeenAt *time.Time           `gorm:"column:last_seen_at" json:"last_seen_at,omitempty"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Device) TableName() string {
	return "devices"
}

// NotificationPreference gates which order events reach a user's devices.
type NotificationPreference struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID       uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:idx_notification_prefs_tenant_user" json:"tenant_id"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_notification_prefs_tenant_user" json:"user_id"`
	Enabled        bool      `gorm:"column:enabled;not null;default:true" json:"enabled"`
	OrderUpdates   bool      `gorm:"column:order_updates;not null;default:true" json:"order_updates"`
	PaymentUpdates bool      `gorm:"column:payment_updates;not null;default:true" json:"payment_updates"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (NotificationPreference) TableName() string {
	return "notification_preferences"
}

// NotificationMessage records a single push attempt for audit.
type NotificationMessage struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID               `gorm:"column:tenant_id;type:uuid;not null;index" json:"tenant_id"`
	UserID    uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	DeviceID  *uuid.UUID              `gorm:"column:device_id;type:uuid" json:"device_id,omitempty"`
	Event     enums.NotificationEvent `gorm:"column:event;not null" json:"event"`
	Title     string                  `gorm:"column:title;not null" json:"title"`
	Body      string                  `gorm:"column:body" json:"body"`
	Delivered bool                    `gorm:"column:delivered;not null;default:false" json:"delivered"`
	Error     *string                 `gorm:"column:error" json:"error,omitempty"`
	SentAt    time.Time               `gorm:"column:sent_at;autoCreateTime" json:"sent_at"`
}

func (NotificationMessage) TableName() string {
	return "notification_messages"
}
