package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threepillars/storefront-backend/pkg/db/models"
)

// Repository handles device registrations, preferences and the delivery log.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ActiveDevices lists the devices a push should fan out to.
func (r *Repository) ActiveDevices(ctx context.Context, tenantID, userID uuid.UUID) ([]models.Device, error) {
	var devices []models.Device
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND is_active = ?", tenantID, userID, true).
		Order("created_at asc").
		Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// Preference loads the user's notification preference row, nil when the user
// never saved one. Absence means everything stays enabled.
func (r *Repository) Preference(ctx context.Context, tenantID, userID uuid.UUID) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		First(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

// UpsertPreference writes the user's preference row, replacing any previous
// one.
func (r *Repository) UpsertPreference(ctx context.Context, pref *models.NotificationPreference) error {
	existing, err := r.Preference(ctx, pref.TenantID, pref.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		pref.ID = existing.ID
		pref.CreatedAt = existing.CreatedAt
	} else if pref.ID == uuid.Nil {
		pref.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Save(pref).Error
}

// RegisterDevice records a push token, reactivating and re-homing it if the
// token is already known.
func (r *Repository) RegisterDevice(ctx context.Context, device *models.Device) error {
	var existing models.Device
	err := r.db.WithContext(ctx).
		Where("token = ?", device.Token).
		First(&existing).Error
	switch {
	case err == nil:
		device.ID = existing.ID
		device.CreatedAt = existing.CreatedAt
	case errors.Is(err, gorm.ErrRecordNotFound):
		if device.ID == uuid.Nil {
			device.ID = uuid.New()
		}
	default:
		return err
	}

	now := time.Now()
	device.IsActive = true
	device.LastSeenAt = &now
	return r.db.WithContext(ctx).Save(device).Error
}

// DeactivateDevice stops deliveries to a token without forgetting it.
func (r *Repository) DeactivateDevice(ctx context.Context, tenantID, userID uuid.UUID, token string) error {
	return r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("tenant_id = ? AND user_id = ? AND token = ?", tenantID, userID, token).
		Update("is_active", false).Error
}

// RecordMessage appends one delivery attempt to the audit log.
func (r *Repository) RecordMessage(ctx context.Context, msg *models.NotificationMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

// DeleteMessagesOlderThan trims the delivery log before the cutoff and
// returns the number of rows removed.
func (r *Repository) DeleteMessagesOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := tx
	if conn == nil {
		conn = r.db
	}
	result := conn.WithContext(ctx).
		Where("sent_at < ?", cutoff).
		Delete(&models.NotificationMessage{})
	return result.RowsAffected, result.Error
}
