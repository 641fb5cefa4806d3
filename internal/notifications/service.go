package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/threepillars/storefront-backend/pkg/db/models"
	"github.com/threepillars/storefront-backend/pkg/enums"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
)

// PreferenceInput is a partial preference update; nil fields keep their
// current value.
type PreferenceInput struct {
	Enabled        *bool
	OrderUpdates   *bool
	PaymentUpdates *bool
}

// Service manages device registrations and notification preferences.
type Service interface {
	RegisterDevice(ctx context.Context, tenantID, userID uuid.UUID, token string, platform enums.DevicePlatform) (*models.Device, error)
	DeactivateDevice(ctx context.Context, tenantID, userID uuid.UUID, token string) error
	GetPreference(ctx context.Context, tenantID, userID uuid.UUID) (*models.NotificationPreference, error)
	UpdatePreference(ctx context.Context, tenantID, userID uuid.UUID, input PreferenceInput) (*models.NotificationPreference, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RegisterDevice(ctx context.Context, tenantID, userID uuid.UUID, token string, platform enums.DevicePlatform) (*models.Device, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device token is required")
	}
	if !platform.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid device platform %q", platform)
	}

	device := &models.Device{
		TenantID: tenantID,
		UserID:   userID,
		Token:    token,
		Platform: platform,
	}
	if err := s.repo.RegisterDevice(ctx, device); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "registering device")
	}
	return device, nil
}

func (s *service) DeactivateDevice(ctx context.Context, tenantID, userID uuid.UUID, token string) error {
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "device token is required")
	}
	if err := s.repo.DeactivateDevice(ctx, tenantID, userID, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivating device")
	}
	return nil
}

// GetPreference returns the stored preference or the enabled-by-default view
// when the user never saved one.
func (s *service) GetPreference(ctx context.Context, tenantID, userID uuid.UUID) (*models.NotificationPreference, error) {
	pref, err := s.repo.Preference(ctx, tenantID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading preference")
	}
	if pref == nil {
		pref = &models.NotificationPreference{
			TenantID:       tenantID,
			UserID:         userID,
			Enabled:        true,
			OrderUpdates:   true,
			PaymentUpdates: true,
		}
	}
	return pref, nil
}

func (s *service) UpdatePreference(ctx context.Context, tenantID, userID uuid.UUID, input PreferenceInput) (*models.NotificationPreference, error) {
	pref, err := s.GetPreference(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if input.Enabled != nil {
		pref.Enabled = *input.Enabled
	}
	if input.OrderUpdates != nil {
		pref.OrderUpdates = *input.OrderUpdates
	}
	if input.PaymentUpdates != nil {
		pref.PaymentUpdates = *input.PaymentUpdates
	}

	if err := s.repo.UpsertPreference(ctx, pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving preference")
	}
	return pref, nil
}
