package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/threepillars/storefront-backend/api/middleware"
	"github.com/threepillars/storefront-backend/api/responses"
	"github.com/threepillars/storefront-backend/api/validators"
	"github.com/threepillars/storefront-backend/internal/notifications"
	"github.com/threepillars/storefront-backend/pkg/enums"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
	"github.com/threepillars/storefront-backend/pkg/logger"
)

type registerDeviceRequest struct {
	Token    string `json:"token" validate:"required,max=512"`
	Platform string `json:"platform" validate:"required"`
}

// RegisterDevice subscribes the caller's device to push notifications.
func RegisterDevice(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := requireTenant(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		principal := middleware.PrincipalFromContext(r.Context())
		if principal == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload registerDeviceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		platform, err := enums.ParseDevicePlatform(strings.TrimSpace(payload.Platform))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid platform"))
			return
		}

		device, err := svc.RegisterDevice(r.Context(), tenant.ID, principal.UserID, strings.TrimSpace(payload.Token), platform)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, device)
	}
}

func DeactivateDevice(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := requireTenant(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		principal := middleware.PrincipalFromContext(r.Context())
		if principal == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		token := strings.TrimSpace(chi.URLParam(r, "token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "device token is required"))
			return
		}

		if err := svc.DeactivateDevice(r.Context(), tenant.ID, principal.UserID, token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

func GetNotificationPreference(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := requireTenant(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		principal := middleware.PrincipalFromContext(r.Context())
		if principal == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		pref, err := svc.GetPreference(r.Context(), tenant.ID, principal.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pref)
	}
}

type updatePreferenceRequest struct {
	Enabled        *bool `json:"enabled,omitempty"`
	OrderUpdates   *bool `json:"order_updates,omitempty"`
	PaymentUpdates *bool `json:"payment_updates,omitempty"`
}

func UpdateNotificationPreference(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := requireTenant(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		principal := middleware.PrincipalFromContext(r.Context())
		if principal == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload updatePreferenceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pref, err := svc.UpdatePreference(r.Context(), tenant.ID, principal.UserID, notifications.PreferenceInput{
			Enabled:        payload.Enabled,
			OrderUpdates:   payload.OrderUpdates,
			PaymentUpdates: payload.PaymentUpdates,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pref)
	}
}
