package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/threepillars/storefront-backend/api/responses"
	"github.com/threepillars/storefront-backend/api/validators"
	"github.com/threepillars/storefront-backend/internal/shipping/pudo"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
	"github.com/threepillars/storefront-backend/pkg/logger"
)

// SearchPickupLocations lists courier lockers and counters near the shopper.
func SearchPickupLocations(svc pudo.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := requireTenant(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := pudo.LocationFilter{
			City:     validators.SanitizeString(r.URL.Query().Get("city"), 100),
			Province: validators.SanitizeString(r.URL.Query().Get("province"), 100),
			Search:   validators.SanitizeString(r.URL.Query().Get("search"), 200),
		}

		points, err := svc.SearchLocations(r.Context(), tenant.ID, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"locations": points})
	}
}

func GetPickupLocation(svc pudo.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := requireTenant(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		locationID := strings.TrimSpace(chi.URLParam(r, "locationID"))
		point, err := svc.GetLocation(r.Context(), tenant.ID, locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, point)
	}
}

type createShipmentRequest struct {
	PickupPointID *string `json:"pickup_point_id,omitempty"`
}

// CreateShipment books a courier collection for a paid order.
func CreateShipment(svc pudo.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := requireTenant(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := createShipmentRequest{}
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		order, err := svc.CreateShipment(r.Context(), tenant.ID, orderID, payload.PickupPointID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// TrackShipment returns the courier scan history for a waybill.
func TrackShipment(svc pudo.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := requireTenant(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		waybill := strings.TrimSpace(chi.URLParam(r, "waybill"))
		result, err := svc.Track(r.Context(), tenant.ID, waybill)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !result.Found {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeNotFound, "waybill not found").
					WithDetails(map[string]any{"waybill": waybill}))
			return
		}
		responses.WriteSuccess(w, result)
	}
}
