package controllers

import (
	"net/http"
	"strings"

	"github.com/threepillars/storefront-backend/api/responses"
	"github.com/threepillars/storefront-backend/api/validators"
	checkoutsvc "github.com/threepillars/storefront-backend/internal/checkout"
	"github.com/threepillars/storefront-backend/pkg/enums"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
	"github.com/threepillars/storefront-backend/pkg/logger"
	"github.com/threepillars/storefront-backend/pkg/types"
)

type checkoutCustomerRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,max=30"`
}

type checkoutRequest struct {
	Customer        checkoutCustomerRequest `json:"customer" validate:"required"`
	ShippingAddress *types.Address          `json:"shipping_address,omitempty"`
	DeliveryMethod  *string                 `json:"delivery_method,omitempty"`
	PickupPoint     *types.PickupPoint      `json:"pickup_point,omitempty"`
	PaymentMethod   string                  `json:"payment_method,omitempty"`
	Notes           *string                 `json:"notes,omitempty"`
}

// CreateOrderFromCart converts the caller's cart into an order.
func CreateOrderFromCart(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := requireTenant(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		identity, err := cartIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkoutsvc.Input{
			Customer: checkoutsvc.Customer{
				FirstName: validators.SanitizeString(payload.Customer.FirstName, 100),
				LastName:  validators.SanitizeString(payload.Customer.LastName, 100),
				Email:     strings.TrimSpace(payload.Customer.Email),
				Phone:     validators.SanitizeString(payload.Customer.Phone, 30),
			},
			ShippingAddress: payload.ShippingAddress,
			PickupPoint:     payload.PickupPoint,
			Notes:           payload.Notes,
		}
		if payload.DeliveryMethod != nil {
			method, err := enums.ParseDeliveryMethod(strings.TrimSpace(*payload.DeliveryMethod))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery method"))
				return
			}
			input.DeliveryMethod = &method
		}
		if raw := strings.TrimSpace(payload.PaymentMethod); raw != "" {
			method, err := enums.ParsePaymentMethod(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
				return
			}
			input.PaymentMethod = method
		}

		order, err := svc.CreateOrderFromCart(r.Context(), tenant.ID, identity, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// RejectDirectOrderCreation answers the legacy order-creation route. Orders
// are only minted from carts.
func RejectDirectOrderCreation(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w,
			pkgerrors.New(pkgerrors.CodeValidation, "direct order creation is not supported").
				WithDetails(map[string]any{"use": "/api/v1/orders/create-from-cart"}))
	}
}
