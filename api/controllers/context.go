package controllers

import (
	"net/http"

	"github.com/threepillars/storefront-backend/api/middleware"
	"github.com/threepillars/storefront-backend/internal/cart"
	"github.com/threepillars/storefront-backend/pkg/db/models"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
)

func requireTenant(r *http.Request) (*models.Tenant, error) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeTenantRequired, "tenant context required")
	}
	return tenant, nil
}

// cartIdentity keys the cart to the authenticated user when present, the
// anonymous session otherwise.
func cartIdentity(r *http.Request) (cart.Identity, error) {
	if principal := middleware.PrincipalFromContext(r.Context()); principal != nil {
		return cart.ForUser(principal.UserID), nil
	}
	if sessionID := middleware.SessionIDFromContext(r.Context()); sessionID != "" {
		return cart.ForSession(sessionID), nil
	}
	return cart.Identity{}, pkgerrors.New(pkgerrors.CodeValidation, "an X-Session-Id header or authentication is required")
}
