package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/threepillars/storefront-backend/api/middleware"
	"github.com/threepillars/storefront-backend/api/responses"
	"github.com/threepillars/storefront-backend/api/validators"
	"github.com/threepillars/storefront-backend/internal/catalog"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
	"github.com/threepillars/storefront-backend/pkg/logger"
	"github.com/threepillars/storefront-backend/pkg/pagination"
)

// ListProducts serves the storefront catalog. Without a tenant context the
// response is an empty collection rather than an error.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := middleware.TenantFromContext(r.Context())
		if tenant == nil {
			responses.WriteSuccess(w, map[string]any{"products": []any{}, "next_cursor": ""})
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := catalog.ListFilter{
			Search: validators.SanitizeString(r.URL.Query().Get("search"), 200),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
			categoryID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid category id"))
				return
			}
			filter.CategoryID = &categoryID
		}
		featured, err := validators.ParseQueryBool(r, "featured")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Featured = featured

		page, err := svc.List(r.Context(), tenant.ID, filter, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"products":    page.Products,
			"next_cursor": page.NextCursor,
		})
	}
}

// GetProduct resolves a product by id, falling back to slug lookup so
// storefront URLs can use either.
func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := requireTenant(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "productID"))
		if productID, parseErr := uuid.Parse(raw); parseErr == nil {
			product, err := svc.Get(r.Context(), tenant.ID, productID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, product)
			return
		}

		product, err := svc.GetBySlug(r.Context(), tenant.ID, raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
