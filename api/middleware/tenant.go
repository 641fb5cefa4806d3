package middleware

import (
	"net/http"
	"strings"

	"github.com/threepillars/storefront-backend/api/responses"
	"github.com/threepillars/storefront-backend/internal/tenant"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
	"github.com/threepillars/storefront-backend/pkg/logger"
)

const (
	tenantHeader     = "X-Company-Id"
	tenantQueryParam = "company_id"
	sessionHeader    = "X-Session-Id"
)

// TenantResolver resolves the acting tenant for authenticated traffic and
// injects it into the request context. Resolution failing to produce a
// tenant is not an error here; handlers that need one enforce it via
// RequireTenant.
func TenantResolver(resolver tenant.Resolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal := PrincipalFromContext(ctx)

			resolved, err := resolver.Resolve(ctx, principal,
				strings.TrimSpace(r.Header.Get(tenantHeader)),
				strings.TrimSpace(r.URL.Query().Get(tenantQueryParam)))
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			if resolved != nil {
				ctx = WithTenant(ctx, resolved)
				if logg != nil {
					ctx = logg.WithTenantID(ctx, resolved.ID.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StorefrontTenant resolves the tenant for anonymous storefront traffic by
// header only, and captures the anonymous session id when present.
func StorefrontTenant(resolver tenant.Resolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			resolved, err := resolver.ResolveStorefront(ctx, strings.TrimSpace(r.Header.Get(tenantHeader)))
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			if resolved != nil {
				ctx = WithTenant(ctx, resolved)
				if logg != nil {
					ctx = logg.WithTenantID(ctx, resolved.ID.String())
				}
			}

			if sessionID := strings.TrimSpace(r.Header.Get(sessionHeader)); sessionID != "" {
				ctx = WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant rejects requests that reach a tenant-scoped handler without
// an established tenant context.
func RequireTenant(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if TenantFromContext(r.Context()) == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeTenantRequired, "tenant context required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
