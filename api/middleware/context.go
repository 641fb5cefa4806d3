package middleware

import (
	"context"

	"github.com/threepillars/storefront-backend/pkg/auth"
	"github.com/threepillars/storefront-backend/pkg/db/models"
)

type contextKey string

const (
	ctxPrincipal contextKey = "principal"
	ctxTenant    contextKey = "tenant"
	ctxSessionID contextKey = "session_id"
)

// PrincipalFromContext returns the authenticated caller, or nil for
// anonymous requests.
func PrincipalFromContext(ctx context.Context) *auth.Principal {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxPrincipal).(*auth.Principal); ok {
		return v
	}
	return nil
}

// TenantFromContext returns the resolved tenant, or nil when no tenant
// context could be established.
func TenantFromContext(ctx context.Context) *models.Tenant {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxTenant).(*models.Tenant); ok {
		return v
	}
	return nil
}

// SessionIDFromContext returns the anonymous storefront session id, if any.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// WithPrincipal injects the authenticated caller into the context.
func WithPrincipal(ctx context.Context, principal *auth.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, principal)
}

// WithTenant injects the resolved tenant into the context for downstream handlers.
func WithTenant(ctx context.Context, tenant *models.Tenant) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTenant, tenant)
}

// WithSessionID injects the anonymous session id into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}
