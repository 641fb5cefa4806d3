package tenant

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/threepillars/storefront-backend/pkg/auth"
	"github.com/threepillars/storefront-backend/pkg/db/models"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
	"github.com/threepillars/storefront-backend/pkg/logger"
)

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	FirstOwnedBy(ctx context.Context, userID uuid.UUID) (*models.Tenant, error)
	FirstMemberOf(ctx context.Context, userID uuid.UUID) (*models.Tenant, error)
	IsMember(ctx context.Context, tenantID, userID uuid.UUID) (bool, error)
}

// Resolver decides which tenant a request acts on. Explicit selection via
// header or query param wins over ownership and membership fallbacks.
type Resolver interface {
	Resolve(ctx context.Context, principal *auth.Principal, headerID, queryID string) (*models.Tenant, error)
	ResolveStorefront(ctx context.Context, headerID string) (*models.Tenant, error)
}

type resolver struct {
	repo repository
	logg *logger.Logger
}

// NewResolver builds a tenant resolver over the provided repository.
func NewResolver(repo repository, logg *logger.Logger) (Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("tenant repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &resolver{repo: repo, logg: logg}, nil
}

// Resolve walks the selection chain: explicit header (authorized), superuser
// query param, first owned tenant, first membership. A nil result with a nil
// error means no tenant context could be established.
func (r *resolver) Resolve(ctx context.Context, principal *auth.Principal, headerID, queryID string) (*models.Tenant, error) {
	if headerID != "" {
		tenant, err := r.tenantByString(ctx, headerID)
		if err != nil {
			return nil, err
		}
		if tenant != nil && principal != nil {
			allowed, err := r.mayActFor(ctx, principal, tenant)
			if err != nil {
				return nil, err
			}
			if allowed {
				return tenant, nil
			}
			ctx = r.logg.WithTenantID(ctx, tenant.ID.String())
			r.logg.Warn(ctx, "tenant header rejected for non-member caller")
		}
	}

	if principal == nil {
		return nil, nil
	}

	if principal.IsSuperuser && queryID != "" {
		tenant, err := r.tenantByString(ctx, queryID)
		if err != nil {
			return nil, err
		}
		if tenant != nil {
			return tenant, nil
		}
	}

	owned, err := r.repo.FirstOwnedBy(ctx, principal.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving owned tenant")
	}
	if owned != nil {
		return owned, nil
	}

	member, err := r.repo.FirstMemberOf(ctx, principal.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving tenant membership")
	}
	return member, nil
}

// ResolveStorefront resolves a tenant for anonymous catalog and cart traffic.
// Only the existence of the tenant named in the header is checked.
func (r *resolver) ResolveStorefront(ctx context.Context, headerID string) (*models.Tenant, error) {
	if headerID == "" {
		return nil, nil
	}
	return r.tenantByString(ctx, headerID)
}

func (r *resolver) mayActFor(ctx context.Context, principal *auth.Principal, tenant *models.Tenant) (bool, error) {
	if principal.IsSuperuser || tenant.OwnerID == principal.UserID {
		return true, nil
	}
	member, err := r.repo.IsMember(ctx, tenant.ID, principal.UserID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking tenant membership")
	}
	return member, nil
}

func (r *resolver) tenantByString(ctx context.Context, raw string) (*models.Tenant, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tenant id").
			WithDetails(map[string]any{"tenant_id": raw})
	}
	tenant, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading tenant")
	}
	return tenant, nil
}
