package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/threepillars/storefront-backend/pkg/db/models"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
	"github.com/threepillars/storefront-backend/pkg/logger"
	"github.com/threepillars/storefront-backend/pkg/pagination"
)

type repository interface {
	FindByID(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
	FindBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Product, error)
	List(ctx context.Context, tenantID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Product, error)
}

// Page is one catalog listing page plus the cursor for the next one.
type Page struct {
	Products   []models.Product
	NextCursor string
}

// Service exposes the tenant-scoped catalog read path.
type Service interface {
	Get(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
	GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Product, error)
	List(ctx context.Context, tenantID uuid.UUID, filter ListFilter, params pagination.Params) (*Page, error)
}

type service struct {
	repo repository
	logg *logger.Logger
}

// NewService builds the catalog service.
func NewService(repo repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, tenantID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found").
			WithDetails(map[string]any{"product_id": productID.String()})
	}
	return product, nil
}

func (s *service) GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Product, error) {
	product, err := s.repo.FindBySlug(ctx, tenantID, slug)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product by slug")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found").
			WithDetails(map[string]any{"slug": slug})
	}
	return product, nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter, params pagination.Params) (*Page, error) {
	rows, err := s.repo.List(ctx, tenantID, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &Page{Products: rows}
	if len(rows) > limit {
		page.Products = rows[:limit]
		last := page.Products[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}
