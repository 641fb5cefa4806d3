package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/threepillars/storefront-backend/pkg/logger"
)

// Expired carts become invisible to the API immediately; this job only
// reclaims the rows some time later.
const cartGraceDays = 7

type cartCleanupRepo interface {
	DeleteExpired(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type CartExpiryJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository cartCleanupRepo
	GraceDays  int
}

func NewCartExpiryJob(params CartExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	grace := params.GraceDays
	if grace <= 0 {
		grace = cartGraceDays
	}
	return &cartExpiryJob{
		logg:  params.Logger,
		db:    params.DB,
		repo:  params.Repository,
		grace: grace,
		now:   time.Now,
	}, nil
}

type cartExpiryJob struct {
	logg  *logger.Logger
	db    txRunner
	repo  cartCleanupRepo
	grace int
	now   func() time.Time
}

func (j *cartExpiryJob) Name() string { return "cart-expiry" }

func (j *cartExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.grace) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteExpired(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("cart expiry sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"grace_days":   j.grace,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "cart expiry sweep complete")
	return nil
}
