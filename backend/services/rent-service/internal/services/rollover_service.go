package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/dtos"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/ledger"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
)

var errRolloverSkip = errors.New("rollover not needed")

type RolloverOptions struct {
	Location *time.Location
	Now      func() time.Time
}

type RolloverResult struct {
	Period         models.Period
	TenantsUpdated int
	Skipped        int
	Failures       []dtos.RolloverFailure
}

// RolloverService opens the new month's ledger for every active tenant.
type RolloverService struct {
	store  Store
	engine *ledger.Engine
	opts   RolloverOptions
}

func NewRolloverService(store Store, opts RolloverOptions) *RolloverService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &RolloverService{store: store, engine: ledger.NewEngine(opts.Location), opts: opts}
}

// ResetMonthlyTracking rolls every active tenant into the current business month.
func (s *RolloverService) ResetMonthlyTracking(ctx context.Context) (*RolloverResult, error) {
	return s.RolloverPeriod(ctx, s.engine.CurrentPeriod(s.opts.Now()))
}

// RolloverPeriod is idempotent per period: tenants already on period (or a
// later one) are skipped. Each tenant is handled in its own transaction, so a
// missing unit or a failed write only affects that tenant.
func (s *RolloverService) RolloverPeriod(ctx context.Context, period models.Period) (*RolloverResult, error) {
	tenants, err := s.store.ListActiveTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}

	result := &RolloverResult{Period: period, Failures: []dtos.RolloverFailure{}}
	for _, t := range tenants {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if t.Ledger != nil && !t.Ledger.Period.Before(period) {
			result.Skipped++
			continue
		}

		err := s.store.WithTx(ctx, func(tx StoreTx) error {
			return s.rolloverTenant(ctx, tx, t.ID, period)
		})
		switch {
		case err == nil:
			result.TenantsUpdated++
		case errors.Is(err, errRolloverSkip):
			result.Skipped++
		default:
			utils.Logger.WithError(err).Warnf("Rollover to %s failed for tenant %s (unit %s)", period, t.ID, t.UnitCode)
			result.Failures = append(result.Failures, dtos.RolloverFailure{
				TenantID: t.ID,
				UnitCode: t.UnitCode,
				Reason:   err.Error(),
			})
		}
	}

	utils.Logger.Infof(
		"Rollover to %s finished: %d updated, %d skipped, %d failed",
		period, result.TenantsUpdated, result.Skipped, len(result.Failures),
	)
	return result, nil
}

// rolloverTenant re-checks the tenant under its row lock, since a payment may
// have opened the period between the listing and the lock.
func (s *RolloverService) rolloverTenant(ctx context.Context, tx StoreTx, id uuid.UUID, period models.Period) error {
	t, err := tx.LockTenant(ctx, id)
	if err != nil {
		return err
	}
	if t == nil || !t.IsActive() {
		return errRolloverSkip
	}
	if t.Ledger != nil && !t.Ledger.Period.Before(period) {
		return errRolloverSkip
	}

	unit, err := tx.LockUnitByCode(ctx, t.UnitCode)
	if err != nil {
		return err
	}
	if unit == nil {
		return fmt.Errorf("%w: %s", ErrUnitNotFound, t.UnitCode)
	}

	now := s.opts.Now()
	res := s.engine.ResolveLedger(t, unit, period)
	t.Summary = ledger.CloseLedger(t.Summary, res.Closed)
	t.Ledger = res.Ledger
	t.UpdatedAt = now
	if err := tx.SaveTenant(ctx, t); err != nil {
		return fmt.Errorf("save tenant: %w", err)
	}

	unit.ResetCurrentPeriod()
	unit.UpdatedAt = now
	if err := tx.SaveUnit(ctx, unit); err != nil {
		return fmt.Errorf("save unit: %w", err)
	}
	return nil
}

// Reset handles the admin endpoint: an empty period means the current month.
func (s *RolloverService) Reset(ctx context.Context, req dtos.RolloverRequest) (*dtos.RolloverResponse, error) {
	period := s.engine.CurrentPeriod(s.opts.Now())
	if req.Period != "" {
		p, err := models.ParsePeriod(req.Period)
		if err != nil {
			return nil, invalidPeriodAppError(err)
		}
		period = p
	}

	res, err := s.RolloverPeriod(ctx, period)
	if err != nil {
		return nil, internalAppError("Monthly rollover failed", err)
	}
	return &dtos.RolloverResponse{
		Success:    true,
		Period:     res.Period,
		ResetCount: res.TenantsUpdated,
		Skipped:    res.Skipped,
		Failures:   res.Failures,
	}, nil
}
