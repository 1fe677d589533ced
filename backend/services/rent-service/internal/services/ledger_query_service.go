package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/dtos"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/ledger"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
)

// LedgerQueryService reads ledgers without persisting the lazily built ones.
type LedgerQueryService struct {
	store  Store
	engine *ledger.Engine
	now    func() time.Time
}

func NewLedgerQueryService(store Store, loc *time.Location, now func() time.Time) *LedgerQueryService {
	if now == nil {
		now = time.Now
	}
	return &LedgerQueryService{store: store, engine: ledger.NewEngine(loc), now: now}
}

// GetLedger returns the tenant's ledger for rawPeriod, or for the current
// business month when rawPeriod is empty.
func (s *LedgerQueryService) GetLedger(ctx context.Context, tenantID uuid.UUID, rawPeriod string) (*dtos.LedgerResponse, error) {
	period := s.engine.CurrentPeriod(s.now())
	if rawPeriod != "" {
		p, err := models.ParsePeriod(rawPeriod)
		if err != nil {
			return nil, invalidPeriodAppError(err)
		}
		period = p
	}

	t, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, internalAppError("Failed to load tenant", err)
	}
	if t == nil {
		return nil, tenantNotFoundAppError(ErrTenantNotFound, map[string]any{"tenantId": tenantID})
	}
	unit, err := s.store.GetUnitByCode(ctx, t.UnitCode)
	if err != nil {
		return nil, internalAppError("Failed to load unit", err)
	}
	if unit == nil {
		return nil, unitNotFoundAppError(t.UnitCode)
	}

	l := s.engine.GetOrInitLedger(t, unit, period)
	obligation := l.Obligation
	if obligation.Total.IsZero() && !l.ExpectedAmount.IsZero() {
		obligation = s.engine.ComputeExpectedObligation(unit, t, period)
	}
	return &dtos.LedgerResponse{
		TenantID:      t.ID,
		Period:        period,
		Persisted:     t.Ledger != nil && t.Ledger.Period == period,
		Ledger:        l,
		Obligation:    obligation,
		Arrears:       t.Summary.Arrears,
		CreditBalance: t.Summary.CreditBalance,
	}, nil
}
