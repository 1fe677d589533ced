package services

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/dtos"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/ledger"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
	"github.com/shopspring/decimal"
)

type ReminderOptions struct {
	Location      *time.Location
	PaybillNumber string
	Now           func() time.Time
}

// ReminderService finds tenants who have not cleared a period and nudges them by SMS.
type ReminderService struct {
	store    Store
	engine   *ledger.Engine
	notifier *Notifier
	opts     ReminderOptions
}

func NewReminderService(store Store, notifier *Notifier, opts ReminderOptions) *ReminderService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ReminderService{store: store, engine: ledger.NewEngine(opts.Location), notifier: notifier, opts: opts}
}

type overdueEntry struct {
	tenant *models.Tenant
	ledger *models.MonthlyLedger
}

func (s *ReminderService) overdue(ctx context.Context, period models.Period) ([]overdueEntry, error) {
	tenants, err := s.store.ListActiveTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}

	units := map[string]*models.Unit{}
	var out []overdueEntry
	for _, t := range tenants {
		// A tenant already on a later period has no readable state for this one.
		if t.Ledger != nil && period.Before(t.Ledger.Period) {
			continue
		}
		unit, ok := units[t.UnitCode]
		if !ok {
			unit, err = s.store.GetUnitByCode(ctx, t.UnitCode)
			if err != nil {
				return nil, fmt.Errorf("get unit %s: %w", t.UnitCode, err)
			}
			units[t.UnitCode] = unit
		}
		if unit == nil {
			utils.Logger.Warnf("Tenant %s references missing unit %s; left out of overdue list", t.ID, t.UnitCode)
			continue
		}
		l := s.engine.GetOrInitLedger(t, unit, period)
		if l.Status != models.LedgerStatusPaid {
			out = append(out, overdueEntry{tenant: t, ledger: l})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].tenant.UnitCode < out[j].tenant.UnitCode })
	return out, nil
}

// ListOverdue returns active tenants whose ledger for period is not paid.
func (s *ReminderService) ListOverdue(ctx context.Context, period models.Period) (*dtos.OverdueResponse, error) {
	entries, err := s.overdue(ctx, period)
	if err != nil {
		return nil, internalAppError("Failed to list overdue tenants", err)
	}
	resp := &dtos.OverdueResponse{Period: period, Tenants: make([]dtos.OverdueTenant, 0, len(entries))}
	for _, e := range entries {
		resp.Tenants = append(resp.Tenants, dtos.OverdueTenant{
			TenantID:  e.tenant.ID,
			Name:      e.tenant.Name,
			Phone:     e.tenant.Phone,
			UnitCode:  e.tenant.UnitCode,
			Period:    period,
			Expected:  e.ledger.ExpectedAmount,
			Paid:      e.ledger.PaidAmount,
			Remaining: e.ledger.RemainingAmount,
			Status:    e.ledger.Status,
			Arrears:   e.tenant.Summary.Arrears,
		})
	}
	return resp, nil
}

// SendReminders texts every overdue tenant and waits for each send.
func (s *ReminderService) SendReminders(ctx context.Context, period models.Period) (*dtos.ReminderResponse, error) {
	entries, err := s.overdue(ctx, period)
	if err != nil {
		return nil, internalAppError("Failed to list overdue tenants", err)
	}
	resp := &dtos.ReminderResponse{Success: true, Period: period}
	for _, e := range entries {
		msg := reminderMessage(e.tenant, e.ledger, s.opts.PaybillNumber)
		res := s.notifier.Send(ctx, models.SMSKindReminder, &e.tenant.ID, e.tenant.Phone, msg)
		if res.Success {
			resp.Sent++
		} else {
			resp.Failed++
		}
	}
	utils.Logger.Infof("Rent reminders for %s: %d sent, %d failed", period, resp.Sent, resp.Failed)
	return resp, nil
}

// ArrearsReminderGrace is how long a tenant is given to clear arrears after
// an individual reminder.
const ArrearsReminderGrace = 7 * 24 * time.Hour

// SendReminder texts one tenant about their carried-over arrears. A tenant
// with nothing outstanding is rejected rather than messaged.
func (s *ReminderService) SendReminder(ctx context.Context, tenantID uuid.UUID) (*dtos.TenantReminderResponse, error) {
	t, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, internalAppError("Failed to load tenant", err)
	}
	if t == nil {
		return nil, tenantNotFoundAppError(ErrTenantNotFound, map[string]any{"tenantId": tenantID})
	}
	if !t.Summary.Arrears.IsPositive() {
		return nil, utils.NewAppError(http.StatusConflict, utils.ErrCodeNoArrears, "Tenant has no arrears",
			fmt.Errorf("%w: %s", ErrNoArrears, tenantID))
	}

	msg := arrearsReminderMessage(t, s.opts.PaybillNumber, s.opts.Now().In(s.opts.Location).Add(ArrearsReminderGrace))
	res := s.notifier.Send(ctx, models.SMSKindReminder, &t.ID, t.Phone, msg)
	if !res.Success {
		return nil, utils.NewAppError(http.StatusBadGateway, utils.ErrCodeExternalServiceFailure, "Failed to send reminder SMS",
			fmt.Errorf("%w: %s", ErrReminderNotSent, res.Error))
	}
	utils.Logger.WithField("tenant_id", t.ID).Info("Arrears reminder sent")
	return &dtos.TenantReminderResponse{
		Success:   true,
		TenantID:  t.ID,
		Arrears:   t.Summary.Arrears,
		MessageID: res.MessageID,
	}, nil
}

// ListArrears returns active tenants carrying arrears, largest first, and the
// total per property. Every property is listed, including those at zero.
func (s *ReminderService) ListArrears(ctx context.Context) (*dtos.ArrearsResponse, error) {
	tenants, err := s.store.ListActiveTenants(ctx)
	if err != nil {
		return nil, internalAppError("Failed to list arrears", err)
	}
	props, err := s.store.ListProperties(ctx)
	if err != nil {
		return nil, internalAppError("Failed to list arrears", err)
	}

	resp := &dtos.ArrearsResponse{
		Tenants:      []dtos.ArrearsTenant{},
		Properties:   make([]dtos.PropertyArrears, 0, len(props)),
		TotalArrears: decimal.Zero,
	}
	byProperty := make(map[uuid.UUID]int, len(props))
	for _, p := range props {
		byProperty[p.ID] = len(resp.Properties)
		resp.Properties = append(resp.Properties, dtos.PropertyArrears{
			PropertyID:   p.ID,
			PropertyName: p.PropertyName,
			TotalArrears: decimal.Zero,
		})
	}

	for _, t := range tenants {
		if !t.Summary.Arrears.IsPositive() {
			continue
		}
		resp.Tenants = append(resp.Tenants, dtos.ArrearsTenant{
			TenantID:   t.ID,
			Name:       t.Name,
			Phone:      t.Phone,
			UnitCode:   t.UnitCode,
			PropertyID: t.PropertyID,
			Arrears:    t.Summary.Arrears,
		})
		resp.TotalArrears = resp.TotalArrears.Add(t.Summary.Arrears)
		if i, ok := byProperty[t.PropertyID]; ok {
			resp.Properties[i].TenantCount++
			resp.Properties[i].TotalArrears = resp.Properties[i].TotalArrears.Add(t.Summary.Arrears)
		}
	}
	sort.SliceStable(resp.Tenants, func(i, j int) bool {
		return resp.Tenants[i].Arrears.GreaterThan(resp.Tenants[j].Arrears)
	})
	return resp, nil
}

// ResolvePeriod parses raw, or returns the current business month when raw is empty.
func (s *ReminderService) ResolvePeriod(raw string) (models.Period, error) {
	if raw == "" {
		return s.engine.CurrentPeriod(s.opts.Now()), nil
	}
	p, err := models.ParsePeriod(raw)
	if err != nil {
		return "", invalidPeriodAppError(err)
	}
	return p, nil
}

// SendCurrentReminders is the scheduled entry point.
func (s *ReminderService) SendCurrentReminders(ctx context.Context) (*dtos.ReminderResponse, error) {
	return s.SendReminders(ctx, s.engine.CurrentPeriod(s.opts.Now()))
}
