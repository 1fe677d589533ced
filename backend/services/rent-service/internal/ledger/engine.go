// Package ledger is the monthly rent ledger: what a tenant owes for a period,
// how a payment is split across that obligation, and how periods roll over.
// Everything here is pure; callers load and persist state.
package ledger

import (
	"errors"
	"time"

	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveAmount   = errors.New("payment amount must be positive")
	ErrTransactionInLedger = errors.New("transaction already recorded in ledger")
	ErrNilLedger           = errors.New("ledger is nil")
)

// Payment is the input to AllocatePayment.
type Payment struct {
	TransactionID string
	Amount        decimal.Decimal
	OccurredAt    time.Time
	RecordedAt    time.Time
}

// AllocationOutcome is the result of applying one payment. The input ledger
// and tenant are left untouched.
type AllocationOutcome struct {
	Ledger         *models.MonthlyLedger
	Allocation     models.Allocation
	Deposit        models.DepositState
	DepositSettled bool
}

// Engine evaluates move-in months in the business timezone.
type Engine struct {
	loc *time.Location
}

func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{loc: loc}
}

func (e *Engine) Location() *time.Location { return e.loc }

// CurrentPeriod is the business month containing now.
func (e *Engine) CurrentPeriod(now time.Time) models.Period {
	return models.PeriodOf(now.In(e.loc))
}

// DepositDue reports whether the one-time deposit belongs to period's obligation.
// It is billed only in the move-in month and only while still pending.
func (e *Engine) DepositDue(unit *models.Unit, tenant *models.Tenant, period models.Period) bool {
	return unit.DepositAmount.IsPositive() &&
		tenant.Deposit.Status == models.DepositStatusPending &&
		period.Contains(tenant.MoveInDate, e.loc)
}

func (e *Engine) ComputeExpectedObligation(unit *models.Unit, tenant *models.Tenant, period models.Period) models.Obligation {
	o := models.Obligation{
		Rent:      unit.RentAmount,
		Utilities: unit.UtilityFees.Total(),
		Deposit:   decimal.Zero,
	}
	if e.DepositDue(unit, tenant, period) {
		o.Deposit = unit.DepositAmount
	}
	o.Total = o.Rent.Add(o.Utilities).Add(o.Deposit)
	return o
}

// NewLedger builds an empty ledger for period.
func (e *Engine) NewLedger(unit *models.Unit, tenant *models.Tenant, period models.Period) *models.MonthlyLedger {
	o := e.ComputeExpectedObligation(unit, tenant, period)
	return &models.MonthlyLedger{
		Period:          period,
		ExpectedAmount:  o.Total,
		PaidAmount:      decimal.Zero,
		RemainingAmount: o.Total,
		Status:          models.LedgerStatusUnpaid,
		Obligation:      o,
		Breakdown: models.Breakdown{
			Rent:      decimal.Zero,
			Utilities: decimal.Zero,
			Deposit:   decimal.Zero,
		},
		Payments: []models.LedgerPayment{},
	}
}

// GetOrInitLedger returns a copy of the tenant's ledger when it is for period,
// otherwise a fresh ledger. The tenant is never modified.
func (e *Engine) GetOrInitLedger(tenant *models.Tenant, unit *models.Unit, period models.Period) *models.MonthlyLedger {
	if tenant.Ledger != nil && tenant.Ledger.Period == period {
		return tenant.Ledger.Clone()
	}
	return e.NewLedger(unit, tenant, period)
}

// AllocatePayment splits p.Amount over deposit, rent and utilities in that
// order. Whatever is left is excess: it counts as paid but is not assigned
// to a bucket.
func (e *Engine) AllocatePayment(
	ledger *models.MonthlyLedger,
	unit *models.Unit,
	tenant *models.Tenant,
	p Payment,
) (*AllocationOutcome, error) {
	if ledger == nil {
		return nil, ErrNilLedger
	}
	if !p.Amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	if ledger.HasTransaction(p.TransactionID) {
		return nil, ErrTransactionInLedger
	}

	next := ledger.Clone()
	depositRequired := e.depositRequired(next, unit, tenant)

	remaining := p.Amount
	take := func(owed decimal.Decimal) decimal.Decimal {
		if !owed.IsPositive() || !remaining.IsPositive() {
			return decimal.Zero
		}
		got := decimal.Min(remaining, owed)
		remaining = remaining.Sub(got)
		return got
	}

	var alloc models.Allocation
	alloc.Deposit = take(depositRequired.Sub(next.Breakdown.Deposit))
	alloc.Rent = take(unit.RentAmount.Sub(next.Breakdown.Rent))
	alloc.Utilities = take(unit.UtilityFees.Total().Sub(next.Breakdown.Utilities))
	alloc.Excess = remaining

	next.Breakdown.Deposit = next.Breakdown.Deposit.Add(alloc.Deposit)
	next.Breakdown.Rent = next.Breakdown.Rent.Add(alloc.Rent)
	next.Breakdown.Utilities = next.Breakdown.Utilities.Add(alloc.Utilities)
	next.PaidAmount = next.PaidAmount.Add(p.Amount)
	next.RemainingAmount = decimal.Max(decimal.Zero, next.ExpectedAmount.Sub(next.PaidAmount))
	next.Status = models.LedgerStatusFor(next.PaidAmount, next.ExpectedAmount)
	next.Payments = append(next.Payments, models.LedgerPayment{
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		OccurredAt:    p.OccurredAt,
		RecordedAt:    p.RecordedAt,
		Allocation:    alloc,
	})

	out := &AllocationOutcome{
		Ledger:     next,
		Allocation: alloc,
		Deposit:    tenant.Deposit,
	}
	if depositRequired.IsPositive() &&
		next.Breakdown.Deposit.GreaterThanOrEqual(depositRequired) &&
		tenant.Deposit.Status == models.DepositStatusPending {
		paidAt := p.RecordedAt
		out.Deposit.Status = models.DepositStatusPaid
		out.Deposit.PaidDate = &paidAt
		out.DepositSettled = true
	}
	return out, nil
}

// depositRequired is the deposit portion of the obligation the ledger was
// opened with. Ledgers stored before the obligation snapshot existed fall
// back to recomputing it.
func (e *Engine) depositRequired(l *models.MonthlyLedger, unit *models.Unit, tenant *models.Tenant) decimal.Decimal {
	if tenant.Deposit.Status != models.DepositStatusPending {
		return decimal.Zero
	}
	if l.Obligation.Total.IsZero() && !l.ExpectedAmount.IsZero() {
		return e.ComputeExpectedObligation(unit, tenant, l.Period).Deposit
	}
	return l.Obligation.Deposit
}
