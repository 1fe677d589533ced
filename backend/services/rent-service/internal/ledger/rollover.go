package ledger

import (
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/shopspring/decimal"
)

// Resolution says which ledger a payment or rollover should act on.
type Resolution struct {
	Ledger *models.MonthlyLedger
	// Closed is the superseded ledger, nil when nothing was replaced.
	Closed *models.MonthlyLedger
}

// ResolveLedger picks the ledger for a payment dated in period. A stored
// ledger for a later period is kept, so a late-arriving payment never moves
// the tenant back in time. An older stored ledger is closed and replaced.
func (e *Engine) ResolveLedger(tenant *models.Tenant, unit *models.Unit, period models.Period) Resolution {
	stored := tenant.Ledger
	switch {
	case stored == nil:
		return Resolution{Ledger: e.NewLedger(unit, tenant, period)}
	case stored.Period == period || period.Before(stored.Period):
		return Resolution{Ledger: stored.Clone()}
	default:
		return Resolution{Ledger: e.NewLedger(unit, tenant, period), Closed: stored}
	}
}

// ResolveFinalLedger picks the ledger for a tenant who no longer holds the
// unit. Their last ledger is reused whatever the payment date, so nothing is
// billed for months after they left. A tenant without one gets a ledger for
// the month they moved out.
func (e *Engine) ResolveFinalLedger(tenant *models.Tenant, unit *models.Unit) Resolution {
	if tenant.Ledger != nil {
		return Resolution{Ledger: tenant.Ledger.Clone()}
	}
	left := tenant.UpdatedAt
	if tenant.MoveOutDate != nil {
		left = *tenant.MoveOutDate
	}
	return Resolution{Ledger: e.NewLedger(unit, tenant, e.CurrentPeriod(left))}
}

// CloseLedger folds what was left unpaid on a superseded ledger into the
// cross-period balances. Credit on account is used up first.
func CloseLedger(summary models.FinancialSummary, closed *models.MonthlyLedger) models.FinancialSummary {
	if closed == nil || !closed.RemainingAmount.IsPositive() {
		return summary
	}
	owed := closed.RemainingAmount
	used := decimal.Min(summary.CreditBalance, owed)
	summary.CreditBalance = summary.CreditBalance.Sub(used)
	summary.Arrears = summary.Arrears.Add(owed.Sub(used))
	return summary
}

// ApplyExcess reduces arrears by a payment's excess and keeps any remainder
// as credit on account.
func ApplyExcess(summary models.FinancialSummary, excess decimal.Decimal) models.FinancialSummary {
	if !excess.IsPositive() {
		return summary
	}
	toArrears := decimal.Min(summary.Arrears, excess)
	if toArrears.IsNegative() {
		toArrears = decimal.Zero
	}
	summary.Arrears = summary.Arrears.Sub(toArrears)
	summary.CreditBalance = summary.CreditBalance.Add(excess.Sub(toArrears))
	return summary
}
