package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var d = decimal.RequireFromString

func nairobi(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Nairobi")
	require.NoError(t, err)
	return loc
}

func fixture(t *testing.T) (*Engine, *models.Unit, *models.Tenant) {
	loc := nairobi(t)
	unit := &models.Unit{
		ID:            uuid.New(),
		UnitCode:      "A1",
		RentAmount:    d("5000"),
		DepositAmount: d("3000"),
		UtilityFees:   models.UtilityFees{Garbage: d("300"), Water: d("200")},
	}
	tenant := &models.Tenant{
		ID:         uuid.New(),
		Phone:      "0712345678",
		UnitCode:   "A1",
		MoveInDate: time.Date(2025, time.January, 3, 10, 0, 0, 0, loc),
		Status:     models.TenantStatusActive,
		Deposit:    models.DepositState{Amount: d("3000"), Status: models.DepositStatusPending},
	}
	return NewEngine(loc), unit, tenant
}

func pay(id, amount string) Payment {
	at := time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC)
	return Payment{TransactionID: id, Amount: d(amount), OccurredAt: at, RecordedAt: at}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msg ...any) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s got %s %v", want, got.String(), msg)
}

func TestComputeExpectedObligation(t *testing.T) {
	e, unit, tenant := fixture(t)

	o := e.ComputeExpectedObligation(unit, tenant, "2025-01")
	assertDec(t, "5000", o.Rent)
	assertDec(t, "500", o.Utilities)
	assertDec(t, "3000", o.Deposit)
	assertDec(t, "8500", o.Total)

	// Not the move-in month.
	o = e.ComputeExpectedObligation(unit, tenant, "2025-02")
	assertDec(t, "0", o.Deposit)
	assertDec(t, "5500", o.Total)

	// Deposit no longer pending.
	tenant.Deposit.Status = models.DepositStatusPaid
	assertDec(t, "5500", e.ComputeExpectedObligation(unit, tenant, "2025-01").Total)

	// Unit without a deposit.
	tenant.Deposit.Status = models.DepositStatusPending
	unit.DepositAmount = decimal.Zero
	assertDec(t, "5500", e.ComputeExpectedObligation(unit, tenant, "2025-01").Total)
}

func TestMoveInMonthUsesBusinessTimezone(t *testing.T) {
	e, unit, tenant := fixture(t)
	// 22:00 UTC on Jan 31 is Feb 1 in Nairobi.
	tenant.MoveInDate = time.Date(2025, time.January, 31, 22, 0, 0, 0, time.UTC)

	assertDec(t, "0", e.ComputeExpectedObligation(unit, tenant, "2025-01").Deposit)
	assertDec(t, "3000", e.ComputeExpectedObligation(unit, tenant, "2025-02").Deposit)
}

func TestGetOrInitLedger(t *testing.T) {
	e, unit, tenant := fixture(t)

	fresh := e.GetOrInitLedger(tenant, unit, "2025-01")
	assert.Equal(t, models.Period("2025-01"), fresh.Period)
	assertDec(t, "8500", fresh.ExpectedAmount)
	assertDec(t, "8500", fresh.RemainingAmount)
	assertDec(t, "0", fresh.PaidAmount)
	assert.Equal(t, models.LedgerStatusUnpaid, fresh.Status)
	assert.Empty(t, fresh.Payments)
	assert.Nil(t, tenant.Ledger, "lazy init must not write to the tenant")

	// Same period twice is structurally identical.
	assert.Equal(t, fresh, e.GetOrInitLedger(tenant, unit, "2025-01"))

	// A stored current ledger is returned as-is (as a copy).
	tenant.Ledger = fresh
	got := e.GetOrInitLedger(tenant, unit, "2025-01")
	assert.Equal(t, fresh, got)
	assert.NotSame(t, fresh, got)

	// Stale ledger gets reinitialized.
	next := e.GetOrInitLedger(tenant, unit, "2025-02")
	assert.Equal(t, models.Period("2025-02"), next.Period)
	assertDec(t, "5500", next.ExpectedAmount)
}

func TestAllocateScenarioDepositFirst(t *testing.T) {
	e, unit, tenant := fixture(t)
	l := e.GetOrInitLedger(tenant, unit, "2025-01")

	first, err := e.AllocatePayment(l, unit, tenant, pay("TX1", "4000"))
	require.NoError(t, err)
	assertDec(t, "3000", first.Allocation.Deposit)
	assertDec(t, "1000", first.Allocation.Rent)
	assertDec(t, "0", first.Allocation.Utilities)
	assertDec(t, "0", first.Allocation.Excess)
	assert.Equal(t, models.LedgerStatusPartial, first.Ledger.Status)
	assertDec(t, "4000", first.Ledger.PaidAmount)
	assertDec(t, "4500", first.Ledger.RemainingAmount)
	assert.True(t, first.DepositSettled)
	assert.Equal(t, models.DepositStatusPaid, first.Deposit.Status)
	require.NotNil(t, first.Deposit.PaidDate)

	// Inputs untouched.
	assertDec(t, "0", l.PaidAmount)
	assert.Empty(t, l.Payments)
	assert.Equal(t, models.DepositStatusPending, tenant.Deposit.Status)

	tenant.Deposit = first.Deposit
	second, err := e.AllocatePayment(first.Ledger, unit, tenant, pay("TX2", "5000"))
	require.NoError(t, err)
	assertDec(t, "0", second.Allocation.Deposit)
	assertDec(t, "4000", second.Allocation.Rent)
	assertDec(t, "500", second.Allocation.Utilities)
	assertDec(t, "500", second.Allocation.Excess)
	assert.False(t, second.DepositSettled)

	l2 := second.Ledger
	assert.Equal(t, models.LedgerStatusPaid, l2.Status)
	assertDec(t, "9000", l2.PaidAmount)
	assertDec(t, "0", l2.RemainingAmount)
	assertDec(t, "5000", l2.Breakdown.Rent)
	assertDec(t, "500", l2.Breakdown.Utilities)
	assertDec(t, "3000", l2.Breakdown.Deposit)
	assertDec(t, "500", l2.Excess())
	require.Len(t, l2.Payments, 2)
	assert.Equal(t, "TX1", l2.Payments[0].TransactionID)
	assert.Equal(t, "TX2", l2.Payments[1].TransactionID)
}

func TestAllocatePriorityOrder(t *testing.T) {
	e, unit, tenant := fixture(t)
	l := e.GetOrInitLedger(tenant, unit, "2025-01")

	out, err := e.AllocatePayment(l, unit, tenant, pay("TX1", "2500"))
	require.NoError(t, err)
	assertDec(t, "2500", out.Allocation.Deposit)
	assertDec(t, "0", out.Allocation.Rent)
	assert.False(t, out.DepositSettled)
	assert.Equal(t, models.DepositStatusPending, out.Deposit.Status)

	out, err = e.AllocatePayment(out.Ledger, unit, tenant, pay("TX2", "5200"))
	require.NoError(t, err)
	assertDec(t, "500", out.Allocation.Deposit)
	assertDec(t, "4700", out.Allocation.Rent)
	assertDec(t, "0", out.Allocation.Utilities)
	assert.True(t, out.DepositSettled)
}

func TestAllocateConservationAndMonotonicStatus(t *testing.T) {
	e, unit, tenant := fixture(t)
	l := e.GetOrInitLedger(tenant, unit, "2025-01")

	amounts := []string{"0.01", "999.99", "1500", "2750.50", "3000", "0.49", "12000"}
	rank := map[models.LedgerStatus]int{
		models.LedgerStatusUnpaid:  0,
		models.LedgerStatusPartial: 1,
		models.LedgerStatusPaid:    2,
	}
	paid := decimal.Zero
	excess := decimal.Zero
	prev := l.Status
	for i, a := range amounts {
		out, err := e.AllocatePayment(l, unit, tenant, pay(string(rune('A'+i)), a))
		require.NoError(t, err)
		assertDec(t, a, out.Allocation.Total(), "conservation for", a)
		assert.GreaterOrEqual(t, rank[out.Ledger.Status], rank[prev])

		paid = paid.Add(d(a))
		excess = excess.Add(out.Allocation.Excess)
		assertDec(t, paid.String(), out.Ledger.PaidAmount)
		assertDec(t, paid.Sub(excess).String(), out.Ledger.Breakdown.Sum(), "breakdown equals paid minus excess")

		prev = out.Ledger.Status
		l = out.Ledger
		tenant.Deposit = out.Deposit
	}
	assert.Equal(t, models.LedgerStatusPaid, l.Status)
}

func TestAllocateRejects(t *testing.T) {
	e, unit, tenant := fixture(t)
	l := e.GetOrInitLedger(tenant, unit, "2025-01")

	_, err := e.AllocatePayment(l, unit, tenant, pay("TX1", "0"))
	assert.ErrorIs(t, err, ErrNonPositiveAmount)
	_, err = e.AllocatePayment(l, unit, tenant, pay("TX1", "-5"))
	assert.ErrorIs(t, err, ErrNonPositiveAmount)
	_, err = e.AllocatePayment(nil, unit, tenant, pay("TX1", "5"))
	assert.ErrorIs(t, err, ErrNilLedger)

	out, err := e.AllocatePayment(l, unit, tenant, pay("TX1", "100"))
	require.NoError(t, err)
	_, err = e.AllocatePayment(out.Ledger, unit, tenant, pay("TX1", "100"))
	assert.ErrorIs(t, err, ErrTransactionInLedger)
}

func TestAllocateWithoutDepositInLaterMonth(t *testing.T) {
	e, unit, tenant := fixture(t)
	l := e.GetOrInitLedger(tenant, unit, "2025-03")

	out, err := e.AllocatePayment(l, unit, tenant, pay("TX1", "6000"))
	require.NoError(t, err)
	assertDec(t, "0", out.Allocation.Deposit)
	assertDec(t, "5000", out.Allocation.Rent)
	assertDec(t, "500", out.Allocation.Utilities)
	assertDec(t, "500", out.Allocation.Excess)
	assert.Equal(t, models.DepositStatusPending, out.Deposit.Status, "a missed deposit is not billed after the move-in month")
}
