package models

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidPeriod is returned when a period string is not a valid YYYY-MM month.
var ErrInvalidPeriod = errors.New("invalid_period")

// Period is a calendar month in "YYYY-MM" form.
type Period string

const (
	minPeriodYear = 2000
	maxPeriodYear = 2100
)

var periodRegex = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// PeriodOf returns the month containing t, in t's own location.
func PeriodOf(t time.Time) Period {
	return Period(fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())))
}

// ParsePeriod validates s and returns it as a Period.
func ParsePeriod(s string) (Period, error) {
	m := periodRegex.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if year < minPeriodYear || year > maxPeriodYear || month < 1 || month > 12 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return Period(s), nil
}

func (p Period) String() string { return string(p) }

// Start returns midnight on the first day of the period in loc.
func (p Period) Start(loc *time.Location) time.Time {
	t, err := time.ParseInLocation("2006-01", string(p), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (p Period) Next() Period {
	return PeriodOf(p.Start(time.UTC).AddDate(0, 1, 0))
}

func (p Period) Prev() Period {
	return PeriodOf(p.Start(time.UTC).AddDate(0, -1, 0))
}

// Before reports whether p is an earlier month than o. The fixed-width
// format makes lexical order chronological.
func (p Period) Before(o Period) bool {
	return p < o
}

// Contains reports whether t falls in p when viewed from loc.
func (p Period) Contains(t time.Time, loc *time.Location) bool {
	return PeriodOf(t.In(loc)) == p
}

type LedgerStatus string

const (
	LedgerStatusUnpaid  LedgerStatus = "unpaid"
	LedgerStatusPartial LedgerStatus = "partial"
	LedgerStatusPaid    LedgerStatus = "paid"
)

// LedgerStatusFor derives a status purely from the paid and expected totals.
func LedgerStatusFor(paid, expected decimal.Decimal) LedgerStatus {
	switch {
	case paid.GreaterThanOrEqual(expected):
		return LedgerStatusPaid
	case paid.IsPositive():
		return LedgerStatusPartial
	default:
		return LedgerStatusUnpaid
	}
}

// Obligation is what a tenant owes for one period.
type Obligation struct {
	Rent      decimal.Decimal `json:"rent"`
	Utilities decimal.Decimal `json:"utilities"`
	Deposit   decimal.Decimal `json:"deposit"`
	Total     decimal.Decimal `json:"total"`
}

// Breakdown holds the cumulative amounts allocated to each bucket.
type Breakdown struct {
	Rent      decimal.Decimal `json:"rent"`
	Utilities decimal.Decimal `json:"utilities"`
	Deposit   decimal.Decimal `json:"deposit"`
}

func (b Breakdown) Sum() decimal.Decimal {
	return b.Rent.Add(b.Utilities).Add(b.Deposit)
}

// Allocation is the split of a single payment.
type Allocation struct {
	Deposit   decimal.Decimal `json:"deposit"`
	Rent      decimal.Decimal `json:"rent"`
	Utilities decimal.Decimal `json:"utilities"`
	Excess    decimal.Decimal `json:"excess"`
}

func (a Allocation) Total() decimal.Decimal {
	return a.Deposit.Add(a.Rent).Add(a.Utilities).Add(a.Excess)
}

// LedgerPayment is one audit entry in a period's ledger.
type LedgerPayment struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
	RecordedAt    time.Time       `json:"recorded_at"`
	Allocation    Allocation      `json:"allocation"`
}

// MonthlyLedger tracks expected versus paid amounts for one tenant and period.
type MonthlyLedger struct {
	Period          Period          `json:"period"`
	ExpectedAmount  decimal.Decimal `json:"expected_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          LedgerStatus    `json:"status"`
	Obligation      Obligation      `json:"obligation"`
	Breakdown       Breakdown       `json:"breakdown"`
	Payments        []LedgerPayment `json:"payments"`
}

// Clone returns a deep copy; the payments slice is never shared.
func (l *MonthlyLedger) Clone() *MonthlyLedger {
	if l == nil {
		return nil
	}
	out := *l
	out.Payments = make([]LedgerPayment, len(l.Payments))
	copy(out.Payments, l.Payments)
	return &out
}

// HasTransaction reports whether txID is already recorded in this ledger.
func (l *MonthlyLedger) HasTransaction(txID string) bool {
	if l == nil {
		return false
	}
	for _, p := range l.Payments {
		if p.TransactionID == txID {
			return true
		}
	}
	return false
}

// Excess is the part of PaidAmount not assigned to any bucket.
func (l *MonthlyLedger) Excess() decimal.Decimal {
	return l.PaidAmount.Sub(l.Breakdown.Sum())
}
