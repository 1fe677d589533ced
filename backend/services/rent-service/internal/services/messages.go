package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatKSh renders an amount the way tenants see it on M-Pesa, e.g. "KSh 4,000"
// or "KSh 1,250.50".
func FormatKSh(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return amountPrinter.Sprintf("KSh %d", d.IntPart())
	}
	return amountPrinter.Sprintf("KSh %.2f", d.Round(2).InexactFloat64())
}

// PeriodLabel renders "2025-03" as "March 2025".
func PeriodLabel(p models.Period) string {
	return p.Start(time.UTC).Format("January 2006")
}

func firstName(full string) string {
	if f := strings.Fields(full); len(f) > 0 {
		return f[0]
	}
	return full
}

func paymentConfirmationMessage(
	tenant *models.Tenant,
	txID string,
	amount decimal.Decimal,
	l *models.MonthlyLedger,
) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s, we have received %s (ref %s) for %s.",
		firstName(tenant.Name), FormatKSh(amount), txID, PeriodLabel(l.Period))

	switch l.Status {
	case models.LedgerStatusPaid:
		b.WriteString(" Your rent for the month is fully paid.")
	default:
		fmt.Fprintf(&b, " Balance for the month: %s.", FormatKSh(l.RemainingAmount))
	}
	if tenant.Summary.Arrears.IsPositive() {
		fmt.Fprintf(&b, " Arrears: %s.", FormatKSh(tenant.Summary.Arrears))
	}
	if tenant.Summary.CreditBalance.IsPositive() {
		fmt.Fprintf(&b, " Credit on account: %s.", FormatKSh(tenant.Summary.CreditBalance))
	}
	b.WriteString(" Thank you.")
	return b.String()
}

func welcomeMessage(tenant *models.Tenant, unit *models.Unit, paybill string, l *models.MonthlyLedger) string {
	return fmt.Sprintf(
		"Welcome to unit %s, %s. Pay rent via M-Pesa Paybill %s, Account Number %s. Amount due for %s: %s.",
		unit.UnitCode,
		firstName(tenant.Name),
		paybill,
		tenant.Phone,
		PeriodLabel(l.Period),
		FormatKSh(l.ExpectedAmount),
	)
}

// arrearsReminderMessage asks a tenant to clear their carried-over balance by due.
func arrearsReminderMessage(tenant *models.Tenant, paybill string, due time.Time) string {
	return fmt.Sprintf(
		"Dear %s, unit %s has outstanding arrears of %s. Kindly pay by %s via M-Pesa Paybill %s, Account Number %s.",
		firstName(tenant.Name),
		tenant.UnitCode,
		FormatKSh(tenant.Summary.Arrears),
		due.Format("2 Jan 2006"),
		paybill,
		tenant.Phone,
	)
}

func reminderMessage(tenant *models.Tenant, l *models.MonthlyLedger, paybill string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s, your rent balance for %s is %s.",
		firstName(tenant.Name), PeriodLabel(l.Period), FormatKSh(l.RemainingAmount))
	if tenant.Summary.Arrears.IsPositive() {
		fmt.Fprintf(&b, " Outstanding arrears: %s.", FormatKSh(tenant.Summary.Arrears))
	}
	fmt.Fprintf(&b, " Pay via M-Pesa Paybill %s, Account Number %s.", paybill, tenant.Phone)
	return b.String()
}
