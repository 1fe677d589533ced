package testhelpers

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/shopspring/decimal"
)

var (
	PropertyID  = uuid.MustParse("7d9f3f8e-2f4b-4f57-9a57-5d8d0b1a0001")
	TenantID    = uuid.MustParse("7d9f3f8e-2f4b-4f57-9a57-5d8d0b1a0101")
	TenantPhone = "0712345678"
	UnitCode    = "A1"
	Nairobi, _  = time.LoadLocation("Africa/Nairobi")
)

// NewUnit returns a unit with rent 5000, utilities 300 + 200 and deposit 3000.
func NewUnit(code string) *models.Unit {
	return &models.Unit{
		Versioned:     models.Versioned{RowVersion: 1},
		ID:            uuid.New(),
		UnitCode:      code,
		PropertyID:    PropertyID,
		RentAmount:    decimal.NewFromInt(5000),
		DepositAmount: decimal.NewFromInt(3000),
		UtilityFees: models.UtilityFees{
			Garbage: decimal.NewFromInt(300),
			Water:   decimal.NewFromInt(200),
		},
		IsVacant:            false,
		CurrentPeriodPaid:   decimal.Zero,
		CurrentPeriodStatus: models.LedgerStatusUnpaid,
		LastPaymentAmount:   decimal.Zero,
	}
}

// NewTenant returns an active tenant on unit with a pending deposit and no ledger.
func NewTenant(id uuid.UUID, phone string, unit *models.Unit, moveIn time.Time) *models.Tenant {
	unit.TenantID = &id
	return &models.Tenant{
		Versioned:  models.Versioned{RowVersion: 1},
		ID:         id,
		Name:       "Jane Wanjiku",
		Phone:      phone,
		UnitCode:   unit.UnitCode,
		PropertyID: unit.PropertyID,
		MoveInDate: moveIn,
		Status:     models.TenantStatusActive,
		Deposit: models.DepositState{
			Amount: unit.DepositAmount,
			Status: models.DepositStatusPending,
		},
		Summary: models.FinancialSummary{
			Arrears:       decimal.Zero,
			TotalPaid:     decimal.Zero,
			CreditBalance: decimal.Zero,
		},
		PaymentLog: []models.PaymentLogEntry{},
		CreatedAt:  moveIn,
		UpdatedAt:  moveIn,
	}
}

// ConfirmationSMS renders a paybill confirmation in the format Safaricom sends.
// amount is written the way the SMS shows it, e.g. "4,000.00"; date is D/M/YY.
func ConfirmationSMS(txID, amount, sender, senderPhone, date, account string) string {
	return fmt.Sprintf(
		"%s Confirmed. Ksh%s received from %s %s on %s at 10:30 AM. "+
			"New Account balance is Ksh125,000.00. Transaction cost, Ksh0.00. Account Number %s",
		txID, amount, sender, senderPhone, date, account,
	)
}

// Clock is a settable time source for services under test.
type Clock struct {
	T time.Time
}

func (c *Clock) Now() time.Time { return c.T }
