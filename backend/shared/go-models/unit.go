// go-models/unit.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UtilityFees are the fixed monthly charges billed on top of rent.
type UtilityFees struct {
	Garbage decimal.Decimal `json:"garbage"`
	Water   decimal.Decimal `json:"water"`
}

func (u UtilityFees) Total() decimal.Decimal {
	return u.Garbage.Add(u.Water)
}

// Unit is a rentable space inside a property. UnitCode is the business
// identifier tenants are linked by.
type Unit struct {
	Versioned
	ID            uuid.UUID       `json:"id"`
	UnitCode      string          `json:"unit_code"`
	PropertyID    uuid.UUID       `json:"property_id"`
	RentAmount    decimal.Decimal `json:"rent_amount"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
	UtilityFees   UtilityFees     `json:"utility_fees"`
	IsVacant      bool            `json:"is_vacant"`
	TenantID      *uuid.UUID      `json:"tenant_id,omitempty"`

	// Counters for the current business month only.
	CurrentPeriodPaid   decimal.Decimal `json:"current_period_paid"`
	CurrentPeriodStatus LedgerStatus    `json:"current_period_status"`

	LastPaymentAt            *time.Time      `json:"last_payment_at,omitempty"`
	LastPaymentAmount        decimal.Decimal `json:"last_payment_amount"`
	LastPaymentTransactionID *string         `json:"last_payment_transaction_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *Unit) GetID() string { return u.ID.String() }

// ApplyDefaults fills fields that older rows may have left empty.
func (u *Unit) ApplyDefaults() {
	if u.CurrentPeriodStatus == "" {
		u.CurrentPeriodStatus = LedgerStatusUnpaid
	}
}

// ResetCurrentPeriod zeroes the month counters at a period boundary.
func (u *Unit) ResetCurrentPeriod() {
	u.CurrentPeriodPaid = decimal.Zero
	u.CurrentPeriodStatus = LedgerStatusUnpaid
}
