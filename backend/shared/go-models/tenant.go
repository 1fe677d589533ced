package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
	TenantStatusMovedOut TenantStatus = "moved_out"
)

type DepositStatus string

const (
	DepositStatusPending     DepositStatus = "pending"
	DepositStatusPaid        DepositStatus = "paid"
	DepositStatusNotRequired DepositStatus = "not_required"
	DepositStatusRefunded    DepositStatus = "refunded"
)

// DepositState is the lifecycle of the one-time security deposit.
type DepositState struct {
	Amount   decimal.Decimal `json:"amount"`
	Status   DepositStatus   `json:"status"`
	PaidDate *time.Time      `json:"paid_date,omitempty"`
}

// FinancialSummary carries the balances that span periods.
type FinancialSummary struct {
	Arrears       decimal.Decimal `json:"arrears"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
	LastPaymentAt *time.Time      `json:"last_payment_at,omitempty"`
}

// PaymentLogEntry is the tenant's append-only payment history.
type PaymentLogEntry struct {
	TransactionID   string          `json:"transaction_id"`
	Amount          decimal.Decimal `json:"amount"`
	Period          Period          `json:"period"`
	LedgerPeriod    Period          `json:"ledger_period"`
	OccurredAt      time.Time       `json:"occurred_at"`
	RecordedAt      time.Time       `json:"recorded_at"`
	SenderName      string          `json:"sender_name"`
	PreviousArrears decimal.Decimal `json:"previous_arrears"`
	NewArrears      decimal.Decimal `json:"new_arrears"`
	Allocation      Allocation      `json:"allocation"`
	LedgerStatus    LedgerStatus    `json:"ledger_status"`
	MatchStrategy   string          `json:"match_strategy"`
}

type Tenant struct {
	Versioned
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Phone       string            `json:"phone"`
	Email       *string           `json:"email,omitempty"`
	UnitCode    string            `json:"unit_code"`
	PropertyID  uuid.UUID         `json:"property_id"`
	MoveInDate  time.Time         `json:"move_in_date"`
	MoveOutDate *time.Time        `json:"move_out_date,omitempty"`
	Status      TenantStatus      `json:"tenant_status"`
	Deposit     DepositState      `json:"deposit"`
	Summary     FinancialSummary  `json:"financial_summary"`
	Ledger      *MonthlyLedger    `json:"monthly_ledger,omitempty"`
	PaymentLog  []PaymentLogEntry `json:"payment_log"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (t *Tenant) GetID() string { return t.ID.String() }

func (t *Tenant) IsActive() bool { return t.Status == TenantStatusActive }

// ApplyDefaults normalizes records written before a field existed. It runs
// once when a tenant is read from storage.
func (t *Tenant) ApplyDefaults() {
	if t.Status == "" {
		t.Status = TenantStatusActive
	}
	if t.Deposit.Status == "" {
		t.Deposit.Status = DepositStatusNotRequired
	}
	if t.PaymentLog == nil {
		t.PaymentLog = []PaymentLogEntry{}
	}
	if t.Ledger != nil && t.Ledger.Payments == nil {
		t.Ledger.Payments = []LedgerPayment{}
	}
}
