package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RentalPayment is the durable record of a reconciled payment, keyed by the
// M-Pesa transaction id.
type RentalPayment struct {
	TransactionID    string          `json:"transaction_id"`
	TenantID         uuid.UUID       `json:"tenant_id"`
	TenantName       string          `json:"tenant_name"`
	UnitCode         string          `json:"unit_code"`
	PropertyID       uuid.UUID       `json:"property_id"`
	Amount           decimal.Decimal `json:"amount"`
	SenderName       string          `json:"sender_name"`
	SenderPhone      string          `json:"sender_phone"`
	AccountReference string          `json:"account_reference"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PaymentPeriod    Period          `json:"payment_period"`
	LedgerPeriod     Period          `json:"ledger_period"`
	Allocation       Allocation      `json:"allocation"`
	LedgerStatus     LedgerStatus    `json:"ledger_status"`
	MatchStrategy    string          `json:"match_strategy"`
	RawMessage       string          `json:"raw_message"`
	CreatedAt        time.Time       `json:"created_at"`
}

// UnmatchedPayment is a parsed payment no tenant could be found for. It
// waits for manual review.
type UnmatchedPayment struct {
	TransactionID    string          `json:"transaction_id"`
	Amount           decimal.Decimal `json:"amount"`
	SenderName       string          `json:"sender_name"`
	SenderPhone      string          `json:"sender_phone"`
	AccountReference string          `json:"account_reference"`
	OccurredAt       time.Time       `json:"occurred_at"`
	RawMessage       string          `json:"raw_message"`
	Reason           string          `json:"reason"`
	Resolved         bool            `json:"resolved"`
	CreatedAt        time.Time       `json:"created_at"`
}
