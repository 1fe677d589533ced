package dtos

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/shopspring/decimal"
)

// MpesaWebhookRequest carries the raw SMS text. Forwarders differ in the field
// name they use, so message and text are accepted as aliases for body.
type MpesaWebhookRequest struct {
	Body    string `json:"body"`
	Message string `json:"message,omitempty"`
	Text    string `json:"text,omitempty"`
}

type PaymentDTO struct {
	TransactionID string               `json:"transactionId"`
	TenantID      uuid.UUID            `json:"tenantId"`
	TenantName    string               `json:"tenantName"`
	UnitCode      string               `json:"unitCode"`
	Amount        decimal.Decimal      `json:"amount"`
	SenderName    string               `json:"senderName"`
	OccurredAt    time.Time            `json:"occurredAt"`
	PaymentPeriod models.Period        `json:"paymentPeriod"`
	LedgerPeriod  models.Period        `json:"ledgerPeriod"`
	Allocation    models.Allocation    `json:"allocation"`
	LedgerStatus  models.LedgerStatus  `json:"ledgerStatus"`
	Expected      decimal.Decimal      `json:"expectedAmount"`
	Paid          decimal.Decimal      `json:"paidAmount"`
	Remaining     decimal.Decimal      `json:"remainingAmount"`
	Arrears       decimal.Decimal      `json:"arrears"`
	CreditBalance decimal.Decimal      `json:"creditBalance"`
	DepositStatus models.DepositStatus `json:"depositStatus"`
	MatchStrategy string               `json:"matchStrategy"`
}

type WebhookResponse struct {
	Success       bool        `json:"success"`
	Message       string      `json:"message"`
	TransactionID string      `json:"transactionId,omitempty"`
	Payment       *PaymentDTO `json:"payment,omitempty"`
}
