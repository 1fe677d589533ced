package models

import (
	"time"

	"github.com/google/uuid"
)

type SMSKind string

const (
	SMSKindPaymentConfirmation SMSKind = "payment_confirmation"
	SMSKindWelcome             SMSKind = "welcome"
	SMSKindReminder            SMSKind = "reminder"
)

// SMSLog records one outbound SMS attempt, successful or not.
type SMSLog struct {
	ID        uuid.UUID  `json:"id"`
	Kind      SMSKind    `json:"kind"`
	TenantID  *uuid.UUID `json:"tenant_id,omitempty"`
	Phone     string     `json:"phone"`
	Message   string     `json:"message"`
	Success   bool       `json:"success"`
	MessageID *string    `json:"message_id,omitempty"`
	Error     *string    `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
