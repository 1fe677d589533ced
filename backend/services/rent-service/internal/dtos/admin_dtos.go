package dtos

import (
	"github.com/google/uuid"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/shopspring/decimal"
)

// RolloverRequest optionally names the period to roll into; empty means the
// current business month.
type RolloverRequest struct {
	Period string `json:"period,omitempty" validate:"omitempty,len=7"`
}

type RolloverFailure struct {
	TenantID uuid.UUID `json:"tenantId"`
	UnitCode string    `json:"unitCode"`
	Reason   string    `json:"reason"`
}

type RolloverResponse struct {
	Success    bool              `json:"success"`
	Period     models.Period     `json:"period"`
	ResetCount int               `json:"resetCount"`
	Skipped    int               `json:"skipped"`
	Failures   []RolloverFailure `json:"failures"`
}

type OverdueTenant struct {
	TenantID  uuid.UUID           `json:"tenantId"`
	Name      string              `json:"name"`
	Phone     string              `json:"phone"`
	UnitCode  string              `json:"unitCode"`
	Period    models.Period       `json:"period"`
	Expected  decimal.Decimal     `json:"expectedAmount"`
	Paid      decimal.Decimal     `json:"paidAmount"`
	Remaining decimal.Decimal     `json:"remainingAmount"`
	Status    models.LedgerStatus `json:"status"`
	Arrears   decimal.Decimal     `json:"arrears"`
}

type OverdueResponse struct {
	Period  models.Period   `json:"period"`
	Tenants []OverdueTenant `json:"tenants"`
}

type ReminderResponse struct {
	Success bool          `json:"success"`
	Period  models.Period `json:"period"`
	Sent    int           `json:"sent"`
	Failed  int           `json:"failed"`
}

type TenantReminderResponse struct {
	Success   bool            `json:"success"`
	TenantID  uuid.UUID       `json:"tenantId"`
	Arrears   decimal.Decimal `json:"arrears"`
	MessageID string          `json:"messageId,omitempty"`
}

type ArrearsTenant struct {
	TenantID   uuid.UUID       `json:"tenantId"`
	Name       string          `json:"name"`
	Phone      string          `json:"phone"`
	UnitCode   string          `json:"unitCode"`
	PropertyID uuid.UUID       `json:"propertyId"`
	Arrears    decimal.Decimal `json:"arrears"`
}

type PropertyArrears struct {
	PropertyID   uuid.UUID       `json:"propertyId"`
	PropertyName string          `json:"propertyName"`
	TenantCount  int             `json:"tenantCount"`
	TotalArrears decimal.Decimal `json:"totalArrears"`
}

type ArrearsResponse struct {
	Tenants      []ArrearsTenant   `json:"tenants"`
	Properties   []PropertyArrears `json:"properties"`
	TotalArrears decimal.Decimal   `json:"totalArrears"`
}

type UnmatchedPaymentsResponse struct {
	Payments []*models.UnmatchedPayment `json:"payments"`
}
