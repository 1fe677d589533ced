package dtos

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/shopspring/decimal"
)

type MoveInRequest struct {
	Name       string     `json:"name" validate:"required,min=2,max=120"`
	Phone      string     `json:"phone" validate:"required,min=9,max=16"`
	Email      *string    `json:"email,omitempty" validate:"omitempty,email"`
	UnitCode   string     `json:"unitCode" validate:"required,max=32"`
	MoveInDate *time.Time `json:"moveInDate,omitempty"`
}

type MoveOutRequest struct {
	MoveOutDate *time.Time `json:"moveOutDate,omitempty"`
}

type TenantDTO struct {
	ID          uuid.UUID               `json:"id"`
	Name        string                  `json:"name"`
	Phone       string                  `json:"phone"`
	UnitCode    string                  `json:"unitCode"`
	PropertyID  uuid.UUID               `json:"propertyId"`
	Status      models.TenantStatus     `json:"tenantStatus"`
	MoveInDate  time.Time               `json:"moveInDate"`
	MoveOutDate *time.Time              `json:"moveOutDate,omitempty"`
	Deposit     models.DepositState     `json:"deposit"`
	Summary     models.FinancialSummary `json:"financialSummary"`
	Ledger      *models.MonthlyLedger   `json:"monthlyLedger,omitempty"`
}

func NewTenantDTO(t *models.Tenant) *TenantDTO {
	return &TenantDTO{
		ID:          t.ID,
		Name:        t.Name,
		Phone:       t.Phone,
		UnitCode:    t.UnitCode,
		PropertyID:  t.PropertyID,
		Status:      t.Status,
		MoveInDate:  t.MoveInDate,
		MoveOutDate: t.MoveOutDate,
		Deposit:     t.Deposit,
		Summary:     t.Summary,
		Ledger:      t.Ledger,
	}
}

// LedgerResponse is a read of a tenant's ledger for one period. Persisted is
// false when the ledger was initialized for the read and not yet stored.
type LedgerResponse struct {
	TenantID      uuid.UUID             `json:"tenantId"`
	Period        models.Period         `json:"period"`
	Persisted     bool                  `json:"persisted"`
	Ledger        *models.MonthlyLedger `json:"ledger"`
	Obligation    models.Obligation     `json:"obligation"`
	Arrears       decimal.Decimal       `json:"arrears"`
	CreditBalance decimal.Decimal       `json:"creditBalance"`
}
