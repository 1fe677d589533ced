package models

import (
	"time"

	"github.com/google/uuid"
)

// Property owns a set of units and the paybill tenants pay into.
type Property struct {
	Versioned
	ID            uuid.UUID `json:"id"`
	PropertyName  string    `json:"property_name"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	PaybillNumber string    `json:"paybill_number"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (p *Property) GetID() string { return p.ID.String() }
