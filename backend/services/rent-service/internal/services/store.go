package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
)

// Store is the persistence surface the rent services need. Getters return
// (nil, nil) when nothing matches.
type Store interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	// FindTenantByPhone matches the stored local 0XXXXXXXXX form. Active
	// tenants win over inactive ones, then the most recently created.
	FindTenantByPhone(ctx context.Context, phone string) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
	ListActiveTenants(ctx context.Context) ([]*models.Tenant, error)
	GetUnitByCode(ctx context.Context, unitCode string) (*models.Unit, error)
	ListProperties(ctx context.Context) ([]*models.Property, error)
	PaymentExists(ctx context.Context, transactionID string) (bool, error)
	RecordUnmatched(ctx context.Context, p *models.UnmatchedPayment) (bool, error)
	ListUnmatched(ctx context.Context) ([]*models.UnmatchedPayment, error)
	LogSMS(ctx context.Context, l *models.SMSLog) error

	// WithTx runs fn in one transaction; a returned error rolls back.
	WithTx(ctx context.Context, fn func(tx StoreTx) error) error
}

// StoreTx is the transactional view used while mutating a tenant. Lock
// methods hold the row until the transaction ends.
type StoreTx interface {
	LockTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	LockUnitByCode(ctx context.Context, unitCode string) (*models.Unit, error)
	FindActiveTenantByUnit(ctx context.Context, unitCode string) (*models.Tenant, error)
	// CreatePaymentIfAbsent returns false when the transaction id is taken.
	CreatePaymentIfAbsent(ctx context.Context, p *models.RentalPayment) (bool, error)
	CreateTenant(ctx context.Context, t *models.Tenant) error
	// SaveTenant and SaveUnit are version checked and fail with
	// utils.ErrRowVersionConflict on a stale row.
	SaveTenant(ctx context.Context, t *models.Tenant) error
	SaveUnit(ctx context.Context, u *models.Unit) error
}
