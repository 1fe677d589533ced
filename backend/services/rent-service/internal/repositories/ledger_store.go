package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/services"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/rentflow/mono-repo/backend/shared/go-repositories"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
)

const (
	pgUniqueViolation = "23505"

	// Partial unique index on tenants(unit_code) for active tenants.
	activeTenantPerUnitIndex = "tenants_one_active_per_unit"
)

// LedgerStore implements services.Store over Postgres using the shared
// repositories. Inside WithTx the same repositories are rebuilt over the
// pgx.Tx so row locks and writes share one transaction.
type LedgerStore struct {
	db         repositories.DB
	properties repositories.PropertyRepository
	tenants    repositories.TenantRepository
	units      repositories.UnitRepository
	payments   repositories.RentalPaymentRepository
	unmatched  repositories.UnmatchedPaymentRepository
	smsLogs    repositories.SMSLogRepository
}

var _ services.Store = (*LedgerStore)(nil)

func NewLedgerStore(db repositories.DB) *LedgerStore {
	return &LedgerStore{
		db:         db,
		properties: repositories.NewPropertyRepository(db),
		tenants:    repositories.NewTenantRepository(db),
		units:      repositories.NewUnitRepository(db),
		payments:   repositories.NewRentalPaymentRepository(db),
		unmatched:  repositories.NewUnmatchedPaymentRepository(db),
		smsLogs:    repositories.NewSMSLogRepository(db),
	}
}

func (s *LedgerStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.tenants.GetByID(ctx, id)
}

func (s *LedgerStore) FindTenantByPhone(ctx context.Context, phone string) (*models.Tenant, error) {
	return s.tenants.FindByPhone(ctx, phone)
}

func (s *LedgerStore) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	return s.tenants.ListAll(ctx)
}

func (s *LedgerStore) ListActiveTenants(ctx context.Context) ([]*models.Tenant, error) {
	return s.tenants.ListActive(ctx)
}

func (s *LedgerStore) GetUnitByCode(ctx context.Context, unitCode string) (*models.Unit, error) {
	return s.units.GetByCode(ctx, unitCode)
}

func (s *LedgerStore) ListProperties(ctx context.Context) ([]*models.Property, error) {
	return s.properties.ListAllProperties(ctx)
}

func (s *LedgerStore) PaymentExists(ctx context.Context, transactionID string) (bool, error) {
	return s.payments.Exists(ctx, transactionID)
}

func (s *LedgerStore) RecordUnmatched(ctx context.Context, p *models.UnmatchedPayment) (bool, error) {
	return s.unmatched.CreateIfAbsent(ctx, p)
}

func (s *LedgerStore) ListUnmatched(ctx context.Context) ([]*models.UnmatchedPayment, error) {
	return s.unmatched.ListUnresolved(ctx)
}

func (s *LedgerStore) LogSMS(ctx context.Context, l *models.SMSLog) error {
	return s.smsLogs.Create(ctx, l)
}

func (s *LedgerStore) WithTx(ctx context.Context, fn func(tx services.StoreTx) error) error {
	return repositories.RunInTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&ledgerStoreTx{
			tenants:  repositories.NewTenantRepository(tx),
			units:    repositories.NewUnitRepository(tx),
			payments: repositories.NewRentalPaymentRepository(tx),
		})
	})
}

type ledgerStoreTx struct {
	tenants  repositories.TenantRepository
	units    repositories.UnitRepository
	payments repositories.RentalPaymentRepository
}

func (tx *ledgerStoreTx) LockTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return tx.tenants.GetByIDForUpdate(ctx, id)
}

func (tx *ledgerStoreTx) LockUnitByCode(ctx context.Context, unitCode string) (*models.Unit, error) {
	return tx.units.GetByCodeForUpdate(ctx, unitCode)
}

func (tx *ledgerStoreTx) FindActiveTenantByUnit(ctx context.Context, unitCode string) (*models.Tenant, error) {
	return tx.tenants.FindActiveByUnitCode(ctx, unitCode)
}

func (tx *ledgerStoreTx) CreatePaymentIfAbsent(ctx context.Context, p *models.RentalPayment) (bool, error) {
	return tx.payments.CreateIfAbsent(ctx, p)
}

func (tx *ledgerStoreTx) CreateTenant(ctx context.Context, t *models.Tenant) error {
	if err := tx.tenants.Create(ctx, t); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == activeTenantPerUnitIndex {
			return fmt.Errorf("%w: unit %s", services.ErrUnitOccupied, t.UnitCode)
		}
		return err
	}
	t.RowVersion = 1
	return nil
}

func (tx *ledgerStoreTx) SaveTenant(ctx context.Context, t *models.Tenant) error {
	tag, err := tx.tenants.UpdateIfVersion(ctx, t, t.RowVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenant %s: %w", t.ID, utils.ErrRowVersionConflict)
	}
	t.RowVersion++
	return nil
}

func (tx *ledgerStoreTx) SaveUnit(ctx context.Context, u *models.Unit) error {
	tag, err := tx.units.UpdateIfVersion(ctx, u, u.RowVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("unit %s: %w", u.UnitCode, utils.ErrRowVersionConflict)
	}
	u.RowVersion++
	return nil
}
