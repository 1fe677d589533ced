package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
)

/* ───────────── public interface ───────────── */

type UnitRepository interface {
	Create(ctx context.Context, u *models.Unit) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	GetByCode(ctx context.Context, code string) (*models.Unit, error)
	// GetByCodeForUpdate row-locks the unit; only meaningful on a transaction.
	GetByCodeForUpdate(ctx context.Context, code string) (*models.Unit, error)
	ListByPropertyID(ctx context.Context, propID uuid.UUID) ([]*models.Unit, error)

	Update(ctx context.Context, u *models.Unit) error
	UpdateIfVersion(ctx context.Context, u *models.Unit, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Unit) error) error
}

/* ───────────── implementation ───────────── */

type unitRepo struct {
	*BaseVersionedRepo[*models.Unit]
	db DB
}

func NewUnitRepository(db DB) UnitRepository {
	r := &unitRepo{db: db}
	selectStmt := baseSelectUnit() + " WHERE id=$1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, r.scanUnit)
	return r
}

/* ---------- create ---------- */

func (r *unitRepo) Create(ctx context.Context, u *models.Unit) error {
	u.ApplyDefaults()
	_, err := r.db.Exec(ctx, `
		INSERT INTO units (
			id, unit_code, property_id, rent_amount, deposit_amount,
			garbage_fee, water_fee, is_vacant, tenant_id,
			current_period_paid, current_period_status,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, NOW(), NOW(), 1)
	`, u.ID, u.UnitCode, u.PropertyID, u.RentAmount, u.DepositAmount,
		u.UtilityFees.Garbage, u.UtilityFees.Water, u.IsVacant, u.TenantID,
		u.CurrentPeriodPaid, u.CurrentPeriodStatus)
	return err
}

/* ---------- reads ---------- */

func (r *unitRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *unitRepo) GetByCode(ctx context.Context, code string) (*models.Unit, error) {
	row := r.db.QueryRow(ctx, baseSelectUnit()+" WHERE unit_code=$1", code)
	return r.scanUnit(row)
}

func (r *unitRepo) GetByCodeForUpdate(ctx context.Context, code string) (*models.Unit, error) {
	row := r.db.QueryRow(ctx, baseSelectUnit()+" WHERE unit_code=$1 FOR UPDATE", code)
	return r.scanUnit(row)
}

func (r *unitRepo) ListByPropertyID(ctx context.Context, propID uuid.UUID) ([]*models.Unit, error) {
	rows, err := r.db.Query(ctx, baseSelectUnit()+" WHERE property_id=$1 ORDER BY unit_code", propID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanUnits(rows)
}

/* ---------- update ---------- */

func (r *unitRepo) Update(ctx context.Context, u *models.Unit) error {
	_, err := r.update(ctx, u, false, 0)
	return err
}

func (r *unitRepo) UpdateIfVersion(ctx context.Context, u *models.Unit, expected int64) (pgconn.CommandTag, error) {
	return r.update(ctx, u, true, expected)
}

func (r *unitRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Unit) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func (r *unitRepo) update(ctx context.Context, u *models.Unit, check bool, expected int64) (pgconn.CommandTag, error) {
	sql := `
		UPDATE units
		SET rent_amount=$1, deposit_amount=$2, garbage_fee=$3, water_fee=$4,
		    is_vacant=$5, tenant_id=$6,
		    current_period_paid=$7, current_period_status=$8,
		    last_payment_at=$9, last_payment_amount=$10, last_payment_transaction_id=$11,
		    updated_at=NOW(), row_version=row_version+1
	`
	args := []any{
		u.RentAmount, u.DepositAmount, u.UtilityFees.Garbage, u.UtilityFees.Water,
		u.IsVacant, u.TenantID,
		u.CurrentPeriodPaid, u.CurrentPeriodStatus,
		u.LastPaymentAt, u.LastPaymentAmount, u.LastPaymentTransactionID,
	}
	if check {
		sql += ` WHERE id=$12 AND row_version=$13`
		args = append(args, u.ID, expected)
	} else {
		sql += ` WHERE id=$12`
		args = append(args, u.ID)
	}
	return r.db.Exec(ctx, sql, args...)
}

/* ---------- internals ---------- */

func baseSelectUnit() string {
	return `
		SELECT id, unit_code, property_id, rent_amount, deposit_amount,
		       garbage_fee, water_fee, is_vacant, tenant_id,
		       current_period_paid, current_period_status,
		       last_payment_at, last_payment_amount, last_payment_transaction_id,
		       created_at, updated_at, row_version
		FROM units`
}

func (r *unitRepo) scanUnit(row pgx.Row) (*models.Unit, error) {
	var u models.Unit
	if err := row.Scan(
		&u.ID, &u.UnitCode, &u.PropertyID, &u.RentAmount, &u.DepositAmount,
		&u.UtilityFees.Garbage, &u.UtilityFees.Water, &u.IsVacant, &u.TenantID,
		&u.CurrentPeriodPaid, &u.CurrentPeriodStatus,
		&u.LastPaymentAt, &u.LastPaymentAmount, &u.LastPaymentTransactionID,
		&u.CreatedAt, &u.UpdatedAt, &u.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	u.ApplyDefaults()
	return &u, nil
}

func (r *unitRepo) scanUnits(rows pgx.Rows) ([]*models.Unit, error) {
	var out []*models.Unit
	for rows.Next() {
		u, err := r.scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
