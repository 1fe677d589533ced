package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
)

/* ───────────── public interface ───────────── */

type TenantRepository interface {
	Create(ctx context.Context, t *models.Tenant) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	// GetByIDForUpdate row-locks the tenant; only meaningful on a transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	// FindByPhone prefers active tenants, then the most recently created.
	FindByPhone(ctx context.Context, phone string) (*models.Tenant, error)
	FindActiveByUnitCode(ctx context.Context, unitCode string) (*models.Tenant, error)
	ListAll(ctx context.Context) ([]*models.Tenant, error)
	ListActive(ctx context.Context) ([]*models.Tenant, error)

	Update(ctx context.Context, t *models.Tenant) error
	UpdateIfVersion(ctx context.Context, t *models.Tenant, expected int64) (pgconn.CommandTag, error)
}

/* ───────────── implementation ───────────── */

type tenantRepo struct {
	*BaseVersionedRepo[*models.Tenant]
	db DB
}

func NewTenantRepository(db DB) TenantRepository {
	r := &tenantRepo{db: db}
	r.BaseVersionedRepo = NewBaseRepo(db, baseSelectTenant()+" WHERE id=$1", scanTenant)
	return r
}

func (r *tenantRepo) Create(ctx context.Context, t *models.Tenant) error {
	t.ApplyDefaults()
	ledger, logs, err := marshalTenantDocs(t)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO tenants (
			id, name, phone, email, unit_code, property_id,
			move_in_date, move_out_date, tenant_status,
			deposit_amount, deposit_status, deposit_paid_date,
			arrears, total_paid, credit_balance, last_payment_at,
			monthly_ledger, payment_log,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18, NOW(), NOW(), 1)
	`,
		t.ID, t.Name, t.Phone, t.Email, t.UnitCode, t.PropertyID,
		t.MoveInDate, t.MoveOutDate, t.Status,
		t.Deposit.Amount, t.Deposit.Status, t.Deposit.PaidDate,
		t.Summary.Arrears, t.Summary.TotalPaid, t.Summary.CreditBalance, t.Summary.LastPaymentAt,
		ledger, logs,
	)
	return err
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *tenantRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return r.BaseVersionedRepo.GetByIDForUpdate(ctx, id.String())
}

func (r *tenantRepo) FindByPhone(ctx context.Context, phone string) (*models.Tenant, error) {
	row := r.db.QueryRow(ctx, baseSelectTenant()+`
		WHERE phone=$1
		ORDER BY (tenant_status = 'active') DESC, created_at DESC
		LIMIT 1`, phone)
	return scanTenant(row)
}

func (r *tenantRepo) FindActiveByUnitCode(ctx context.Context, unitCode string) (*models.Tenant, error) {
	row := r.db.QueryRow(ctx, baseSelectTenant()+`
		WHERE unit_code=$1 AND tenant_status='active'
		LIMIT 1`, unitCode)
	return scanTenant(row)
}

func (r *tenantRepo) ListAll(ctx context.Context) ([]*models.Tenant, error) {
	return r.list(ctx, baseSelectTenant()+" ORDER BY created_at")
}

func (r *tenantRepo) ListActive(ctx context.Context) ([]*models.Tenant, error) {
	return r.list(ctx, baseSelectTenant()+" WHERE tenant_status='active' ORDER BY created_at")
}

func (r *tenantRepo) list(ctx context.Context, sql string, args ...any) ([]*models.Tenant, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *tenantRepo) Update(ctx context.Context, t *models.Tenant) error {
	_, err := r.update(ctx, t, false, 0)
	return err
}

func (r *tenantRepo) UpdateIfVersion(ctx context.Context, t *models.Tenant, expected int64) (pgconn.CommandTag, error) {
	return r.update(ctx, t, true, expected)
}

func (r *tenantRepo) update(ctx context.Context, t *models.Tenant, check bool, expected int64) (pgconn.CommandTag, error) {
	ledger, logs, err := marshalTenantDocs(t)
	if err != nil {
		return nil, err
	}
	sql := `
		UPDATE tenants
		SET name=$1, phone=$2, email=$3, move_out_date=$4, tenant_status=$5,
		    deposit_amount=$6, deposit_status=$7, deposit_paid_date=$8,
		    arrears=$9, total_paid=$10, credit_balance=$11, last_payment_at=$12,
		    monthly_ledger=$13, payment_log=$14,
		    updated_at=NOW(), row_version=row_version+1
	`
	args := []any{
		t.Name, t.Phone, t.Email, t.MoveOutDate, t.Status,
		t.Deposit.Amount, t.Deposit.Status, t.Deposit.PaidDate,
		t.Summary.Arrears, t.Summary.TotalPaid, t.Summary.CreditBalance, t.Summary.LastPaymentAt,
		ledger, logs,
	}
	if check {
		sql += ` WHERE id=$15 AND row_version=$16`
		args = append(args, t.ID, expected)
	} else {
		sql += ` WHERE id=$15`
		args = append(args, t.ID)
	}
	return r.db.Exec(ctx, sql, args...)
}

/* ---------- internals ---------- */

func baseSelectTenant() string {
	return `
		SELECT id, name, phone, email, unit_code, property_id,
		       move_in_date, move_out_date, tenant_status,
		       deposit_amount, deposit_status, deposit_paid_date,
		       arrears, total_paid, credit_balance, last_payment_at,
		       monthly_ledger, payment_log,
		       created_at, updated_at, row_version
		FROM tenants`
}

// marshalTenantDocs encodes the JSONB columns. A nil ledger is stored as NULL.
func marshalTenantDocs(t *models.Tenant) ([]byte, []byte, error) {
	var ledger []byte
	if t.Ledger != nil {
		b, err := json.Marshal(t.Ledger)
		if err != nil {
			return nil, nil, fmt.Errorf("encode monthly_ledger: %w", err)
		}
		ledger = b
	}
	logs := t.PaymentLog
	if logs == nil {
		logs = []models.PaymentLogEntry{}
	}
	logBytes, err := json.Marshal(logs)
	if err != nil {
		return nil, nil, fmt.Errorf("encode payment_log: %w", err)
	}
	return ledger, logBytes, nil
}

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var (
		t          models.Tenant
		ledgerJSON []byte
		logJSON    []byte
	)
	if err := row.Scan(
		&t.ID, &t.Name, &t.Phone, &t.Email, &t.UnitCode, &t.PropertyID,
		&t.MoveInDate, &t.MoveOutDate, &t.Status,
		&t.Deposit.Amount, &t.Deposit.Status, &t.Deposit.PaidDate,
		&t.Summary.Arrears, &t.Summary.TotalPaid, &t.Summary.CreditBalance, &t.Summary.LastPaymentAt,
		&ledgerJSON, &logJSON,
		&t.CreatedAt, &t.UpdatedAt, &t.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(ledgerJSON) > 0 {
		var l models.MonthlyLedger
		if err := json.Unmarshal(ledgerJSON, &l); err != nil {
			return nil, fmt.Errorf("decode monthly_ledger for tenant %s: %w", t.ID, err)
		}
		t.Ledger = &l
	}
	if len(logJSON) > 0 {
		if err := json.Unmarshal(logJSON, &t.PaymentLog); err != nil {
			return nil, fmt.Errorf("decode payment_log for tenant %s: %w", t.ID, err)
		}
	}
	t.ApplyDefaults()
	return &t, nil
}
