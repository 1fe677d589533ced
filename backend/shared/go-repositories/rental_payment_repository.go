package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
)

type RentalPaymentRepository interface {
	// CreateIfAbsent inserts p keyed by its transaction id. It reports false,
	// without error, when a payment with that id already exists.
	CreateIfAbsent(ctx context.Context, p *models.RentalPayment) (bool, error)
	Exists(ctx context.Context, transactionID string) (bool, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*models.RentalPayment, error)
	ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*models.RentalPayment, error)
}

type rentalPaymentRepo struct {
	db DB
}

func NewRentalPaymentRepository(db DB) RentalPaymentRepository {
	return &rentalPaymentRepo{db: db}
}

func (r *rentalPaymentRepo) CreateIfAbsent(ctx context.Context, p *models.RentalPayment) (bool, error) {
	alloc, err := json.Marshal(p.Allocation)
	if err != nil {
		return false, fmt.Errorf("encode allocation: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		INSERT INTO rental_payments (
			transaction_id, tenant_id, tenant_name, unit_code, property_id,
			amount, sender_name, sender_phone, account_reference,
			occurred_at, payment_period, ledger_period, allocation,
			ledger_status, match_strategy, raw_message, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16, NOW())
		ON CONFLICT (transaction_id) DO NOTHING
	`,
		p.TransactionID, p.TenantID, p.TenantName, p.UnitCode, p.PropertyID,
		p.Amount, p.SenderName, p.SenderPhone, p.AccountReference,
		p.OccurredAt, p.PaymentPeriod, p.LedgerPeriod, alloc,
		p.LedgerStatus, p.MatchStrategy, p.RawMessage,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *rentalPaymentRepo) Exists(ctx context.Context, transactionID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM rental_payments WHERE transaction_id=$1)`,
		transactionID,
	).Scan(&exists)
	return exists, err
}

func (r *rentalPaymentRepo) GetByTransactionID(ctx context.Context, transactionID string) (*models.RentalPayment, error) {
	row := r.db.QueryRow(ctx, baseSelectRentalPayment()+" WHERE transaction_id=$1", transactionID)
	return scanRentalPayment(row)
}

func (r *rentalPaymentRepo) ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*models.RentalPayment, error) {
	rows, err := r.db.Query(ctx, baseSelectRentalPayment()+" WHERE tenant_id=$1 ORDER BY occurred_at DESC", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.RentalPayment
	for rows.Next() {
		p, err := scanRentalPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func baseSelectRentalPayment() string {
	return `
		SELECT transaction_id, tenant_id, tenant_name, unit_code, property_id,
		       amount, sender_name, sender_phone, account_reference,
		       occurred_at, payment_period, ledger_period, allocation,
		       ledger_status, match_strategy, raw_message, created_at
		FROM rental_payments`
}

func scanRentalPayment(row pgx.Row) (*models.RentalPayment, error) {
	var (
		p         models.RentalPayment
		allocJSON []byte
	)
	if err := row.Scan(
		&p.TransactionID, &p.TenantID, &p.TenantName, &p.UnitCode, &p.PropertyID,
		&p.Amount, &p.SenderName, &p.SenderPhone, &p.AccountReference,
		&p.OccurredAt, &p.PaymentPeriod, &p.LedgerPeriod, &allocJSON,
		&p.LedgerStatus, &p.MatchStrategy, &p.RawMessage, &p.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(allocJSON) > 0 {
		if err := json.Unmarshal(allocJSON, &p.Allocation); err != nil {
			return nil, fmt.Errorf("decode allocation for %s: %w", p.TransactionID, err)
		}
	}
	return &p, nil
}
