package repositories

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
)

type UnmatchedPaymentRepository interface {
	// CreateIfAbsent reports false when the transaction is already queued.
	CreateIfAbsent(ctx context.Context, p *models.UnmatchedPayment) (bool, error)
	ListUnresolved(ctx context.Context) ([]*models.UnmatchedPayment, error)
}

type unmatchedPaymentRepo struct {
	db DB
}

func NewUnmatchedPaymentRepository(db DB) UnmatchedPaymentRepository {
	return &unmatchedPaymentRepo{db: db}
}

func (r *unmatchedPaymentRepo) CreateIfAbsent(ctx context.Context, p *models.UnmatchedPayment) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO unmatched_payments (
			transaction_id, amount, sender_name, sender_phone, account_reference,
			occurred_at, raw_message, reason, resolved, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8, FALSE, NOW())
		ON CONFLICT (transaction_id) DO NOTHING
	`, p.TransactionID, p.Amount, p.SenderName, p.SenderPhone, p.AccountReference,
		p.OccurredAt, p.RawMessage, p.Reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *unmatchedPaymentRepo) ListUnresolved(ctx context.Context) ([]*models.UnmatchedPayment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT transaction_id, amount, sender_name, sender_phone, account_reference,
		       occurred_at, raw_message, reason, resolved, created_at
		FROM unmatched_payments
		WHERE resolved = FALSE
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.UnmatchedPayment
	for rows.Next() {
		p, err := scanUnmatchedPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanUnmatchedPayment(row pgx.Row) (*models.UnmatchedPayment, error) {
	var p models.UnmatchedPayment
	if err := row.Scan(
		&p.TransactionID, &p.Amount, &p.SenderName, &p.SenderPhone, &p.AccountReference,
		&p.OccurredAt, &p.RawMessage, &p.Reason, &p.Resolved, &p.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
