package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
)

type SMSLogRepository interface {
	Create(ctx context.Context, l *models.SMSLog) error
	ListByTenantID(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.SMSLog, error)
}

type smsLogRepo struct {
	db DB
}

func NewSMSLogRepository(db DB) SMSLogRepository {
	return &smsLogRepo{db: db}
}

func (r *smsLogRepo) Create(ctx context.Context, l *models.SMSLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO sms_logs (
			id, kind, tenant_id, phone, message, success, message_id, error, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8, NOW())
	`, l.ID, l.Kind, l.TenantID, l.Phone, l.Message, l.Success, l.MessageID, l.Error)
	return err
}

func (r *smsLogRepo) ListByTenantID(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.SMSLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, kind, tenant_id, phone, message, success, message_id, error, created_at
		FROM sms_logs
		WHERE tenant_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.SMSLog
	for rows.Next() {
		l, err := scanSMSLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanSMSLog(row pgx.Row) (*models.SMSLog, error) {
	var l models.SMSLog
	if err := row.Scan(
		&l.ID, &l.Kind, &l.TenantID, &l.Phone, &l.Message,
		&l.Success, &l.MessageID, &l.Error, &l.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}
