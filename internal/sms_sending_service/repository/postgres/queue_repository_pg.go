package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/aradsms/sms_engine/internal/platform/database"
	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
)

type PgQueueRepository struct {
	db database.Querier
}

func NewPgQueueRepository(db database.Querier) domain.QueueRepository {
	return &PgQueueRepository{db: db}
}

func (r *PgQueueRepository) Create(ctx context.Context, e *domain.SmsQueueEntry) error {
	query := `
		INSERT INTO sms_queue (sms_id, account_id, label, sms_text, sender_id, mobile_number, source, encoding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query, e.SmsID, e.AccountID, e.Label, e.SmsText, e.SenderID, e.MobileNumber, e.Source, e.Encoding, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sms_queue: %w", err)
	}
	return nil
}

func (r *PgQueueRepository) Delete(ctx context.Context, smsID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sms_queue WHERE sms_id = $1`, smsID); err != nil {
		return fmt.Errorf("delete sms_queue %s: %w", smsID, err)
	}
	return nil
}

func (r *PgQueueRepository) ListStale(ctx context.Context, cutoff time.Time, maxReplays, limit int) ([]domain.SmsQueueEntry, error) {
	query := `
		SELECT sms_id, account_id, label, sms_text, sender_id, mobile_number, source, encoding, created_at,
			replay_count, replayed_at
		FROM sms_queue
		WHERE COALESCE(replayed_at, created_at) < $1 AND replay_count < $2
		ORDER BY created_at
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, cutoff, maxReplays, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale sms_queue: %w", err)
	}
	defer rows.Close()

	var out []domain.SmsQueueEntry
	for rows.Next() {
		var e domain.SmsQueueEntry
		if err := rows.Scan(&e.SmsID, &e.AccountID, &e.Label, &e.SmsText, &e.SenderID, &e.MobileNumber, &e.Source, &e.Encoding,
			&e.CreatedAt, &e.ReplayCount, &e.ReplayedAt); err != nil {
			return nil, fmt.Errorf("scan sms_queue: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PgQueueRepository) ClaimReplay(ctx context.Context, smsID string, seenCount int, at time.Time) (bool, error) {
	query := `
		UPDATE sms_queue SET replay_count = replay_count + 1, replayed_at = $1
		WHERE sms_id = $2 AND replay_count = $3
	`
	tag, err := r.db.Exec(ctx, query, at, smsID, seenCount)
	if err != nil {
		return false, fmt.Errorf("claim sms_queue replay %s: %w", smsID, err)
	}
	return tag.RowsAffected() == 1, nil
}
