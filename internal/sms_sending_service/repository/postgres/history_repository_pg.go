package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aradsms/sms_engine/internal/platform/database"
	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PgHistoryRepository struct {
	db       database.Querier
	txRunner database.TxRunner
	logger   *slog.Logger
}

func NewPgHistoryRepository(db database.Querier, txRunner database.TxRunner, logger *slog.Logger) domain.HistoryRepository {
	return &PgHistoryRepository{db: db, txRunner: txRunner, logger: logger.With("component", "history_repository_pg")}
}

// Create inserts the history row and, on success sends, its snapshot in one
// transaction.
func (r *PgHistoryRepository) Create(ctx context.Context, h *domain.SmsHistory, snapshot *domain.SmsHistorySnapshot) error {
	return r.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO sms_history (
				id, account_id, product_id, label, mobile_number, formatted_mobile_number, sender_id, text,
				number_of_sms, encoding, source, service_provider_id, response_id, sent_status, status_message,
				credits, currency_code, delivery_status, is_international, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16::numeric, $17, $18, $19, $20)
		`
		_, err := tx.Exec(ctx, query,
			h.ID, h.AccountID, h.ProductID, h.Label, h.MobileNumber, h.FormattedMobileNumber, h.SenderID, h.Text,
			h.NumberOfSMS, h.Encoding, h.Source, h.ServiceProviderID, h.ResponseID, h.SentStatus, h.StatusMessage,
			h.Credits.String(), h.CurrencyCode, h.DeliveryStatus, h.IsInternational, h.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert sms_history: %w", err)
		}
		if snapshot == nil {
			return nil
		}

		snapshotQuery := `
			INSERT INTO sms_history_snapshots (id, sms_id, message_id, account_id, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.Exec(ctx, snapshotQuery, snapshot.ID, snapshot.SmsID, snapshot.MessageID, snapshot.AccountID, snapshot.CreatedAt); err != nil {
			return fmt.Errorf("insert sms_history_snapshot: %w", err)
		}
		return nil
	})
}

func (r *PgHistoryRepository) UpdateDeliveryStatus(ctx context.Context, smsID, status string, at time.Time) error {
	query := `UPDATE sms_history SET delivery_status = $1, dr_received_on = $2 WHERE id = $3`
	tag, err := r.db.Exec(ctx, query, status, at, smsID)
	if err != nil {
		return fmt.Errorf("update delivery status of %s: %w", smsID, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Delivery status for unknown sms", "sms_id", smsID)
		return domain.ErrInvalidSmsID
	}
	return nil
}

func (r *PgHistoryRepository) GetByID(ctx context.Context, smsID string) (*domain.SmsHistory, error) {
	query := `
		SELECT id, account_id, product_id, label, mobile_number, formatted_mobile_number, sender_id, text,
			number_of_sms, encoding, source, service_provider_id, response_id, sent_status, status_message,
			credits::text, currency_code, delivery_status, is_international, dr_received_on, created_at
		FROM sms_history
		WHERE id = $1
	`
	var (
		h       domain.SmsHistory
		credits string
	)
	err := r.db.QueryRow(ctx, query, smsID).Scan(
		&h.ID, &h.AccountID, &h.ProductID, &h.Label, &h.MobileNumber, &h.FormattedMobileNumber, &h.SenderID, &h.Text,
		&h.NumberOfSMS, &h.Encoding, &h.Source, &h.ServiceProviderID, &h.ResponseID, &h.SentStatus, &h.StatusMessage,
		&credits, &h.CurrencyCode, &h.DeliveryStatus, &h.IsInternational, &h.DRReceivedOn, &h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidSmsID
		}
		return nil, fmt.Errorf("get sms_history %s: %w", smsID, err)
	}
	if h.Credits, err = decimal.NewFromString(credits); err != nil {
		return nil, fmt.Errorf("parse credits: %w", err)
	}
	return &h, nil
}

func (r *PgHistoryRepository) GetSnapshotBySmsID(ctx context.Context, smsID string) (*domain.SmsHistorySnapshot, error) {
	query := `SELECT id, sms_id, message_id, account_id, created_at FROM sms_history_snapshots WHERE sms_id = $1`
	var s domain.SmsHistorySnapshot
	err := r.db.QueryRow(ctx, query, smsID).Scan(&s.ID, &s.SmsID, &s.MessageID, &s.AccountID, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidSmsID
		}
		return nil, fmt.Errorf("get sms_history_snapshot %s: %w", smsID, err)
	}
	return &s, nil
}
