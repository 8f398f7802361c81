package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aradsms/sms_engine/internal/delivery_retrieval_service/domain"
	"github.com/aradsms/sms_engine/internal/platform/database"
	"github.com/jackc/pgx/v5"
)

type pgDeliveryRepository struct {
	db     database.Querier
	logger *slog.Logger
}

// NewPgDeliveryRepository creates the sms_history backed DeliveryRepository.
func NewPgDeliveryRepository(db database.Querier, logger *slog.Logger) domain.DeliveryRepository {
	return &pgDeliveryRepository{db: db, logger: logger.With("component", "delivery_repository_pg")}
}

func (r *pgDeliveryRepository) UpdateDeliveryStatus(ctx context.Context, smsID, status string, at time.Time) error {
	query := `UPDATE sms_history SET delivery_status = $1, dr_received_on = $2 WHERE id = $3`
	tag, err := r.db.Exec(ctx, query, status, at, smsID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update delivery status", "sms_id", smsID, "error", err)
		return fmt.Errorf("update delivery status of %s: %w", smsID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSmsNotFound
	}
	return nil
}

func (r *pgDeliveryRepository) SmsIDByMessageID(ctx context.Context, messageID string) (string, error) {
	query := `
		SELECT sms_id
		FROM sms_history_snapshots
		WHERE message_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var smsID string
	if err := r.db.QueryRow(ctx, query, messageID).Scan(&smsID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("find sms by message id %s: %w", messageID, err)
	}
	return smsID, nil
}

func (r *pgDeliveryRepository) ReportTarget(ctx context.Context, smsID string) (*domain.ReportTarget, error) {
	query := `
		SELECT h.id, h.account_id, COALESCE(h.formatted_mobile_number, h.mobile_number), h.label,
			COALESCE(ai.delivery_report_url, ''), COALESCE(ai.http_method_for_delivery_url, 'post')
		FROM sms_history h
		LEFT JOIN account_info ai ON ai.account_id = h.account_id AND ai.product_id = h.product_id
		WHERE h.id = $1
		LIMIT 1
	`
	var t domain.ReportTarget
	err := r.db.QueryRow(ctx, query, smsID).Scan(&t.SmsID, &t.AccountID, &t.MobileNumber, &t.Label, &t.DeliveryURL, &t.HTTPMethod)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load report target of %s: %w", smsID, err)
	}
	return &t, nil
}
