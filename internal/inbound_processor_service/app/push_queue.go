package app

import (
	"context"
	"log/slog"

	"github.com/aradsms/sms_engine/internal/inbound_processor_service/domain"
	"github.com/aradsms/sms_engine/internal/platform/messagebroker"
)

// pushQueue enqueues webhook pushes. Failures are logged only; the message
// keeps push_url_status false and is picked up by repush.
type pushQueue struct {
	tasks  messagebroker.TaskEnqueuer
	queue  string
	logger *slog.Logger
}

func newPushQueue(tasks messagebroker.TaskEnqueuer, queue string, logger *slog.Logger) *pushQueue {
	return &pushQueue{tasks: tasks, queue: queue, logger: logger}
}

func (q *pushQueue) enqueue(ctx context.Context, sms *domain.IncomingSms, cfg *domain.IncomingConfig) bool {
	if cfg.PushToURL == "" {
		q.logger.WarnContext(ctx, "Push url is empty, push skipped", "incoming_sms_id", sms.ID, "account_id", sms.AccountID)
		return false
	}
	payload := domain.PushPayload{
		ID:         sms.ID,
		SentFrom:   sms.MobileNumber,
		SentTo:     cfg.ShortCode,
		Msg:        sms.Message,
		Timestamp:  sms.CreatedAt.Format(domain.PushTimestampLayout),
		URL:        cfg.PushToURL,
		HTTPMethod: cfg.HTTPMethod,
	}
	if err := q.tasks.Enqueue(ctx, domain.TaskPushIncomingToURL, payload, q.queue); err != nil {
		q.logger.ErrorContext(ctx, "Failed to enqueue incoming push", "incoming_sms_id", sms.ID, "error", err)
		return false
	}
	return true
}
