package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aradsms/sms_engine/internal/platform/messagebroker"
	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
)

// SentChecker reports whether a send already produced a history row.
type SentChecker interface {
	GetByID(ctx context.Context, smsID string) (*domain.SmsHistory, error)
}

type ReplayConfig struct {
	// After is how long a backup may sit unprocessed before it is
	// republished. Keep it well above the job timeout.
	After      time.Duration
	MaxReplays int
	BatchSize  int
}

// QueueReplayer republishes send jobs whose sms_queue backup outlived the
// job that should have cleared it.
type QueueReplayer struct {
	queue     domain.QueueRepository
	history   SentChecker
	publisher messagebroker.Publisher
	subject   string
	cfg       ReplayConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewQueueReplayer(queue domain.QueueRepository, history SentChecker, publisher messagebroker.Publisher, subject string, cfg ReplayConfig, logger *slog.Logger) *QueueReplayer {
	if cfg.After <= 0 {
		cfg.After = 5 * time.Minute
	}
	if cfg.MaxReplays <= 0 {
		cfg.MaxReplays = 5
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &QueueReplayer{
		queue:     queue,
		history:   history,
		publisher: publisher,
		subject:   subject,
		cfg:       cfg,
		logger:    logger.With("component", "queue_replayer"),
		now:       time.Now,
	}
}

// Run replays on every tick until ctx is cancelled.
func (r *QueueReplayer) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "Starting send queue replay", "interval", interval, "after", r.cfg.After)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.Replay(ctx); err != nil {
				r.logger.ErrorContext(ctx, "Send queue replay failed", "error", err)
			}
		}
	}
}

// Replay republishes one batch of stale backups and returns how many went
// out. Backups of jobs that already have a history row are removed.
func (r *QueueReplayer) Replay(ctx context.Context) (int, error) {
	now := r.now().UTC()
	entries, err := r.queue.ListStale(ctx, now.Add(-r.cfg.After), r.cfg.MaxReplays, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	replayed := 0
	for i := range entries {
		e := &entries[i]
		logger := r.logger.With("sms_id", e.SmsID, "account_id", e.AccountID, "replay_count", e.ReplayCount)

		sent, err := r.alreadySent(ctx, e.SmsID)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to check history for queued job", "error", err)
			continue
		}
		if sent {
			if err := r.queue.Delete(ctx, e.SmsID); err != nil {
				logger.WarnContext(ctx, "Failed to delete sms queue backup", "error", err)
			}
			queueReplayCounter.WithLabelValues("already_sent").Inc()
			continue
		}

		claimed, err := r.queue.ClaimReplay(ctx, e.SmsID, e.ReplayCount, now)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to claim queued job", "error", err)
			continue
		}
		if !claimed {
			continue
		}
		if err := r.publish(ctx, e); err != nil {
			logger.ErrorContext(ctx, "Failed to republish queued job", "error", err)
			queueReplayCounter.WithLabelValues("error").Inc()
			continue
		}
		if e.ReplayCount+1 >= r.cfg.MaxReplays {
			logger.WarnContext(ctx, "Queued job reached its last replay")
		}
		queueReplayCounter.WithLabelValues("replayed").Inc()
		replayed++
	}
	if replayed > 0 {
		r.logger.InfoContext(ctx, "Republished stale send jobs", "count", replayed, "stale", len(entries))
	}
	return replayed, nil
}

func (r *QueueReplayer) alreadySent(ctx context.Context, smsID string) (bool, error) {
	_, err := r.history.GetByID(ctx, smsID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrInvalidSmsID):
		return false, nil
	default:
		return false, err
	}
}

func (r *QueueReplayer) publish(ctx context.Context, e *domain.SmsQueueEntry) error {
	data, err := json.Marshal(domain.SendJob{
		SmsID:        e.SmsID,
		AccountID:    e.AccountID,
		Label:        e.Label,
		SmsText:      e.SmsText,
		SenderID:     e.SenderID,
		MobileNumber: e.MobileNumber,
		Source:       e.Source,
		Encoding:     e.Encoding,
		QueuedAt:     e.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal send job: %w", err)
	}
	return r.publisher.Publish(ctx, r.subject, data)
}
