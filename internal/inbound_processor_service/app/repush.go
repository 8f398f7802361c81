package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aradsms/sms_engine/internal/inbound_processor_service/domain"
	"github.com/aradsms/sms_engine/internal/platform/messagebroker"
)

// Repusher re-queues webhook pushes for messages whose push never
// succeeded.
type Repusher struct {
	inbox   domain.InboxRepository
	routing domain.RoutingRepository
	pushes  *pushQueue
	logger  *slog.Logger
	now     func() time.Time
}

func NewRepusher(inbox domain.InboxRepository, routing domain.RoutingRepository, tasks messagebroker.TaskEnqueuer, pushQueueName string, logger *slog.Logger) *Repusher {
	logger = logger.With("component", "repusher")
	return &Repusher{
		inbox:   inbox,
		routing: routing,
		pushes:  newPushQueue(tasks, pushQueueName, logger),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RepushByIDs re-queues the listed messages and returns how many were queued.
func (r *Repusher) RepushByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, domain.ErrEmptyRepushList
	}
	msgs, err := r.inbox.ListUnpushedByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("list unpushed incoming sms: %w", err)
	}
	return r.repush(ctx, msgs)
}

// RepushByAccountIDs re-queues every unpushed message of the accounts.
func (r *Repusher) RepushByAccountIDs(ctx context.Context, accountIDs []int64) (int, error) {
	if len(accountIDs) == 0 {
		return 0, domain.ErrEmptyRepushList
	}
	msgs, err := r.inbox.ListUnpushedByAccounts(ctx, accountIDs)
	if err != nil {
		return 0, fmt.Errorf("list unpushed incoming sms: %w", err)
	}
	return r.repush(ctx, msgs)
}

// RepushRecent re-queues unpushed messages received within lookback.
func (r *Repusher) RepushRecent(ctx context.Context, lookback time.Duration) (int, error) {
	msgs, err := r.inbox.ListUnpushedSince(ctx, r.now().Add(-lookback))
	if err != nil {
		return 0, fmt.Errorf("list unpushed incoming sms: %w", err)
	}
	return r.repush(ctx, msgs)
}

// Run calls RepushRecent every interval until ctx is cancelled.
func (r *Repusher) Run(ctx context.Context, interval, lookback time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := r.RepushRecent(ctx, lookback)
			if err != nil {
				r.logger.ErrorContext(ctx, "Periodic repush failed", "error", err)
				continue
			}
			r.logger.InfoContext(ctx, "Periodic repush done", "queued", n)
		}
	}
}

func (r *Repusher) repush(ctx context.Context, msgs []domain.IncomingSms) (int, error) {
	if len(msgs) == 0 {
		r.logger.InfoContext(ctx, "Nothing to repush")
		return 0, nil
	}

	configs := make(map[int64][]domain.IncomingConfig)
	queued := 0
	for i := range msgs {
		m := &msgs[i]
		cfgs, ok := configs[m.AccountID]
		if !ok {
			var err error
			if cfgs, err = r.routing.ListAccountConfigs(ctx, m.AccountID); err != nil {
				return queued, fmt.Errorf("list incoming configs of account %d: %w", m.AccountID, err)
			}
			configs[m.AccountID] = cfgs
		}

		cfg := matchConfig(cfgs, m)
		if cfg == nil {
			r.logger.WarnContext(ctx, "No incoming config for message, repush skipped", "incoming_sms_id", m.ID, "account_id", m.AccountID)
			continue
		}
		if r.pushes.enqueue(ctx, m, cfg) {
			pushEnqueuedCounter.WithLabelValues("repush").Inc()
			queued++
		}
	}
	return queued, nil
}

// matchConfig picks the config for a stored message: a non-shared number
// matches on short code alone, a shared one on keyword and then
// sub-keyword.
func matchConfig(cfgs []domain.IncomingConfig, m *domain.IncomingSms) *domain.IncomingConfig {
	var chosen *domain.IncomingConfig
	for i := range cfgs {
		c := &cfgs[i]
		if c.ShortCode != m.ShortCode {
			continue
		}
		if !c.SharedNumber {
			return c
		}
		if strings.EqualFold(c.Keyword, m.Keyword) {
			chosen = c
			if strings.EqualFold(c.SubKeyword, m.SubKeyword) {
				return c
			}
		}
	}
	return chosen
}
