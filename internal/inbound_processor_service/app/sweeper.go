package app

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aradsms/sms_engine/internal/inbound_processor_service/domain"
	"golang.org/x/sync/errgroup"
)

const sweepLockKey = "inbound:stale_parts_sweep"

// Locker is a cluster wide mutex with a TTL.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

// StaleCompleter force-joins one stale part group.
type StaleCompleter interface {
	CompleteStale(ctx context.Context, g domain.StaleGroup) (*domain.IncomingSms, error)
}

type SweeperConfig struct {
	StaleMin    time.Duration
	StaleMax    time.Duration
	LockTTL     time.Duration
	Concurrency int
}

// Sweeper completes part groups that stopped receiving fragments. Only the
// lock holder sweeps; the window keeps it clear of groups still arriving.
type Sweeper struct {
	inbox     domain.InboxRepository
	completer StaleCompleter
	locker    Locker
	cfg       SweeperConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewSweeper(inbox domain.InboxRepository, completer StaleCompleter, locker Locker, cfg SweeperConfig, logger *slog.Logger) *Sweeper {
	if cfg.StaleMin <= 0 {
		cfg.StaleMin = time.Hour
	}
	if cfg.StaleMax <= cfg.StaleMin {
		cfg.StaleMax = cfg.StaleMin + 4*time.Hour
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Sweeper{
		inbox:     inbox,
		completer: completer,
		locker:    locker,
		cfg:       cfg,
		logger:    logger.With("component", "stale_parts_sweeper"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Stale parts sweep failed", "error", err)
			}
		}
	}
}

// Sweep completes every stale group and returns how many were joined. It
// does nothing while another process holds the sweep lock.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	token, ok, err := s.locker.TryLock(ctx, sweepLockKey, s.cfg.LockTTL)
	if err != nil {
		return 0, err
	}
	if !ok {
		s.logger.DebugContext(ctx, "Sweep lock held elsewhere, skipping")
		return 0, nil
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), sweepLockKey, token); err != nil {
			s.logger.WarnContext(ctx, "Failed to release sweep lock", "error", err)
		}
	}()

	now := s.now()
	groups, err := s.inbox.StaleGroups(ctx, now.Add(-s.cfg.StaleMax), now.Add(-s.cfg.StaleMin))
	if err != nil {
		return 0, err
	}
	if len(groups) == 0 {
		s.logger.DebugContext(ctx, "No stale part groups")
		return 0, nil
	}

	var completed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, group := range groups {
		group := group
		g.Go(func() error {
			logger := s.logger.With("account_id", group.AccountID, "short_code", group.ShortCode, "reference_id", group.ReferenceID)
			sms, err := s.completer.CompleteStale(gctx, group)
			switch {
			case errors.Is(err, domain.ErrGroupConsumed):
				sweptGroupsCounter.WithLabelValues("skipped").Inc()
				logger.InfoContext(gctx, "Stale group already completed")
			case errors.Is(err, domain.ErrNoJoinableParts):
				sweptGroupsCounter.WithLabelValues("skipped").Inc()
				logger.WarnContext(gctx, "Stale group holds only out of range parts")
			case err != nil:
				sweptGroupsCounter.WithLabelValues("error").Inc()
				logger.ErrorContext(gctx, "Failed to complete stale group", "error", err)
			default:
				sweptGroupsCounter.WithLabelValues("completed").Inc()
				completed.Add(1)
				logger.InfoContext(gctx, "Stale group completed", "incoming_sms_id", sms.ID)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.InfoContext(ctx, "Stale parts sweep finished", "groups", len(groups), "completed", completed.Load())
	return int(completed.Load()), nil
}
