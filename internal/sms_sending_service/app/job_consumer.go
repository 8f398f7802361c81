package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"
)

// JobProcessor runs one send job.
type JobProcessor interface {
	Process(ctx context.Context, job domain.SendJob) (*domain.DispatchOutcome, error)
}

// QueueSubscriber joins a NATS queue group and blocks until ctx ends.
type QueueSubscriber interface {
	SubscribeToSubjectWithQueue(ctx context.Context, subject, queueGroup string, handler nats.MsgHandler) error
}

// JobConsumer feeds send jobs from a NATS queue group to a pool of workers.
type JobConsumer struct {
	subscriber QueueSubscriber
	processor  JobProcessor
	queue      domain.QueueRepository
	workers    int
	jobTimeout time.Duration
	logger     *slog.Logger
	jobs       chan domain.SendJob
}

func NewJobConsumer(subscriber QueueSubscriber, processor JobProcessor, queue domain.QueueRepository, workers int, jobTimeout time.Duration, logger *slog.Logger) *JobConsumer {
	if workers <= 0 {
		workers = 1
	}
	if jobTimeout <= 0 {
		jobTimeout = time.Minute
	}
	return &JobConsumer{
		subscriber: subscriber,
		processor:  processor,
		queue:      queue,
		workers:    workers,
		jobTimeout: jobTimeout,
		logger:     logger.With("component", "job_consumer"),
		jobs:       make(chan domain.SendJob, workers*2),
	}
}

// Run subscribes and processes jobs until ctx is cancelled. Workers finish
// the job in hand before returning. Buffered jobs stay in the queue backup
// until QueueReplayer republishes them.
func (c *JobConsumer) Run(ctx context.Context, subject, queueGroup string) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.workers; i++ {
		workerID := i
		g.Go(func() error {
			c.work(gctx, workerID)
			return nil
		})
	}

	g.Go(func() error {
		c.logger.InfoContext(gctx, "Starting send job subscription", "subject", subject, "queue_group", queueGroup, "workers", c.workers)
		return c.subscriber.SubscribeToSubjectWithQueue(gctx, subject, queueGroup, func(msg *nats.Msg) {
			natsSMSJobsReceivedCounter.WithLabelValues(msg.Subject).Inc()
			c.HandleMessage(gctx, msg.Data)
		})
	})
	return g.Wait()
}

// HandleMessage decodes a job and hands it to a worker, blocking while all
// workers are busy.
func (c *JobConsumer) HandleMessage(ctx context.Context, data []byte) {
	var job domain.SendJob
	if err := json.Unmarshal(data, &job); err != nil {
		c.logger.ErrorContext(ctx, "Failed to unmarshal send job", "error", err, "data", string(data))
		return
	}
	if job.SmsID == "" {
		c.logger.ErrorContext(ctx, "Send job without sms_id dropped", "account_id", job.AccountID)
		return
	}
	select {
	case c.jobs <- job:
	case <-ctx.Done():
		c.logger.WarnContext(ctx, "Shutting down, send job left in queue backup", "sms_id", job.SmsID)
	}
}

func (c *JobConsumer) work(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-c.jobs:
			c.processOne(ctx, workerID, job)
		}
	}
}

func (c *JobConsumer) processOne(ctx context.Context, workerID int, job domain.SendJob) {
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.jobTimeout)
	defer cancel()

	outcome, err := c.processor.Process(jobCtx, job)
	if err != nil {
		c.logger.ErrorContext(jobCtx, "Send job failed", "worker", workerID, "sms_id", job.SmsID, "error", err)
		return
	}
	c.logger.InfoContext(jobCtx, "Send job done", "worker", workerID, "sms_id", job.SmsID, "sent_status", outcome.SentStatus)

	if c.queue != nil {
		if err := c.queue.Delete(jobCtx, job.SmsID); err != nil {
			c.logger.WarnContext(jobCtx, "Failed to delete sms queue backup", "sms_id", job.SmsID, "error", err)
		}
	}
}
