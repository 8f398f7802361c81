package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aradsms/sms_engine/internal/platform/messagebroker"
	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
	"github.com/google/uuid"
)

const (
	SubmitStatusSubmitted = "submitted"
	SubmitStatusFailed    = "failed"
)

// Submitter accepts send requests: it stores a backup row and publishes
// the job for the dispatcher workers.
type Submitter struct {
	queue     domain.QueueRepository
	publisher messagebroker.Publisher
	subject   string
	logger    *slog.Logger
	now       func() time.Time
}

func NewSubmitter(queue domain.QueueRepository, publisher messagebroker.Publisher, subject string, logger *slog.Logger) *Submitter {
	return &Submitter{
		queue:     queue,
		publisher: publisher,
		subject:   subject,
		logger:    logger.With("component", "submitter"),
		now:       time.Now,
	}
}

// Submit returns ErrSmsWorker when the backup row cannot be written. A
// publish failure is reported in the result, not as an error.
func (s *Submitter) Submit(ctx context.Context, req domain.SendRequest) (*domain.SubmitResult, error) {
	job := domain.SendJob{
		SmsID:        uuid.NewString(),
		AccountID:    req.AccountID,
		Label:        req.Label,
		SmsText:      req.SmsText,
		SenderID:     req.SenderID,
		MobileNumber: req.MobileNumber,
		Source:       req.Source,
		Encoding:     req.Encoding,
		QueuedAt:     s.now().UTC(),
	}
	logger := s.logger.With("sms_id", job.SmsID, "account_id", job.AccountID)

	entry := &domain.SmsQueueEntry{
		SmsID:        job.SmsID,
		AccountID:    job.AccountID,
		Label:        job.Label,
		SmsText:      job.SmsText,
		SenderID:     job.SenderID,
		MobileNumber: job.MobileNumber,
		Source:       job.Source,
		Encoding:     job.Encoding,
		CreatedAt:    job.QueuedAt,
	}
	if err := s.queue.Create(ctx, entry); err != nil {
		logger.ErrorContext(ctx, "Failed to store sms queue backup", "error", err)
		smsSubmittedCounter.WithLabelValues("backup_error").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrSmsWorker, err)
	}

	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal send job: %w", err)
	}
	if err := s.publisher.Publish(ctx, s.subject, data); err != nil {
		logger.ErrorContext(ctx, "Failed to publish send job", "subject", s.subject, "error", err)
		smsSubmittedCounter.WithLabelValues(SubmitStatusFailed).Inc()
		return &domain.SubmitResult{Status: SubmitStatusFailed, Message: "could not queue message"}, nil
	}

	logger.InfoContext(ctx, "Send job queued", "subject", s.subject)
	smsSubmittedCounter.WithLabelValues(SubmitStatusSubmitted).Inc()
	return &domain.SubmitResult{Status: SubmitStatusSubmitted, Message: "queued", ID: job.SmsID}, nil
}
