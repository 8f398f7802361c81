package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aradsms/sms_engine/internal/delivery_retrieval_service/domain"
	"github.com/aradsms/sms_engine/internal/platform/messagebroker"
)

// DLRProcessor records provider delivery reports on sms_history and forwards
// them to the merchant's delivery URL.
type DLRProcessor struct {
	repo     domain.DeliveryRepository
	tasks    messagebroker.TaskEnqueuer
	dlrQueue string
	logger   *slog.Logger
	now      func() time.Time
}

func NewDLRProcessor(repo domain.DeliveryRepository, tasks messagebroker.TaskEnqueuer, dlrQueue string, logger *slog.Logger) *DLRProcessor {
	return &DLRProcessor{
		repo:     repo,
		tasks:    tasks,
		dlrQueue: dlrQueue,
		logger:   logger.With("component", "dlr_processor"),
		now:      time.Now,
	}
}

// HandleProviderDLR normalizes status and stores it with the receive time.
func (p *DLRProcessor) HandleProviderDLR(ctx context.Context, smsID, status string, at time.Time) (*domain.DeliveryReport, error) {
	if smsID == "" || status == "" {
		return nil, domain.ErrInvalidDLR
	}
	report := &domain.DeliveryReport{
		SmsID:          smsID,
		Status:         domain.ParseDeliveryStatus(status),
		ProviderStatus: status,
		ReceivedAt:     at,
	}
	if err := p.repo.UpdateDeliveryStatus(ctx, smsID, report.Status.String(), at); err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "Delivery status updated",
		"sms_id", smsID, "status", report.Status.String(), "provider_status", status)
	return report, nil
}

// HandleCallback resolves the sms a provider callback refers to, stores the
// report and queues the merchant push.
func (p *DLRProcessor) HandleCallback(ctx context.Context, providerName string, cb domain.ProviderCallback) (*domain.DeliveryReport, error) {
	start := p.now()
	defer func() {
		dlrEventProcessingDurationHist.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	}()

	report, err := p.handleCallback(ctx, cb)
	if err != nil {
		dlrEventsProcessedCounter.WithLabelValues(providerName, "error").Inc()
		p.logger.WarnContext(ctx, "Delivery report rejected",
			"provider_name", providerName, "sms_id", cb.SmsID, "message_id", cb.MessageID, "error", err)
		return nil, err
	}
	dlrEventsProcessedCounter.WithLabelValues(providerName, report.Status.String()).Inc()

	p.forward(ctx, report)
	return report, nil
}

func (p *DLRProcessor) handleCallback(ctx context.Context, cb domain.ProviderCallback) (*domain.DeliveryReport, error) {
	smsID := cb.SmsID
	if smsID == "" {
		if cb.MessageID == "" {
			return nil, domain.ErrInvalidDLR
		}
		id, err := p.repo.SmsIDByMessageID(ctx, cb.MessageID)
		if err != nil {
			return nil, err
		}
		if id == "" {
			return nil, domain.ErrSmsNotFound
		}
		smsID = id
	}

	at := p.now().UTC()
	if cb.Timestamp != nil {
		at = cb.Timestamp.UTC()
	}
	report, err := p.HandleProviderDLR(ctx, smsID, cb.Status, at)
	if err != nil {
		return nil, err
	}
	report.ProviderMessageID = cb.MessageID
	report.ErrorCode = cb.ErrorCode
	return report, nil
}

// forward enqueues the merchant push. Failures are logged only since the
// status is already stored.
func (p *DLRProcessor) forward(ctx context.Context, report *domain.DeliveryReport) {
	target, err := p.repo.ReportTarget(ctx, report.SmsID)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to load delivery url", "sms_id", report.SmsID, "error", err)
		return
	}
	if target == nil || target.DeliveryURL == "" {
		dlrPushesCounter.WithLabelValues("skipped").Inc()
		return
	}

	payload := domain.DLRPayload{
		SmsID:          report.SmsID,
		MobileNumber:   target.MobileNumber,
		DeliveryStatus: report.Status.String(),
		Timestamp:      report.ReceivedAt.Format(domain.DLRTimestampLayout),
		Label:          target.Label,
		HTTPMethod:     target.HTTPMethod,
		DeliveryURL:    target.DeliveryURL,
	}
	if err := p.tasks.Enqueue(ctx, domain.TaskPushDeliveryReport, payload, p.dlrQueue); err != nil {
		p.logger.ErrorContext(ctx, "Failed to enqueue delivery report push",
			"sms_id", report.SmsID, "error", fmt.Errorf("enqueue %s: %w", domain.TaskPushDeliveryReport, err))
	}
}
