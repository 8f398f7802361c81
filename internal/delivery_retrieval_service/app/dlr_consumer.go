package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aradsms/sms_engine/internal/delivery_retrieval_service/domain"
	"github.com/aradsms/sms_engine/internal/platform/messagebroker"
	"github.com/aradsms/sms_engine/internal/platform/webhook"
	"github.com/nats-io/nats.go"
)

// QueueSubscriber joins a NATS queue group and blocks until ctx ends.
type QueueSubscriber interface {
	SubscribeToSubjectWithQueue(ctx context.Context, subject, queueGroup string, handler nats.MsgHandler) error
}

// WebhookClient delivers fields to a merchant URL.
type WebhookClient interface {
	Push(ctx context.Context, method, target string, fields map[string]string) (*webhook.Result, error)
}

// DLRPusher consumes push_delivery_report tasks and posts each payload to
// the merchant's delivery URL.
type DLRPusher struct {
	subscriber QueueSubscriber
	client     WebhookClient
	logger     *slog.Logger
}

func NewDLRPusher(subscriber QueueSubscriber, client WebhookClient, logger *slog.Logger) *DLRPusher {
	return &DLRPusher{subscriber: subscriber, client: client, logger: logger.With("component", "dlr_pusher")}
}

// Run subscribes to the DLR task subject. It blocks until ctx is cancelled.
func (c *DLRPusher) Run(ctx context.Context, subject, queueGroup string) error {
	c.logger.InfoContext(ctx, "Starting delivery report subscription", "subject", subject, "queue_group", queueGroup)
	err := c.subscriber.SubscribeToSubjectWithQueue(ctx, subject, queueGroup, func(msg *nats.Msg) {
		c.HandleMessage(ctx, msg.Data)
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "Delivery report subscription failed", "error", err, "subject", subject)
		return err
	}
	c.logger.InfoContext(ctx, "Delivery report subscription ended", "subject", subject)
	return nil
}

// HandleMessage decodes one task envelope and delivers it.
func (c *DLRPusher) HandleMessage(ctx context.Context, data []byte) {
	var payload domain.DLRPayload
	task, err := messagebroker.DecodeTask(data, &payload)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to decode delivery report task", "error", err, "data", string(data))
		return
	}
	if task.Name != domain.TaskPushDeliveryReport {
		c.logger.WarnContext(ctx, "Unexpected task on delivery report queue", "task", task.Name)
		return
	}
	c.Deliver(context.WithoutCancel(ctx), payload)
}

// Deliver pushes one report and returns whether the merchant accepted it.
func (c *DLRPusher) Deliver(ctx context.Context, payload domain.DLRPayload) bool {
	logger := c.logger.With("sms_id", payload.SmsID, "url", payload.DeliveryURL)
	if payload.DeliveryURL == "" {
		dlrPushesCounter.WithLabelValues("skipped").Inc()
		logger.WarnContext(ctx, "Delivery url is empty, push skipped")
		return false
	}

	method := strings.ToUpper(payload.HTTPMethod)
	if method == "" {
		method = "POST"
	}
	res, err := c.client.Push(ctx, method, payload.DeliveryURL, payload.Fields())
	switch {
	case err != nil:
		dlrPushesCounter.WithLabelValues("error").Inc()
		logger.WarnContext(ctx, "Delivery report push failed", "error", err)
		return false
	case res.OK():
		dlrPushesCounter.WithLabelValues("ok").Inc()
		logger.InfoContext(ctx, "Delivery report pushed", "status", res.StatusCode, "delivery_status", payload.DeliveryStatus)
		return true
	default:
		dlrPushesCounter.WithLabelValues("rejected").Inc()
		logger.WarnContext(ctx, "Delivery report rejected by merchant", "status", res.StatusCode, "body", res.Body)
		return false
	}
}
