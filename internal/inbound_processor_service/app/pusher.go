package app

import (
	"context"
	"log/slog"

	"github.com/aradsms/sms_engine/internal/inbound_processor_service/domain"
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

// Pusher consumes push_incoming_to_url tasks and records the merchant's
// answer on the message.
type Pusher struct {
	subscriber QueueSubscriber
	client     WebhookClient
	inbox      domain.InboxRepository
	logger     *slog.Logger
}

func NewPusher(subscriber QueueSubscriber, client WebhookClient, inbox domain.InboxRepository, logger *slog.Logger) *Pusher {
	return &Pusher{subscriber: subscriber, client: client, inbox: inbox, logger: logger.With("component", "incoming_pusher")}
}

// Run blocks until ctx is cancelled.
func (p *Pusher) Run(ctx context.Context, subject, queueGroup string) error {
	p.logger.InfoContext(ctx, "Starting incoming push subscription", "subject", subject, "queue_group", queueGroup)
	return p.subscriber.SubscribeToSubjectWithQueue(ctx, subject, queueGroup, func(msg *nats.Msg) {
		p.HandleMessage(ctx, msg.Data)
	})
}

// HandleMessage decodes one task envelope and delivers it.
func (p *Pusher) HandleMessage(ctx context.Context, data []byte) {
	var payload domain.PushPayload
	task, err := messagebroker.DecodeTask(data, &payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to decode push task", "error", err)
		return
	}
	if task.Name != domain.TaskPushIncomingToURL {
		p.logger.WarnContext(ctx, "Unexpected task on push queue", "task", task.Name)
		return
	}
	p.Deliver(context.WithoutCancel(ctx), payload)
}

// Deliver pushes the message and stores the outcome. It returns whether the
// merchant accepted it.
func (p *Pusher) Deliver(ctx context.Context, payload domain.PushPayload) bool {
	logger := p.logger.With("incoming_sms_id", payload.ID, "url", payload.URL)
	if payload.URL == "" {
		logger.WarnContext(ctx, "Push url is empty, push skipped")
		return false
	}

	fields := map[string]string{
		"id":        payload.ID,
		"sent_from": payload.SentFrom,
		"sent_to":   payload.SentTo,
		"msg":       payload.Msg,
		"timestamp": payload.Timestamp,
	}
	res, err := p.client.Push(ctx, payload.HTTPMethod, payload.URL, fields)

	var ok bool
	var response string
	switch {
	case err != nil:
		pushDeliveredCounter.WithLabelValues("error").Inc()
		response = err.Error()
		logger.WarnContext(ctx, "Incoming push failed", "error", err)
	case res.OK():
		pushDeliveredCounter.WithLabelValues("ok").Inc()
		ok, response = true, res.Body
		logger.InfoContext(ctx, "Incoming push delivered", "status", res.StatusCode)
	default:
		pushDeliveredCounter.WithLabelValues("rejected").Inc()
		response = res.Body
		logger.WarnContext(ctx, "Incoming push rejected", "status", res.StatusCode)
	}

	if err := p.inbox.UpdatePushStatus(ctx, payload.ID, ok, response); err != nil {
		logger.ErrorContext(ctx, "Failed to record push status", "error", err)
	}
	return ok
}
