package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/aradsms/sms_engine/internal/delivery_retrieval_service/domain"
	"github.com/aradsms/sms_engine/internal/platform/webhook"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errBoom = errors.New("boom")

type statusUpdate struct {
	smsID  string
	status string
	at     time.Time
}

type memDelivery struct {
	known     map[string]bool
	byMessage map[string]string
	targets   map[string]domain.ReportTarget
	updates   []statusUpdate
	updateErr error
	targetErr error
}

func (m *memDelivery) UpdateDeliveryStatus(_ context.Context, smsID, status string, at time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if !m.known[smsID] {
		return domain.ErrSmsNotFound
	}
	m.updates = append(m.updates, statusUpdate{smsID: smsID, status: status, at: at})
	return nil
}

func (m *memDelivery) SmsIDByMessageID(_ context.Context, messageID string) (string, error) {
	return m.byMessage[messageID], nil
}

func (m *memDelivery) ReportTarget(_ context.Context, smsID string) (*domain.ReportTarget, error) {
	if m.targetErr != nil {
		return nil, m.targetErr
	}
	t, ok := m.targets[smsID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

type enqueued struct {
	name    string
	payload domain.DLRPayload
	queue   string
}

type fakeEnqueuer struct {
	tasks []enqueued
	err   error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, taskName string, payload any, queue string) error {
	if f.err != nil {
		return f.err
	}
	p, _ := payload.(domain.DLRPayload)
	f.tasks = append(f.tasks, enqueued{name: taskName, payload: p, queue: queue})
	return nil
}

type webhookCall struct {
	method string
	target string
	fields map[string]string
}

type fakeWebhook struct {
	calls  []webhookCall
	result *webhook.Result
	err    error
}

func (f *fakeWebhook) Push(_ context.Context, method, target string, fields map[string]string) (*webhook.Result, error) {
	f.calls = append(f.calls, webhookCall{method: method, target: target, fields: fields})
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}
