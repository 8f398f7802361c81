package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	mu   sync.Mutex
	seen []string
	err  error
	done chan struct{}
}

func (p *recordingProcessor) Process(_ context.Context, job domain.SendJob) (*domain.DispatchOutcome, error) {
	p.mu.Lock()
	p.seen = append(p.seen, job.SmsID)
	p.mu.Unlock()
	p.done <- struct{}{}
	if p.err != nil {
		return nil, p.err
	}
	return &domain.DispatchOutcome{SmsID: job.SmsID, SentStatus: domain.SentStatusSuccess}, nil
}

// chanSubscriber delivers messages written to msgs until ctx ends.
type chanSubscriber struct {
	msgs chan []byte
}

func (s *chanSubscriber) SubscribeToSubjectWithQueue(ctx context.Context, subject, _ string, handler nats.MsgHandler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case data := <-s.msgs:
			handler(&nats.Msg{Subject: subject, Data: data})
		}
	}
}

func TestJobConsumer_ProcessesAndClearsBackup(t *testing.T) {
	queue := newMemQueue()
	require.NoError(t, queue.Create(context.Background(), &domain.SmsQueueEntry{SmsID: "sms-1"}))
	processor := &recordingProcessor{done: make(chan struct{}, 4)}
	sub := &chanSubscriber{msgs: make(chan []byte, 4)}
	c := NewJobConsumer(sub, processor, queue, 2, time.Second, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx, "sms.jobs.send", "workers") }()

	data, err := json.Marshal(domain.SendJob{SmsID: "sms-1", AccountID: testAccount})
	require.NoError(t, err)
	sub.msgs <- []byte("garbage")
	sub.msgs <- data

	select {
	case <-processor.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
	assert.Eventually(t, func() bool { return queue.len() == 0 }, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
	assert.Equal(t, []string{"sms-1"}, processor.seen)
}

func TestJobConsumer_FailedJobKeepsBackup(t *testing.T) {
	queue := newMemQueue()
	require.NoError(t, queue.Create(context.Background(), &domain.SmsQueueEntry{SmsID: "sms-2"}))
	processor := &recordingProcessor{done: make(chan struct{}, 1), err: errors.New("history down")}
	c := NewJobConsumer(nil, processor, queue, 1, time.Second, discardLogger())

	c.processOne(context.Background(), 0, domain.SendJob{SmsID: "sms-2"})
	assert.Equal(t, 1, queue.len())
}

func TestJobConsumer_HandleMessageDropsInvalid(t *testing.T) {
	c := NewJobConsumer(nil, &recordingProcessor{}, nil, 1, time.Second, discardLogger())

	c.HandleMessage(context.Background(), []byte(`{"account_id": 7}`))
	c.HandleMessage(context.Background(), []byte(`not json`))
	assert.Empty(t, c.jobs)
}
