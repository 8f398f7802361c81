package messagebroker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher publishes raw payloads on a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// TaskEnqueuer is the fire-and-forget async dispatch used for webhook and
// delivery report pushes. No result is returned to the caller.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, taskName string, payload any, queue string) error
}

// Task is the envelope published for every enqueued task.
type Task struct {
	Name       string          `json:"task"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NATSClient wraps a NATS connection.
type NATSClient struct {
	conn          *nats.Conn
	logger        *slog.Logger
	subjectPrefix string
}

// NewNATSClient connects to NATS with reconnect handling.
// natsURL example: "nats://localhost:4222"
func NewNATSClient(natsURL string, logger *slog.Logger, appName string) (*NATSClient, error) {
	logger = logger.With("component", "nats")
	nc, err := nats.Connect(natsURL,
		nats.Name(appName),
		nats.Timeout(5*time.Second),
		nats.PingInterval(20*time.Second),
		nats.MaxPingsOutstanding(3),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
		nats.ClosedHandler(func(c *nats.Conn) {
			logger.Info("NATS connection closed", "last_error", c.LastError())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSClient{conn: nc, logger: logger, subjectPrefix: "tasks"}, nil
}

// WithTaskPrefix sets the subject prefix used by Enqueue and TaskSubject.
func (c *NATSClient) WithTaskPrefix(prefix string) *NATSClient {
	if prefix != "" {
		c.subjectPrefix = prefix
	}
	return c
}

func (c *NATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		c.logger.ErrorContext(ctx, "Failed to publish to NATS", "subject", subject, "error", err)
		return fmt.Errorf("nats publish to %s: %w", subject, err)
	}
	return nil
}

func (c *NATSClient) Enqueue(ctx context.Context, taskName string, payload any, queue string) error {
	data, err := EncodeTask(taskName, payload)
	if err != nil {
		return err
	}
	subject := TaskSubject(c.subjectPrefix, queue)
	c.logger.DebugContext(ctx, "Enqueueing task", "task", taskName, "subject", subject)
	return c.Publish(ctx, subject, data)
}

// TaskSubjectFor returns the subject a queue's tasks are published on.
func (c *NATSClient) TaskSubjectFor(queue string) string {
	return TaskSubject(c.subjectPrefix, queue)
}

// SubscribeToSubjectWithQueue joins queueGroup on subject and blocks until
// ctx is cancelled, then drains the subscription.
func (c *NATSClient) SubscribeToSubjectWithQueue(ctx context.Context, subject, queueGroup string, handler nats.MsgHandler) error {
	sub, err := c.conn.QueueSubscribe(subject, queueGroup, handler)
	if err != nil {
		return fmt.Errorf("failed to subscribe to NATS subject '%s': %w", subject, err)
	}
	c.logger.InfoContext(ctx, "Subscribed to NATS subject", "subject", subject, "queue_group", queueGroup)

	<-ctx.Done()

	if err := sub.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		c.logger.Warn("Failed to drain NATS subscription", "subject", subject, "error", err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (c *NATSClient) Close() {
	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Drain(); err != nil {
			c.logger.Warn("Failed to drain NATS connection", "error", err)
		}
		c.conn.Close()
	}
}

// TaskSubject builds "<prefix>.<queue>".
func TaskSubject(prefix, queue string) string {
	return fmt.Sprintf("%s.%s", prefix, queue)
}

// EncodeTask wraps payload in a Task envelope.
func EncodeTask(taskName string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for task %s: %w", taskName, err)
	}
	return json.Marshal(Task{Name: taskName, Payload: raw, EnqueuedAt: time.Now().UTC()})
}

// DecodeTask unwraps a Task envelope and decodes its payload into out.
func DecodeTask(data []byte, out any) (*Task, error) {
	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("decode task envelope: %w", err)
	}
	if out != nil {
		if err := json.Unmarshal(task.Payload, out); err != nil {
			return &task, fmt.Errorf("decode payload for task %s: %w", task.Name, err)
		}
	}
	return &task, nil
}
