package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SentStatusSuccess = "success"
	SentStatusError   = "error"
)

// SmsHistory is the append-only record of one send attempt.
type SmsHistory struct {
	ID                    string
	AccountID             int64
	ProductID             *string
	Label                 *string
	MobileNumber          string
	FormattedMobileNumber *string
	SenderID              string
	Text                  string
	NumberOfSMS           int
	Encoding              int
	Source                int
	ServiceProviderID     *int64
	ResponseID            string
	SentStatus            string
	StatusMessage         string
	Credits               decimal.Decimal
	CurrencyCode          *string
	DeliveryStatus        *string
	IsInternational       bool
	DRReceivedOn          *time.Time
	CreatedAt             time.Time
}

// SmsHistorySnapshot links a successful send to the provider message id.
type SmsHistorySnapshot struct {
	ID        string
	SmsID     string
	MessageID string
	AccountID int64
	CreatedAt time.Time
}

// SmsQueueEntry is the backup row written before a job is enqueued.
type SmsQueueEntry struct {
	SmsID        string
	AccountID    int64
	Label        *string
	SmsText      string
	SenderID     string
	MobileNumber string
	Source       int
	Encoding     string
	CreatedAt    time.Time
	ReplayCount  int
	ReplayedAt   *time.Time
}

// LastQueuedAt is when the job was last published.
func (e *SmsQueueEntry) LastQueuedAt() time.Time {
	if e.ReplayedAt != nil {
		return *e.ReplayedAt
	}
	return e.CreatedAt
}

// HistoryRepository persists send outcomes.
type HistoryRepository interface {
	// Create writes h and, when snapshot is non-nil, its snapshot row in the
	// same transaction.
	Create(ctx context.Context, h *SmsHistory, snapshot *SmsHistorySnapshot) error
	UpdateDeliveryStatus(ctx context.Context, smsID, status string, at time.Time) error
	// GetByID and GetSnapshotBySmsID return ErrInvalidSmsID when no row exists.
	GetByID(ctx context.Context, smsID string) (*SmsHistory, error)
	GetSnapshotBySmsID(ctx context.Context, smsID string) (*SmsHistorySnapshot, error)
}

// QueueRepository stores SmsQueueEntry backups.
type QueueRepository interface {
	Create(ctx context.Context, e *SmsQueueEntry) error
	Delete(ctx context.Context, smsID string) error
	// ListStale returns backups last queued before cutoff and replayed
	// fewer than maxReplays times, oldest first.
	ListStale(ctx context.Context, cutoff time.Time, maxReplays, limit int) ([]SmsQueueEntry, error)
	// ClaimReplay bumps the replay count if it still equals seenCount, so
	// only one process republishes a backup.
	ClaimReplay(ctx context.Context, smsID string, seenCount int, at time.Time) (bool, error)
}

// DeliveryURLResolver finds the merchant's delivery-report URL.
type DeliveryURLResolver interface {
	// GetDeliveryURL returns "" when none is configured.
	GetDeliveryURL(ctx context.Context, accountID int64, productID string) (string, error)
}
