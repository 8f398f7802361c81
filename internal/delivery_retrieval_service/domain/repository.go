package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSmsNotFound = errors.New("DLR-SMS-NOT-FOUND")
	ErrInvalidDLR  = errors.New("DLR-INVALID-PARAMS")
)

// IsClientError reports whether err comes from the callback itself rather
// than from storage.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDLR) || errors.Is(err, ErrSmsNotFound)
}

// ReportTarget is where the merchant wants delivery reports for one sms.
type ReportTarget struct {
	SmsID        string
	AccountID    int64
	MobileNumber string
	Label        *string
	DeliveryURL  string
	HTTPMethod   string
}

type DeliveryRepository interface {
	// UpdateDeliveryStatus returns ErrSmsNotFound when no history row matches.
	UpdateDeliveryStatus(ctx context.Context, smsID, status string, at time.Time) error
	// SmsIDByMessageID returns "" when the provider id is unknown.
	SmsIDByMessageID(ctx context.Context, messageID string) (string, error)
	// ReportTarget returns nil when the sms does not exist.
	ReportTarget(ctx context.Context, smsID string) (*ReportTarget, error)
}
