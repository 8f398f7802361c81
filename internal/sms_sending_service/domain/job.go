package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EncodingGSM     = 1
	EncodingUnicode = 2
)

// TaskPushDeliveryReport is the async task that posts a DLRPayload to the
// merchant.
const TaskPushDeliveryReport = "push_delivery_report"

// EncodingFromName maps the request encoding names to codes. Unknown names
// return 0 and leave detection to text formatting.
func EncodingFromName(name string) int {
	switch name {
	case "plaintext":
		return EncodingGSM
	case "unicode":
		return EncodingUnicode
	default:
		return 0
	}
}

// SendRequest is an API send request.
type SendRequest struct {
	AccountID    int64   `json:"account_id" validate:"required,gt=0"`
	Label        *string `json:"label,omitempty"`
	SmsText      string  `json:"sms_text" validate:"required"`
	SenderID     string  `json:"sender_id" validate:"required"`
	MobileNumber string  `json:"mobile_number" validate:"required"`
	Source       int     `json:"source,omitempty"`
	Encoding     string  `json:"encoding,omitempty" validate:"omitempty,oneof=plaintext unicode"`
}

// SendJob is the queued unit of work for the dispatcher.
type SendJob struct {
	SmsID        string    `json:"sms_id"`
	AccountID    int64     `json:"account_id"`
	Label        *string   `json:"label,omitempty"`
	SmsText      string    `json:"sms_text"`
	SenderID     string    `json:"sender_id"`
	MobileNumber string    `json:"mobile_number"`
	Source       int       `json:"source,omitempty"`
	Encoding     string    `json:"encoding,omitempty"`
	QueuedAt     time.Time `json:"queued_at"`
}

// SubmitResult is returned to the API caller once a job is queued.
type SubmitResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
}

// ResolvedProduct is the routing decision for one send.
type ResolvedProduct struct {
	Product           *Product
	Provider          *ServiceProvider
	Price             decimal.Decimal
	Currency          string
	Destination       string // normalized mobile number
	CountryCode       string // destination calling code
	IsGlobal          bool
	SufficientBalance bool
}

// DispatchOutcome is the terminal state of one job.
type DispatchOutcome struct {
	SmsID         string
	SentStatus    string
	ResponseID    string
	StatusMessage string
	Parts         int
	Credits       decimal.Decimal
	DLRQueued     bool
}

// DLRPayload is pushed to the merchant's delivery URL.
type DLRPayload struct {
	SmsID          string  `json:"sms_id"`
	MobileNumber   string  `json:"mobile_number"`
	DeliveryStatus string  `json:"delivery_status"`
	Timestamp      string  `json:"timestamp"`
	Label          *string `json:"label"`
	HTTPMethod     string  `json:"http_method"`
	DeliveryURL    string  `json:"delivery_url"`
}

// StatusView is the status lookup response.
type StatusView struct {
	SmsID          string  `json:"sms_id"`
	MessageID      string  `json:"message_id,omitempty"`
	SentStatus     string  `json:"sent_status"`
	StatusMessage  string  `json:"status_message,omitempty"`
	DeliveryStatus *string `json:"delivery_status,omitempty"`
	MobileNumber   string  `json:"mobile_number"`
	NumberOfSMS    int     `json:"number_of_sms"`
}
