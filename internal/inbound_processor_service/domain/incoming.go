package domain

import "time"

// Part statuses of IncomingSmsPart.
const (
	PartStatusPending  = "pending"
	PartStatusConsumed = "consumed"
)

// TaskPushIncomingToURL is the async task that delivers a stored incoming
// message to the merchant webhook.
const TaskPushIncomingToURL = "push_incoming_to_url"

// PushTimestampLayout formats IncomingSms.CreatedAt in push payloads.
const PushTimestampLayout = "2006-01-02 15:04:05"

// IncomingSms is a mobile originated message after reassembly.
type IncomingSms struct {
	ID                 string
	AccountID          int64
	ProductID          *string
	ShortCode          string
	Keyword            string
	SubKeyword         string
	Message            string
	MobileNumber       string
	Response           string // provider message id
	PushURLStatus      bool
	PushURLResponse    *string
	IncomingProviderID string
	CreatedAt          time.Time
}

// IncomingSmsPart is one fragment of a concatenated inbound message.
type IncomingSmsPart struct {
	ID                 string
	AccountID          int64
	ProductID          *string
	IncomingProviderID string
	IncomingMessageID  *string
	MessageID          string
	ShortCode          string
	MobileNumber       string
	Message            string
	PartNumber         int
	TotalParts         int
	ReferenceID        int
	Status             string
	CreatedAt          time.Time
}

// Key returns the reassembly group the part belongs to.
func (p *IncomingSmsPart) Key() PartGroupKey {
	return PartGroupKey{AccountID: p.AccountID, ShortCode: p.ShortCode, MobileNumber: p.MobileNumber, ReferenceID: p.ReferenceID}
}

// PartGroupKey identifies the fragments of one concatenated message.
type PartGroupKey struct {
	AccountID    int64
	ShortCode    string
	MobileNumber string
	ReferenceID  int
}

// StaleGroup is a pending part group picked up by the sweeper.
type StaleGroup struct {
	PartGroupKey
	IncomingProviderID string
	ProductID          *string
	TotalParts         int
	OldestPart         time.Time
}

// SubmitResult is what the reassembler reports for one provider push.
type SubmitResult struct {
	Status           string  `json:"status"`
	AllPartsReceived bool    `json:"all_parts_received"`
	Response         string  `json:"response,omitempty"`
	Message          string  `json:"message,omitempty"`
	ID               *string `json:"id"`
	// ProviderReply is the body the provider expects back.
	ProviderReply string `json:"-"`
}

// PushPayload is enqueued for the webhook pusher.
type PushPayload struct {
	ID         string `json:"id"`
	SentFrom   string `json:"sent_from"`
	SentTo     string `json:"sent_to"`
	Msg        string `json:"msg"`
	Timestamp  string `json:"timestamp,omitempty"`
	URL        string `json:"url"`
	HTTPMethod string `json:"http_method"`
}
