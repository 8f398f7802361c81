package domain

import (
	"strings"
	"time"
)

// DeliveryStatus is the normalized status of a delivery report.
type DeliveryStatus int

const (
	DeliveryStatusUnknown DeliveryStatus = iota
	// DeliveryStatusQueued means the provider holds the message for later delivery.
	DeliveryStatusQueued
	// DeliveryStatusSent means the provider handed it to the carrier without confirmation.
	DeliveryStatusSent
	DeliveryStatusDelivered
	DeliveryStatusFailed
	DeliveryStatusExpired
	DeliveryStatusRejected
	// DeliveryStatusUndeliverable is a permanent carrier failure, e.g. an unknown subscriber.
	DeliveryStatusUndeliverable
)

// String returns the value stored in sms_history.delivery_status.
func (s DeliveryStatus) String() string {
	switch s {
	case DeliveryStatusQueued:
		return "queued"
	case DeliveryStatusSent:
		return "sent"
	case DeliveryStatusDelivered:
		return "delivered"
	case DeliveryStatusFailed:
		return "failed"
	case DeliveryStatusExpired:
		return "expired"
	case DeliveryStatusRejected:
		return "rejected"
	case DeliveryStatusUndeliverable:
		return "undeliverable"
	default:
		return "unknown"
	}
}

// Final reports whether no later report is expected for the message.
func (s DeliveryStatus) Final() bool {
	switch s {
	case DeliveryStatusDelivered, DeliveryStatusFailed, DeliveryStatusExpired,
		DeliveryStatusRejected, DeliveryStatusUndeliverable:
		return true
	}
	return false
}

// ParseDeliveryStatus maps SMPP-style stat codes and the words providers put
// in their callbacks onto a DeliveryStatus.
func ParseDeliveryStatus(raw string) DeliveryStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DELIVRD", "DELIVERED", "DELIVERY_SUCCESS", "SUCCESS":
		return DeliveryStatusDelivered
	case "ACCEPTD", "ACCEPTED", "SENT", "SUBMITTED", "ENROUTE":
		return DeliveryStatusSent
	case "QUEUED", "BUFFERED", "PENDING", "SCHEDULED":
		return DeliveryStatusQueued
	case "FAILED", "FAILURE", "ERROR", "DELETED":
		return DeliveryStatusFailed
	case "EXPIRED":
		return DeliveryStatusExpired
	case "REJECTD", "REJECTED":
		return DeliveryStatusRejected
	case "UNDELIV", "UNDELIVERED", "UNDELIVERABLE":
		return DeliveryStatusUndeliverable
	}
	return DeliveryStatusUnknown
}

// DeliveryReport is a provider report after normalization.
type DeliveryReport struct {
	SmsID             string         `json:"sms_id"`
	ProviderMessageID string         `json:"provider_message_id,omitempty"`
	Status            DeliveryStatus `json:"-"`
	ProviderStatus    string         `json:"provider_status"`
	ErrorCode         string         `json:"error_code,omitempty"`
	ReceivedAt        time.Time      `json:"received_at"`
}

// ProviderCallback is what a provider posts to the delivery report endpoint.
// Either SmsID or MessageID identifies the message.
type ProviderCallback struct {
	SmsID     string     `json:"sms_id"`
	MessageID string     `json:"message_id"`
	Status    string     `json:"status" validate:"required"`
	ErrorCode string     `json:"error_code"`
	Timestamp *time.Time `json:"timestamp"`
}
