package domain

import (
	"context"
	"time"
)

// InboxRepository stores incoming messages and their fragments.
type InboxRepository interface {
	// Create inserts a single part (or already joined) message.
	Create(ctx context.Context, sms *IncomingSms) error

	// SavePart inserts a fragment. A fragment whose part number is already
	// stored for the group is ignored and inserted is false.
	SavePart(ctx context.Context, part *IncomingSmsPart) (inserted bool, err error)

	// PendingParts lists the group's unconsumed fragments ordered by part number.
	PendingParts(ctx context.Context, key PartGroupKey) ([]IncomingSmsPart, error)

	// ConsumeGroup inserts sms and marks the pending fragments numbered
	// 1..maxPart as consumed by it, in one transaction. It returns
	// ErrGroupConsumed when no pending fragment was left.
	ConsumeGroup(ctx context.Context, key PartGroupKey, maxPart int, sms *IncomingSms) error

	// StaleGroups lists pending groups whose fragments arrived in [from, to).
	StaleGroups(ctx context.Context, from, to time.Time) ([]StaleGroup, error)

	UpdatePushStatus(ctx context.Context, id string, ok bool, response string) error

	ListUnpushedByIDs(ctx context.Context, ids []string) ([]IncomingSms, error)
	ListUnpushedByAccounts(ctx context.Context, accountIDs []int64) ([]IncomingSms, error)
	ListUnpushedSince(ctx context.Context, since time.Time) ([]IncomingSms, error)
}

// RoutingRepository resolves where an incoming message belongs.
type RoutingRepository interface {
	// GetProviderByAPIName matches case-insensitively; nil when unknown.
	GetProviderByAPIName(ctx context.Context, apiName string) (*IncomingProvider, error)
	GetProviderByID(ctx context.Context, id string) (*IncomingProvider, error)

	// GetInboundNumber returns nil when the short code is not provisioned.
	GetInboundNumber(ctx context.Context, shortCode string) (*InboundNumber, error)

	// FindConfig matches case-insensitively; empty keyword or subKeyword
	// are not filtered on. nil when nothing matches.
	FindConfig(ctx context.Context, shortCode, keyword, subKeyword string) (*IncomingConfig, error)

	// ListAccountConfigs lists an account's configs with their number's
	// shared flag.
	ListAccountConfigs(ctx context.Context, accountID int64) ([]IncomingConfig, error)
}
