package domain

import (
	"context"

	"github.com/aradsms/sms_engine/internal/platform/database"
)

// CreditRepository persists Credit rows. Methods taking a Querier run inside
// the caller's transaction.
type CreditRepository interface {
	// GetByAccountAndProduct reads without locking. Returns ErrCreditNotFound.
	GetByAccountAndProduct(ctx context.Context, q database.Querier, accountID int64, productID string) (*Credit, error)
	// LockByAccountAndProduct reads with SELECT ... FOR UPDATE. Returns ErrCreditNotFound.
	LockByAccountAndProduct(ctx context.Context, q database.Querier, accountID int64, productID string) (*Credit, error)
	// InsertIfAbsent inserts c unless a row for (account, product) exists.
	// It reports whether this call created the row.
	InsertIfAbsent(ctx context.Context, q database.Querier, c *Credit) (bool, error)
	UpdateBalances(ctx context.Context, q database.Querier, c *Credit) error
}

// TransactionRepository appends CreditTransaction journal entries.
type TransactionRepository interface {
	Create(ctx context.Context, q database.Querier, tx *CreditTransaction) error
}

// ExchangeRateRepository reads active exchange rates.
type ExchangeRateRepository interface {
	// GetActiveRate returns ErrExchangeRateNotFound for unknown or inactive currencies.
	GetActiveRate(ctx context.Context, currencyCode string) (*ExchangeRate, error)
}
