package domain

import (
	"context"
	"time"
)

// Account is the sending account. Customer data (registered country) is
// owned by the account service and read here only.
type Account struct {
	ID            int64
	CustomerID    int64
	CountryCode   string // ISO code of the customer's registered country
	APIAccess     bool
	MMSEnabled    bool
	IsTestAccount bool
	DeletedAt     *time.Time
}

// AccountRepository is read-only from the sending path.
type AccountRepository interface {
	GetAccount(ctx context.Context, id int64) (*Account, error)
	// GetCustomerCountry returns the ISO code of the customer's country.
	GetCustomerCountry(ctx context.Context, accountID int64) (string, error)
	HasAPIAccess(ctx context.Context, accountID int64) (bool, error)
}
