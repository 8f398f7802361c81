package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Credit is the prepaid balance row for one (account, product) pair. Both
// amounts are held in CurrencyCode. Balance may go negative: the sufficiency
// check happens before a send, not as a constraint on the row.
type Credit struct {
	ID           string          `json:"id"`
	AccountID    int64           `json:"account_id"`
	ProductID    string          `json:"product_id"`
	Balance      decimal.Decimal `json:"balance"`
	UsedBalance  decimal.Decimal `json:"used_balance"`
	CurrencyCode string          `json:"currency_code"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ExchangeRate is a currency's rate against the reference currency (USD).
type ExchangeRate struct {
	CurrencyCode string          `json:"currency_code"`
	Rate         decimal.Decimal `json:"rate"`
	IsActive     bool            `json:"is_active"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ReferenceCurrency is the currency every ExchangeRate is quoted against.
const ReferenceCurrency = "USD"
