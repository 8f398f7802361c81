package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType defines the nature of a credit movement.
type TransactionType string

const (
	TransactionTypeSMSCharge TransactionType = "sms_charge"
	TransactionTypeTopUp     TransactionType = "top_up"
	TransactionTypeOpening   TransactionType = "opening_balance"
)

// CreditTransaction is the append-only journal entry written alongside every
// change to a Credit row.
type CreditTransaction struct {
	ID              string          `json:"id"`
	CreditID        string          `json:"credit_id"`
	AccountID       int64           `json:"account_id"`
	ProductID       string          `json:"product_id"`
	Type            TransactionType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	RequestCurrency string          `json:"request_currency"`
	AppliedAmount   decimal.Decimal `json:"applied_amount"` // Amount in the credit row currency
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	Reference       string          `json:"reference,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
