package domain

import "errors"

var (
	ErrCreditNotFound       = errors.New("CREDIT-NOT-FOUND")
	ErrExchangeRateNotFound = errors.New("EXCHANGE-RATE-NOT-FOUND")
	ErrInvalidDebitParts    = errors.New("number of sms parts must be positive")
)
