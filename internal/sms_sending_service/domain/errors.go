package domain

import "errors"

var (
	ErrLabelNotFound            = errors.New("LABEL-NOT-FOUND")
	ErrLabelNotActive           = errors.New("LABEL-NOT-ACTIVE")
	ErrInvalidCountryForProduct = errors.New("INVALID-COUNTRY-FOR-PRODUCT")
	ErrProductNotFound          = errors.New("PRODUCT-NOT-FOUND-ERROR")
	ErrInsufficientBalance      = errors.New("INSUFFICIENT-BALANCE-ERROR")
	ErrInvalidMobileNumber      = errors.New("INVALID-MOBILE-NUMBER")
	ErrAPIDisabled              = errors.New("NO-API-ACCESS")
	ErrSmsWorker                = errors.New("SMS-QUEUE-DB-ERROR")
	ErrInvalidSmsID             = errors.New("INVALID-SMS-ID")
	ErrInvalidSMSText           = errors.New("INVALID-SMS-TEXT")

	ErrAccountNotFound  = errors.New("account not found")
	ErrProviderNotFound = errors.New("service provider not found")
)
