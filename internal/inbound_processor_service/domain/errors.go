package domain

import "errors"

var (
	ErrInvalidParams          = errors.New("INCOMING-INVALID-PARAMS")
	ErrInvalidProvider        = errors.New("INCOMING-INVALID-PROVIDER")
	ErrInvalidInboundNumber   = errors.New("INCOMING-INVALID-INBOUNDNUMBER")
	ErrInvalidMobileNumber    = errors.New("INCOMING-INVALID-MOBILENUMBER")
	ErrIncomingConfigNotFound = errors.New("INCOMING-NOTFOUND-CONFIGURATION")
	ErrInvalidMultipart       = errors.New("INCOMING-INVALID-MULTIPART")
	ErrEmptyRepushList        = errors.New("REPUSH-EMPTY-LIST")

	// ErrGroupConsumed is returned when another request completed the part
	// group first.
	ErrGroupConsumed       = errors.New("incoming part group already consumed")
	ErrIncomingSmsNotFound = errors.New("incoming sms not found")
	// ErrNoJoinableParts is returned for a stale group whose pending parts
	// are all numbered above their declared total.
	ErrNoJoinableParts = errors.New("no joinable parts in group")
)

// RequiredFieldError reports a missing canonical field.
type RequiredFieldError struct {
	Field string
}

func (e *RequiredFieldError) Error() string {
	return "INCOMING-REQUIRED-" + e.Field
}

var clientErrors = []error{
	ErrInvalidParams, ErrInvalidProvider, ErrInvalidInboundNumber, ErrInvalidMobileNumber,
	ErrIncomingConfigNotFound, ErrInvalidMultipart, ErrEmptyRepushList,
}

// ClientErrorCode returns the code of the request error wrapped in err, or
// false for storage and queue failures.
func ClientErrorCode(err error) (string, bool) {
	var rf *RequiredFieldError
	if errors.As(err, &rf) {
		return rf.Error(), true
	}
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return target.Error(), true
		}
	}
	return "", false
}
