package provider

import (
	"errors"
	"fmt"
)

// ErrorKind classifies transport failures.
type ErrorKind int

const (
	KindRequest ErrorKind = iota
	KindTimeout
	KindConnection
	KindTooManyRedirects
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindTooManyRedirects:
		return "too_many_redirects"
	default:
		return "request"
	}
}

// ProviderError is returned by Execute when the gateway could not be reached
// or did not answer. Its message is what ends up in the history row.
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return "Provider: Timeout Exception"
	case KindConnection:
		return "Provider: Connection Timeout Exception"
	case KindTooManyRedirects:
		return "Provider: Too Many Redirects Exception"
	default:
		return "Provider: Request Exception"
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

var (
	ErrUnknownProviderModule = errors.New("unknown provider module")
	ErrMissingParam          = errors.New("missing provider param")
)

func missingParam(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingParam, name)
}
