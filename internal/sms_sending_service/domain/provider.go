package domain

import "context"

// ServiceProvider is an outbound SMS gateway. ModuleName selects the adapter.
type ServiceProvider struct {
	ID         int64
	Name       string
	APIURL     string
	ModuleName string
	PackType   string
	Params     []ServiceProviderParam
}

// ServiceProviderParam is one configured request parameter. When
// RuntimeValue is set, Value names a send-time placeholder such as $smsText.
type ServiceProviderParam struct {
	Name          string
	Value         string
	RuntimeValue  bool
	Encoding      string
	InQueryString bool
	IsMMSParam    bool
	Position      int
}

type ProviderRepository interface {
	// GetByID loads the provider with its params. Returns ErrProviderNotFound.
	GetByID(ctx context.Context, id int64) (*ServiceProvider, error)
}
