package domain

// InboundNumber is a short or long code that receives mobile originated
// messages. Shared numbers route on the message keyword.
type InboundNumber struct {
	ID                 string
	ShortCode          string
	CountryISO         string
	CallingCode        string
	IncomingProviderID string
	IsShared           bool
}

// IncomingConfig binds an inbound number (and keyword on shared numbers) to
// an account and its webhook.
type IncomingConfig struct {
	ID         string
	AccountID  int64
	ProductID  *string
	ShortCode  string
	Keyword    string
	SubKeyword string
	PushToURL  string
	HTTPMethod string
	CountryISO string
	// SharedNumber is the is_shared flag of the config's inbound number.
	SharedNumber bool
}

// IncomingProvider is a gateway that pushes mobile originated messages.
type IncomingProvider struct {
	ID             string
	Name           string
	APIName        string
	HTTPPushMethod string
	Params         []IncomingProviderParam
}

// IncomingProviderParam maps a provider request field (ParamName) to its
// canonical name (CanonicalName).
type IncomingProviderParam struct {
	ParamName     string
	CanonicalName string
}

// Canonical field names used by the provider param maps.
const (
	FieldMobileNumber = "mobile_number"
	FieldShortCode    = "short_code"
	FieldMessage      = "message"
	FieldKeyword      = "keyword"
	FieldSubKeyword   = "sub_keyword"
	FieldMessageID    = "message_id"
	FieldIsMultiPart  = "is_multi_part"
	FieldTotalParts   = "total_parts"
	FieldPartNumber   = "part_order_number"
	FieldReferenceID  = "reference_id"
	FieldUDH          = "udh"
	FieldIsCron       = "is_cron_request"
)

// Canonicalize renames raw request fields using the provider's params.
// Fields the provider does not declare are dropped.
func (p *IncomingProvider) Canonicalize(raw map[string]string) map[string]string {
	out := make(map[string]string, len(p.Params))
	for _, param := range p.Params {
		if v, ok := raw[param.ParamName]; ok {
			out[param.CanonicalName] = v
		}
	}
	return out
}
