package provider

import (
	"context"
	"net/http"

	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
)

// ResponseInvalid is the failure reason for any provider response that
// cannot be parsed.
const ResponseInvalid = "invalid response"

// Adapter speaks one gateway's wire format. A send runs BuildRequest, then
// Execute and ParseResponse for every prepared request.
type Adapter interface {
	Name() string
	// BuildRequest returns one request per message part; most gateways take
	// the whole text in a single request.
	BuildRequest(sc SendContext) ([]*PreparedRequest, error)
	// Execute performs the HTTP call. Transport failures are *ProviderError.
	Execute(ctx context.Context, req *PreparedRequest) (*RawResponse, error)
	ParseResponse(sc SendContext, resp *RawResponse) ParsedResult
}

// SendContext is everything an adapter needs for one send. It is passed by
// value and never mutated by adapters.
type SendContext struct {
	SmsID        string
	SenderID     string
	MobileNumber string // digits only, no leading +
	Text         string
	Encoding     int // domain.EncodingGSM or domain.EncodingUnicode
	MessageTag   string
	Source       int
	APIURL       string
	Params       []domain.ServiceProviderParam
}

func (sc SendContext) IsUnicode() bool {
	return sc.Encoding == domain.EncodingUnicode
}

// BasicAuth holds HTTP basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

// PreparedRequest is a gateway call ready for the transport. A nil Body
// means GET.
type PreparedRequest struct {
	Method    string
	URL       string
	Body      []byte
	Header    http.Header
	BasicAuth *BasicAuth
	Part      int // 1-based
}

// RawResponse is the undecoded gateway reply.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       string
}

// ParsedResult is the normalized outcome of a send: either a success with
// the provider message id or a failure with a reason.
type ParsedResult struct {
	OK          bool
	Destination string
	MessageID   string
	Reason      string
}

func Success(destination, messageID string) ParsedResult {
	return ParsedResult{OK: true, Destination: destination, MessageID: messageID}
}

func Failure(destination, reason string) ParsedResult {
	return ParsedResult{Destination: destination, Reason: reason}
}

// Tuple returns (status, destination, id-or-reason).
func (r ParsedResult) Tuple() (string, string, string) {
	if r.OK {
		return domain.SentStatusSuccess, r.Destination, r.MessageID
	}
	return domain.SentStatusError, r.Destination, r.Reason
}
