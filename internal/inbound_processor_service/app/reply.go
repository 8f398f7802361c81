package app

import (
	"encoding/json"
	"strings"

	"github.com/aradsms/sms_engine/internal/inbound_processor_service/domain"
)

const twilioEmptyResponse = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// providerReplies are the bodies gateways expect for an accepted push.
var providerReplies = map[string]string{
	"twilio":       twilioEmptyResponse,
	"smsglobal":    "OK",
	"silverstreet": "OK",
	"messagebird":  "OK",
	"gupshup":      "",
	"telerivet":    "200",
	"nexmo":        "200",
	"openmarket":   "200",
	"aerial":       "200",
	"smsportal":    "True",
	"smscentral":   "0",
}

// FormatReply returns the provider's fixed acknowledgement, or res as JSON
// for providers without one.
func FormatReply(providerName string, res *domain.SubmitResult) string {
	if reply, ok := providerReplies[strings.ToLower(providerName)]; ok {
		return reply
	}
	b, err := json.Marshal(res)
	if err != nil {
		return `{"status":"` + res.Status + `"}`
	}
	return string(b)
}

// ReplyContentType is the content type of FormatReply's body.
func ReplyContentType(providerName string) string {
	switch reply, ok := providerReplies[strings.ToLower(providerName)]; {
	case !ok:
		return "application/json"
	case strings.HasPrefix(reply, "<?xml"):
		return "application/xml"
	default:
		return "text/plain; charset=utf-8"
	}
}
