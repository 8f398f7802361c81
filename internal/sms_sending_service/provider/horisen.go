package provider

import "strings"

var horisenErrors = map[string]string{
	"101": "Internal application error",
	"102": "Encoding not supported or message not encoded with given encoding",
	"103": "No account with given username/password",
	"104": "Sending from clients IP address not allowed",
	"105": "Too many messages submitted withing short period of time. Resend later.",
	"106": "Sender contains words blacklisted on destination",
	"107": "Sender contains illegal characters",
	"108": "Message (not split automatically by Horisen BULK Service, but by customer) is too long.",
	"109": "Format of text/content parameter is wrong.",
	"110": "Mandatory parameter is missing",
	"111": "Unknown message type",
	"112": "Format of some parameter is wrong.",
	"113": "No credit on account balance",
	"114": "No route for given destination",
	"115": "Message cannot be split into concatenated messages (e.g. too many parts will be needed)",
}

// Horisen answers "OK <id>" or "ERR <code>".
type Horisen struct {
	httpAdapter
}

func NewHorisen(deps Deps) Adapter {
	return &Horisen{httpAdapter: newHTTPAdapter("horisen", deps)}
}

func (h *Horisen) BuildRequest(sc SendContext) ([]*PreparedRequest, error) {
	var extra string
	if sc.IsUnicode() {
		extra = "MessageType=Unicode_Text"
	}
	return []*PreparedRequest{{URL: JoinURL(sc.APIURL, EncodeQuery(QueryParams(sc)), extra), Part: 1}}, nil
}

func (h *Horisen) ParseResponse(sc SendContext, resp *RawResponse) ParsedResult {
	fields := strings.Fields(trimmedBody(resp))
	if len(fields) < 2 {
		return Failure(sc.MobileNumber, ResponseInvalid)
	}
	if fields[0] == "OK" {
		return Success(sc.MobileNumber, fields[1])
	}
	if reason, ok := horisenErrors[fields[1]]; ok {
		return Failure(sc.MobileNumber, reason)
	}
	return Failure(sc.MobileNumber, strings.Join(fields, " "))
}
