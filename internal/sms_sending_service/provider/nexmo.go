package provider

import (
	"encoding/xml"
	"strings"
)

// Nexmo sends with a GET query and answers with an XML submission report.
type Nexmo struct {
	httpAdapter
}

func NewNexmo(deps Deps) Adapter {
	return &Nexmo{httpAdapter: newHTTPAdapter("nexmo", deps)}
}

type nexmoResponse struct {
	XMLName  xml.Name `xml:"mt-submission-response"`
	Messages []struct {
		MessageID string `xml:"messageId"`
		Status    string `xml:"status"`
		ErrorText string `xml:"errorText"`
	} `xml:"messages>message"`
}

func (n *Nexmo) BuildRequest(sc SendContext) ([]*PreparedRequest, error) {
	var extra string
	if sc.IsUnicode() {
		extra = "type=unicode"
	}
	return []*PreparedRequest{{URL: JoinURL(sc.APIURL, EncodeQuery(QueryParams(sc)), extra), Part: 1}}, nil
}

func (n *Nexmo) ParseResponse(sc SendContext, resp *RawResponse) ParsedResult {
	body := trimmedBody(resp)
	if body == "" {
		return Failure(sc.MobileNumber, ResponseInvalid)
	}
	var parsed nexmoResponse
	if err := xml.Unmarshal([]byte(body), &parsed); err != nil || len(parsed.Messages) == 0 {
		n.logger.Warn("Unparseable nexmo response", "body", body, "error", err)
		return Failure(sc.MobileNumber, ResponseInvalid)
	}

	ids := make([]string, 0, len(parsed.Messages))
	for _, m := range parsed.Messages {
		status := strings.TrimSpace(m.Status)
		if status != "0" || strings.TrimSpace(m.MessageID) == "" {
			return Failure(sc.MobileNumber, nexmoFailureReason(status, m.ErrorText))
		}
		ids = append(ids, strings.TrimSpace(m.MessageID))
	}
	return Success(sc.MobileNumber, strings.Join(ids, ","))
}

// nexmoFailureReason never returns an empty reason.
func nexmoFailureReason(status, errorText string) string {
	if text := strings.TrimSpace(errorText); text != "" {
		return text
	}
	if status == "" || status == "0" {
		return ResponseInvalid
	}
	return "status " + status
}
