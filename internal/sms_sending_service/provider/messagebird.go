package provider

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Messagebird posts the params as JSON with an AccessKey header.
type Messagebird struct {
	httpAdapter
}

func NewMessagebird(deps Deps) Adapter {
	return &Messagebird{httpAdapter: newHTTPAdapter("messagebird", deps)}
}

type messagebirdResponse struct {
	ID     string `json:"id"`
	Errors []struct {
		Code        int    `json:"code"`
		Description string `json:"description"`
	} `json:"errors"`
}

func (m *Messagebird) BuildRequest(sc SendContext) ([]*PreparedRequest, error) {
	payload := ParamsMap(QueryParams(sc))
	apiKey, ok := payload["apikey"]
	if !ok || apiKey == "" {
		return nil, missingParam("apikey")
	}
	payload["datacoding"] = "plain"
	if sc.IsUnicode() {
		payload["datacoding"] = "unicode"
	}
	if r, ok := payload["recipients"]; ok && !strings.HasPrefix(r, "+") {
		payload["recipients"] = "+" + r
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("Authorization", "AccessKey "+apiKey)
	header.Set("Content-Type", "application/json")
	return []*PreparedRequest{{Method: http.MethodPost, URL: sc.APIURL, Body: body, Header: header, Part: 1}}, nil
}

func (m *Messagebird) ParseResponse(sc SendContext, resp *RawResponse) ParsedResult {
	body := trimmedBody(resp)
	if body == "" {
		return Failure(sc.MobileNumber, ResponseInvalid)
	}
	var parsed messagebirdResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		m.logger.Warn("Unparseable messagebird response", "body", body, "error", err)
		return Failure(sc.MobileNumber, ResponseInvalid)
	}
	if parsed.ID != "" {
		return Success(sc.MobileNumber, parsed.ID)
	}
	if len(parsed.Errors) > 0 {
		return Failure(sc.MobileNumber, parsed.Errors[0].Description)
	}
	return Failure(sc.MobileNumber, ResponseInvalid)
}
