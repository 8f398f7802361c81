package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Plivo posts JSON with basic auth taken from the authId/authToken params.
type Plivo struct {
	httpAdapter
}

func NewPlivo(deps Deps) Adapter {
	return &Plivo{httpAdapter: newHTTPAdapter("plivo", deps)}
}

type plivoResponse struct {
	Message     *string  `json:"message"`
	MessageUUID []string `json:"message_uuid"`
	Error       string   `json:"error"`
	APIID       string   `json:"api_id"`
}

func (p *Plivo) BuildRequest(sc SendContext) ([]*PreparedRequest, error) {
	body, err := json.Marshal(ParamsMap(QueryParams(sc)))
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	req := &PreparedRequest{Method: http.MethodPost, URL: sc.APIURL, Body: body, Header: header, Part: 1}

	authID, _ := ConfigValue(sc.Params, "authId")
	authToken, _ := ConfigValue(sc.Params, "authToken")
	if authID != "" && authToken != "" {
		req.BasicAuth = &BasicAuth{Username: authID, Password: authToken}
	}
	return []*PreparedRequest{req}, nil
}

func (p *Plivo) ParseResponse(sc SendContext, resp *RawResponse) ParsedResult {
	body := trimmedBody(resp)
	if body == "" {
		return Failure(sc.MobileNumber, ResponseInvalid)
	}
	var parsed plivoResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return Failure(sc.MobileNumber, ResponseInvalid)
	}
	if parsed.Message != nil {
		if len(parsed.MessageUUID) == 0 {
			return Failure(sc.MobileNumber, ResponseInvalid)
		}
		return Success(sc.MobileNumber, parsed.MessageUUID[0])
	}
	reason, apiID := parsed.Error, parsed.APIID
	if reason == "" {
		reason = "Unknown error"
	}
	if apiID == "" {
		apiID = "400"
	}
	return Failure(sc.MobileNumber, fmt.Sprintf("%s:%s", reason, apiID))
}
