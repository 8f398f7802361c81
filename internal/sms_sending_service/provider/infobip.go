package provider

import (
	"fmt"
	"unicode/utf8"
)

var infobipErrors = map[string]string{
	"-1":  "Error in processing the request",
	"-2":  "Not enough credits on a specific account",
	"-3":  "Targeted network is not covered on specific account",
	"-5":  "Username or password is invalid",
	"-6":  "Destination address is missing in the request",
	"-10": "Username is missing in the request",
	"-11": "Password is missing in the request",
	"-13": "Number is not recognized by Infobip platform",
	"-22": "Incorrect XML format, caused by syntax error",
	"-23": "General error, reasons may vary",
	"-26": "General API error, reasons may vary",
	"-27": "Invalid scheduling parametar",
	"-28": "Invalid PushURL in the request",
	"-30": "Invalid APPID in the request",
	"-33": "Duplicated MessageID in the request",
	"-34": "Sender name is not allowed",
	"-99": "Error in processing request, reasons may vary",
}

type Infobip struct {
	httpAdapter
}

func NewInfobip(deps Deps) Adapter {
	return &Infobip{httpAdapter: newHTTPAdapter("infobip", deps)}
}

func (i *Infobip) BuildRequest(sc SendContext) ([]*PreparedRequest, error) {
	var extra []string
	length := utf8.RuneCountInString(sc.Text)
	if sc.IsUnicode() {
		if length > UCS2SingleLimit {
			extra = append(extra, "type=longSMS")
		}
		extra = append(extra, "datacoding=8")
	} else if length > GSMSingleLimit {
		extra = append(extra, "type=longSMS")
	}
	return []*PreparedRequest{{URL: JoinURL(sc.APIURL, EncodeQuery(QueryParams(sc)), extra...), Part: 1}}, nil
}

func (i *Infobip) ParseResponse(sc SendContext, resp *RawResponse) ParsedResult {
	body := trimmedBody(resp)
	if body == "" {
		return Failure(sc.MobileNumber, ResponseInvalid)
	}
	status, found, err := xmlFindText(body, "status")
	if err != nil || !found {
		return Failure(sc.MobileNumber, ResponseInvalid)
	}
	if status == "0" {
		id, _, _ := xmlFindText(body, "messageid")
		return Success(sc.MobileNumber, id)
	}
	if reason, ok := infobipErrors[status]; ok {
		return Failure(sc.MobileNumber, reason)
	}
	return Failure(sc.MobileNumber, fmt.Sprintf("infobip status %s", status))
}
