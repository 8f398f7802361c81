package provider

import (
	"fmt"
	"hash/fnv"
	"strings"
)

const (
	silverstreetBodyTypeText = 1
	silverstreetBodyTypeUCS2 = 4
)

// Silverstreet takes one GET per message part. Multi-part messages carry a
// UDH built here; unicode text is sent as UCS-2 hex.
type Silverstreet struct {
	httpAdapter
}

func NewSilverstreet(deps Deps) Adapter {
	return &Silverstreet{httpAdapter: newHTTPAdapter("silverstreet", deps)}
}

func (s *Silverstreet) BuildRequest(sc SendContext) ([]*PreparedRequest, error) {
	bodyType := silverstreetBodyTypeText
	var parts []string
	if sc.IsUnicode() {
		bodyType = silverstreetBodyTypeUCS2
		parts = SplitHex(UCS2Hex(sc.Text), UCS2HexSingleLimit, UCS2HexPartLimit)
	} else {
		parts = SplitParts(sc.Text, false)
	}

	var msgType string
	if sc.IsUnicode() {
		msgType = "msg_type=Unicode_Text"
	}
	bodyTypeParam := fmt.Sprintf("BODYTYPE=%d", bodyType)

	if len(parts) == 1 {
		psc := sc
		psc.Text = parts[0]
		url := JoinURL(sc.APIURL, EncodeQuery(QueryParams(psc)), msgType, bodyTypeParam)
		return []*PreparedRequest{{URL: url, Part: 1}}, nil
	}

	ref := concatRef(sc.MessageTag)
	reqs := make([]*PreparedRequest, 0, len(parts))
	for i, part := range parts {
		psc := sc
		psc.Text = strings.ReplaceAll(part, "\n", " ")
		udh := "UDH=" + UDH(ref, len(parts), i+1)
		url := JoinURL(sc.APIURL, EncodeQuery(QueryParams(psc)), msgType, bodyTypeParam, udh)
		reqs = append(reqs, &PreparedRequest{URL: url, Part: i + 1})
	}
	return reqs, nil
}

func (s *Silverstreet) ParseResponse(sc SendContext, resp *RawResponse) ParsedResult {
	body := trimmedBody(resp)
	if body == "" {
		return Failure(sc.MobileNumber, ResponseInvalid)
	}
	if body == "01" {
		return Success(sc.MobileNumber, sc.MessageTag)
	}
	return Failure(sc.MobileNumber, body)
}

// concatRef derives the one-byte concatenation reference from the tag.
func concatRef(tag string) byte {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tag))
	return byte(h.Sum32())
}
