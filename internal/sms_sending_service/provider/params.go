package provider

import (
	"net/url"
	"sort"
	"strings"

	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
)

// QueryParam is one ordered key/value pair.
type QueryParam struct {
	Key   string
	Value string
}

// QueryParams returns the query-string params for sc in Position order.
// MMS-only params and params not flagged InQueryString are skipped.
func QueryParams(sc SendContext) []QueryParam {
	params := make([]domain.ServiceProviderParam, 0, len(sc.Params))
	for _, p := range sc.Params {
		if !p.InQueryString || p.IsMMSParam {
			continue
		}
		params = append(params, p)
	}
	return resolveParams(sc, params)
}

// BodyParams is QueryParams without the InQueryString filter, for gateways
// that take every param in the request body.
func BodyParams(sc SendContext) []QueryParam {
	params := make([]domain.ServiceProviderParam, 0, len(sc.Params))
	for _, p := range sc.Params {
		if p.IsMMSParam {
			continue
		}
		params = append(params, p)
	}
	return resolveParams(sc, params)
}

func resolveParams(sc SendContext, params []domain.ServiceProviderParam) []QueryParam {
	sort.SliceStable(params, func(i, j int) bool { return params[i].Position < params[j].Position })
	out := make([]QueryParam, 0, len(params))
	for _, p := range params {
		value := strings.TrimSpace(p.Value)
		if p.RuntimeValue {
			value = runtimeValue(sc, value)
		}
		out = append(out, QueryParam{Key: strings.TrimSpace(p.Name), Value: value})
	}
	return out
}

// runtimeValue substitutes a $placeholder. Unknown placeholders are sent as-is.
func runtimeValue(sc SendContext, placeholder string) string {
	switch placeholder {
	case "$smsText":
		return sc.Text
	case "$mobilenumber":
		return sc.MobileNumber
	case "$senderId":
		return sc.SenderID
	case "$messageTag":
		return sc.MessageTag
	default:
		return placeholder
	}
}

// EncodeQuery url-encodes params keeping their order.
func EncodeQuery(params []QueryParam) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// ParamsMap flattens params; later duplicates win.
func ParamsMap(params []QueryParam) map[string]string {
	m := make(map[string]string, len(params))
	for _, p := range params {
		m[p.Key] = p.Value
	}
	return m
}

// ConfigValue returns the raw configured value of the named param.
func ConfigValue(params []domain.ServiceProviderParam, name string) (string, bool) {
	for _, p := range params {
		if strings.TrimSpace(p.Name) == name {
			return strings.TrimSpace(p.Value), true
		}
	}
	return "", false
}

// JoinURL appends an encoded query to a base URL that may already end in
// '?' or carry a query.
func JoinURL(base, query string, extra ...string) string {
	q := query
	for _, e := range extra {
		if e == "" {
			continue
		}
		if q != "" {
			q += "&"
		}
		q += e
	}
	if q == "" {
		return base
	}
	switch {
	case strings.HasSuffix(base, "?"), strings.HasSuffix(base, "&"):
		return base + q
	case strings.Contains(base, "?"):
		return base + "&" + q
	default:
		return base + "?" + q
	}
}
