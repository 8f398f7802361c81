package provider

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// httpAdapter carries what every HTTP gateway adapter shares.
type httpAdapter struct {
	name      string
	transport *Transport
	logger    *slog.Logger
}

func newHTTPAdapter(name string, deps Deps) httpAdapter {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return httpAdapter{name: name, transport: deps.Transport, logger: logger.With("provider", name)}
}

func (a httpAdapter) Name() string { return a.name }

func (a httpAdapter) Execute(ctx context.Context, req *PreparedRequest) (*RawResponse, error) {
	a.logger.DebugContext(ctx, "Sending provider request", "url", req.URL, "part", req.Part, "has_body", req.Body != nil)
	return a.transport.Do(ctx, a.name, req)
}

// trimmedBody returns the stripped body, or "" for a nil response.
func trimmedBody(resp *RawResponse) string {
	if resp == nil {
		return ""
	}
	return strings.TrimSpace(resp.Body)
}

// xmlFindText returns the text of the first element named name at any depth.
func xmlFindText(body, name string) (string, bool, error) {
	dec := xml.NewDecoder(strings.NewReader(body))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != name {
			continue
		}
		var text string
		if err := dec.DecodeElement(&text, &start); err != nil {
			return "", false, err
		}
		return strings.TrimSpace(text), true, nil
	}
}
