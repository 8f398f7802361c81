package provider

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// MockAdapter answers without network I/O. It is registered as "mock" for
// development setups and used by tests.
type MockAdapter struct {
	logger *slog.Logger

	FailWith       string        // when set, every send fails with this reason
	ExecErr        error         // when set, Execute returns it
	SplitParts     bool          // one request per GSM/UCS-2 segment
	SimulatedDelay time.Duration // to simulate network latency

	calls atomic.Int32
}

func NewMockAdapter(logger *slog.Logger) *MockAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockAdapter{logger: logger.With("provider", "mock")}
}

func (m *MockAdapter) Name() string { return "mock" }

// Calls is the number of Execute calls so far.
func (m *MockAdapter) Calls() int { return int(m.calls.Load()) }

func (m *MockAdapter) BuildRequest(sc SendContext) ([]*PreparedRequest, error) {
	parts := []string{sc.Text}
	if m.SplitParts {
		parts = SplitParts(sc.Text, sc.IsUnicode())
	}
	reqs := make([]*PreparedRequest, len(parts))
	for i := range parts {
		reqs[i] = &PreparedRequest{URL: "mock://" + sc.MobileNumber, Part: i + 1}
	}
	return reqs, nil
}

func (m *MockAdapter) Execute(ctx context.Context, req *PreparedRequest) (*RawResponse, error) {
	m.calls.Add(1)
	if m.SimulatedDelay > 0 {
		select {
		case <-time.After(m.SimulatedDelay):
		case <-ctx.Done():
			return nil, &ProviderError{Kind: KindTimeout, Provider: m.Name(), Err: ctx.Err()}
		}
	}
	if m.ExecErr != nil {
		return nil, m.ExecErr
	}
	if m.FailWith != "" {
		return &RawResponse{StatusCode: 200, Body: "ERR " + m.FailWith}, nil
	}
	m.logger.DebugContext(ctx, "Mock send", "url", req.URL, "part", req.Part)
	return &RawResponse{StatusCode: 200, Body: "OK"}, nil
}

func (m *MockAdapter) ParseResponse(sc SendContext, resp *RawResponse) ParsedResult {
	body := trimmedBody(resp)
	if reason, ok := strings.CutPrefix(body, "ERR "); ok {
		return Failure(sc.MobileNumber, reason)
	}
	if body != "OK" {
		return Failure(sc.MobileNumber, ResponseInvalid)
	}
	return Success(sc.MobileNumber, "mock-"+sc.MessageTag)
}
