package provider

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	maxRedirects    = 10
	maxResponseBody = 1 << 20
)

var errTooManyRedirects = errors.New("stopped after too many redirects")

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TransportConfig bounds every provider call.
type TransportConfig struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxRetries     int // extra attempts after a connection failure
	TLSVerify      bool
}

// Transport is the HTTP client shared by all adapters.
type Transport struct {
	client     HTTPDoer
	maxRetries int
	// attemptTimeout bounds one attempt including the body read.
	attemptTimeout time.Duration
	logger         *slog.Logger
}

// NewTransport builds an http.Client whose dialer and response-header
// timeouts come from cfg. Each attempt is also capped at connect plus read
// timeout so a provider trickling its body cannot stall a worker.
func NewTransport(cfg TransportConfig, logger *slog.Logger) *Transport {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}
	client := &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ResponseHeaderTimeout: cfg.ReadTimeout,
			TLSHandshakeTimeout:   cfg.ConnectTimeout,
			MaxIdleConnsPerHost:   16,
			IdleConnTimeout:       90 * time.Second,
			TLSClientConfig:       &tls.Config{InsecureSkipVerify: !cfg.TLSVerify}, //nolint:gosec // several gateways serve self-signed certs
		},
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errTooManyRedirects
			}
			return nil
		},
	}
	t := NewTransportWithClient(client, cfg.MaxRetries, logger)
	t.attemptTimeout = cfg.ConnectTimeout + cfg.ReadTimeout
	return t
}

// NewTransportWithClient wraps an existing client, typically an httptest one.
func NewTransportWithClient(client HTTPDoer, maxRetries int, logger *slog.Logger) *Transport {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Transport{client: client, maxRetries: maxRetries, logger: logger.With("component", "provider_transport")}
}

// Do sends req. GET is used unless the request has a body or an explicit
// method. Connection failures are retried up to maxRetries times; nothing
// else is.
func (t *Transport) Do(ctx context.Context, providerName string, req *PreparedRequest) (*RawResponse, error) {
	timer := prometheus.NewTimer(providerRequestDurationHist.WithLabelValues(providerName))
	defer timer.ObserveDuration()

	var lastErr *ProviderError
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		resp, err := t.do(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = classify(providerName, err)
		t.logger.ErrorContext(ctx, "Provider request failed",
			"provider", providerName, "url", req.URL, "attempt", attempt+1, "kind", lastErr.Kind.String(), "error", err)
		if lastErr.Kind != KindConnection || ctx.Err() != nil {
			break
		}
	}
	providerTransportErrorsCounter.WithLabelValues(providerName, lastErr.Kind.String()).Inc()
	return nil, lastErr
}

func (t *Transport) do(ctx context.Context, req *PreparedRequest) (*RawResponse, error) {
	if t.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.attemptTimeout)
		defer cancel()
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
		if req.Body != nil {
			method = http.MethodPost
		}
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.BasicAuth != nil {
		httpReq.SetBasicAuth(req.BasicAuth.Username, req.BasicAuth.Password)
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &RawResponse{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: string(data)}, nil
}

func classify(providerName string, err error) *ProviderError {
	kind := KindRequest
	var netErr net.Error
	var opErr *net.OpError
	switch {
	case errors.Is(err, errTooManyRedirects):
		kind = KindTooManyRedirects
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.As(err, &opErr), errors.Is(err, io.EOF), strings.Contains(err.Error(), "connection reset"):
		kind = KindConnection
	}
	return &ProviderError{Kind: kind, Provider: providerName, Err: err}
}
