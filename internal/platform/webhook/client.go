package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBody = 4 << 10

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result is a merchant endpoint's answer.
type Result struct {
	StatusCode int
	Body       string
}

// OK reports a 2xx status.
func (r *Result) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Client delivers payloads to merchant URLs.
type Client struct {
	doer    HTTPDoer
	timeout time.Duration
	logger  *slog.Logger
}

func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return NewClientWithDoer(&http.Client{Timeout: timeout}, timeout, logger)
}

func NewClientWithDoer(doer HTTPDoer, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{doer: doer, timeout: timeout, logger: logger.With("component", "webhook_client")}
}

// Push sends fields to target. GET puts them in the query string, any other
// method sends them as a JSON body. The response body is truncated to 4KiB.
func (c *Client) Push(ctx context.Context, method, target string, fields map[string]string) (*Result, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodPost
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, target, fields)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Webhook request failed", "url", target, "method", method, "error", err)
		return nil, fmt.Errorf("webhook %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}
	c.logger.DebugContext(ctx, "Webhook delivered", "url", target, "status", resp.StatusCode, "duration", time.Since(start))
	return &Result{StatusCode: resp.StatusCode, Body: string(body)}, nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, fields map[string]string) (*http.Request, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid webhook url %q", target)
	}

	if method == http.MethodGet {
		q := u.Query()
		for k, v := range fields {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		return http.NewRequestWithContext(ctx, method, u.String(), nil)
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal webhook body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
