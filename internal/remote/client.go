// Package remote talks to a bundle server's debug endpoints. A Client
// serves as a session's bundle source, route resolver and remote
// dispatcher.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"blockshell/internal/domain"
)

// Response bodies are capped at 5MB.
const maxBody = 5 * 1024 * 1024

// StatusError is a non-2xx reply other than a dispatch refusal.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

type Client struct {
	base   *url.URL
	http   *http.Client
	tracer trace.Tracer
}

type Option func(*Client)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse remote url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("remote url %q must be absolute", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: 30 * time.Second},
		tracer: otel.Tracer("blockshell/remote"),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// do sends one request and returns the status code and body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (int, []byte, error) {
	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return 0, nil, fmt.Errorf("read body: %w", err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	return resp.StatusCode, data, nil
}

func (c *Client) statusError(method, path string, code int, body []byte) error {
	return &StatusError{Method: method, Path: path, Code: code, Body: strings.TrimSpace(string(body))}
}

func ok(code int) bool { return code >= 200 && code < 300 }

// LoadBundle fetches GET /bundle.
func (c *Client) LoadBundle(ctx context.Context) (*domain.Bundle, error) {
	code, body, err := c.do(ctx, http.MethodGet, "/bundle", nil, nil)
	if err != nil {
		return nil, err
	}
	if !ok(code) {
		return nil, c.statusError(http.MethodGet, "/bundle", code, body)
	}
	var b domain.Bundle
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if err := b.Normalize(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Resolve asks GET /routes/resolve?slug=. Refusals (403, 404) come back as a
// resolution, not an error. The bundle argument is unused.
func (c *Client) Resolve(ctx context.Context, _ *domain.Bundle, slug string) (domain.RouteResolution, error) {
	code, body, err := c.do(ctx, http.MethodGet, "/routes/resolve", url.Values{"slug": {slug}}, nil)
	if err != nil {
		return domain.RouteResolution{}, err
	}
	var res domain.RouteResolution
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &res); err != nil {
			if ok(code) {
				return domain.RouteResolution{}, fmt.Errorf("decode route: %w", err)
			}
			res = domain.RouteResolution{Error: strings.TrimSpace(string(body))}
		}
	}
	if res.Status == 0 {
		res.Status = code
	}
	if !ok(code) {
		res.Allowed = false
		if code >= 500 {
			return domain.RouteResolution{}, c.statusError(http.MethodGet, "/routes/resolve", code, body)
		}
	}
	return res, nil
}

// Dispatch posts to /debug/dispatch.
func (c *Client) Dispatch(ctx context.Context, req domain.DispatchRequest) (domain.EvalResult, error) {
	return c.eval(ctx, "/debug/dispatch", req)
}

// Tick posts to /debug/tick.
func (c *Client) Tick(ctx context.Context) (domain.EvalResult, error) {
	return c.eval(ctx, "/debug/tick", struct{}{})
}

// eval posts body and decodes an EvalResult. A 403 reply becomes a refused
// result.
func (c *Client) eval(ctx context.Context, path string, body any) (domain.EvalResult, error) {
	code, data, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return domain.EvalResult{}, err
	}
	switch {
	case code == http.StatusForbidden:
		var res domain.EvalResult
		_ = json.Unmarshal(data, &res)
		res.Status = http.StatusForbidden
		if res.Error == "" {
			res.Error = http.StatusText(http.StatusForbidden)
		}
		if res.Logs == nil {
			res.Logs = []string{}
		}
		return res, nil
	case !ok(code):
		return domain.EvalResult{}, c.statusError(http.MethodPost, path, code, data)
	}
	var res domain.EvalResult
	if err := json.Unmarshal(data, &res); err != nil {
		return domain.EvalResult{}, fmt.Errorf("decode result: %w", err)
	}
	if res.Logs == nil {
		res.Logs = []string{}
	}
	return res, nil
}
