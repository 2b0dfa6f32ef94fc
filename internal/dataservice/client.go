package dataservice

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

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/telemetry"
)

// DefaultTimeout bounds every request unless overridden.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 4 << 10

// Client talks to the groundwater data service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	tracer  trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient builds a client rooted at baseURL (for example
// "http://localhost:8080/api").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
		tracer: telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// #region metadata
// States lists every state.
func (c *Client) States(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, "states", http.MethodGet, []string{"meta", "states"}, nil, nil, &out)
	return out, err
}

// Districts lists the districts of state.
func (c *Client) Districts(ctx context.Context, state string) ([]string, error) {
	var out []string
	q := url.Values{"state": {state}}
	err := c.do(ctx, "districts", http.MethodGet, []string{"meta", "districts"}, q, nil, &out)
	return out, err
}

// Blocks lists the blocks of district in state.
func (c *Client) Blocks(ctx context.Context, state, district string) ([]string, error) {
	var out []string
	q := url.Values{"state": {state}, "district": {district}}
	err := c.do(ctx, "blocks", http.MethodGet, []string{"meta", "blocks"}, q, nil, &out)
	return out, err
}

// #endregion metadata

// Query runs an assessment query.
func (c *Client) Query(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	var out QueryResponse
	if err := c.do(ctx, "query", http.MethodPost, []string{"query"}, nil, req, &out); err != nil {
		return QueryResponse{}, err
	}
	return out, nil
}

// #region transport
func (c *Client) do(ctx context.Context, endpoint, method string, path []string, query url.Values, body, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "dataservice."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("dataservice.endpoint", endpoint)))
	start := time.Now()
	status := 0
	defer func() {
		telemetry.ObserveRequest(endpoint, status, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, KindOf(err).String())
		}
		span.End()
	}()

	target, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return &Error{Kind: KindUnknown, Endpoint: endpoint, Message: "bad base url", Err: errors.Wrap(err, "join path")}
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindUnknown, Endpoint: endpoint, Message: "encode request", Err: errors.Wrap(err, "marshal body")}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &Error{Kind: KindUnknown, Endpoint: endpoint, Message: "build request", Err: errors.Wrap(err, "new request")}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("data service unreachable", zap.String("endpoint", endpoint), zap.Error(err))
		return transportError(endpoint, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.status_code", status))

	if status >= 400 {
		msg := errorMessage(resp)
		c.logger.Warn("data service error",
			zap.String("endpoint", endpoint), zap.Int("status", status), zap.String("message", msg))
		return &Error{Kind: kindForStatus(status), Status: status, Endpoint: endpoint, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindUnknown, Status: status, Endpoint: endpoint, Message: "malformed response", Err: errors.Wrap(err, "decode "+endpoint)}
	}
	c.logger.Debug("data service call", zap.String("endpoint", endpoint), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// errorMessage prefers the body's "message", then "error", then the
// status line.
func errorMessage(resp *http.Response) string {
	fallback := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return fallback
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return fallback
	}
	switch {
	case payload.Message != "":
		return payload.Message
	case payload.Error != "":
		return payload.Error
	default:
		return fallback
	}
}

// #endregion transport
