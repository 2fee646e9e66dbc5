package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"padron/internal/identity/metrics"
	"padron/internal/identity/models"
	"padron/pkg/domain"
)

// DefaultTimeout bounds every registry request.
const DefaultTimeout = 10 * time.Second

// DefaultQueryParam is the query parameter carrying the DNI.
const DefaultQueryParam = "numero"

// Credential headers. The registry's auth contract is not documented
// consistently, so a credential is sent under all three.
const (
	HeaderAuthorization = "Authorization"
	HeaderAPIKey        = "X-Api-Key"
	HeaderAuthToken     = "X-Auth-Token"
)

// MaxBodyBytes caps the registry response body that is read and decoded.
const MaxBodyBytes = 1 << 20

// Config holds the process-wide registry settings, read once at start.
type Config struct {
	BaseURL    string
	Token      string // default credential; empty means anonymous
	QueryParam string
}

// Client queries the external identity registry over HTTP.
type Client struct {
	endpoint   *url.URL
	queryParam string
	token      string
	timeout    time.Duration
	http       *http.Client
	tracer     trace.Tracer
	metrics    *metrics.Metrics
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout overrides DefaultTimeout. Intended for tests.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMetrics reports upstream latency to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracerProvider traces requests with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

const tracerName = "padron/internal/identity/registry"

// NewClient builds a registry client from cfg.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("registry base URL is required")
	}
	endpoint, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse registry base URL: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("registry base URL must be http or https, got %q", endpoint.Scheme)
	}
	param := cfg.QueryParam
	if param == "" {
		param = DefaultQueryParam
	}

	c := &Client{
		endpoint:   endpoint,
		queryParam: param,
		token:      cfg.Token,
		timeout:    DefaultTimeout,
		http:       &http.Client{},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch performs one GET against the registry for id. A non-empty credential
// overrides the configured default. The decoded JSON object is returned as-is.
func (c *Client) Fetch(ctx context.Context, id domain.DNI, credential string) (models.RawPayload, error) {
	ctx, span := c.tracer.Start(ctx, "registry.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("identity.dni_masked", id.Masked())),
	)
	defer span.End()

	start := time.Now()
	payload, status, err := c.do(ctx, id, c.resolveCredential(credential))

	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	if status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	span.SetAttributes(attribute.String("registry.outcome", outcome))
	c.metrics.ObserveUpstreamLatency(outcome, time.Since(start))

	return payload, err
}

func (c *Client) resolveCredential(override string) string {
	if override != "" {
		return override
	}
	return c.token
}

func (c *Client) do(ctx context.Context, id domain.DNI, credential string) (models.RawPayload, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(id), nil)
	if err != nil {
		return nil, 0, Unreachable(fmt.Errorf("build request: %w", err), false)
	}
	req.Header.Set("Accept", "application/json")
	if credential != "" {
		req.Header.Set(HeaderAuthorization, "Bearer "+credential)
		req.Header.Set(HeaderAPIKey, credential)
		req.Header.Set(HeaderAuthToken, credential)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, Unreachable(err, isTimeout(ctx, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodyBytes))
		return nil, resp.StatusCode, Rejected(resp.StatusCode, statusText(resp))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, resp.StatusCode, Unreachable(fmt.Errorf("read response body: %w", err), isTimeout(ctx, err))
	}
	if int64(len(body)) > MaxBodyBytes {
		return nil, resp.StatusCode, ResponseTooLarge(MaxBodyBytes)
	}

	payload, err := decodePayload(body)
	if err != nil {
		return nil, resp.StatusCode, EmptyResponse(err)
	}
	return payload, resp.StatusCode, nil
}

func (c *Client) requestURL(id domain.DNI) string {
	u := *c.endpoint
	q := u.Query()
	q.Set(c.queryParam, id.String())
	u.RawQuery = q.Encode()
	return u.String()
}

// decodePayload accepts only a JSON object. Empty bodies, null, malformed JSON
// and non-object values are all reported as unusable.
func decodePayload(body []byte) (models.RawPayload, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	switch val := v.(type) {
	case nil:
		return nil, errors.New("null body")
	case map[string]any:
		return models.RawPayload(val), nil
	default:
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
