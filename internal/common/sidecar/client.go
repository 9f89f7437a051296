// internal/common/sidecar/client.go
package sidecar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fourget-bridge/internal/common/config"
	"fourget-bridge/internal/common/errors"
	httpclient "fourget-bridge/internal/common/http"
	"fourget-bridge/internal/common/logger"
	"fourget-bridge/internal/common/metrics"
	"fourget-bridge/internal/common/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	EndpointHarness = "harness"
	EndpointFilters = "filters"
	EndpointParse   = "parse"
	EndpointHealth  = "health"
)

// Client talks to the 4get sidecar.
type Client struct {
	baseURL string
	http    *httpclient.Client
	logger  logger.Logger
	obs     *observability.Observability
	tracer  trace.Tracer
}

type Option func(*Client)

// WithObservability records spans and OTel counters for every call.
func WithObservability(obs *observability.Observability) Option {
	return func(c *Client) {
		c.obs = obs
		if obs != nil {
			c.tracer = obs.Tracer()
		}
	}
}

// WithHTTPClient replaces the transport client.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(cfg config.SidecarConfig, log logger.Logger, opts ...Option) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultSidecarURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    httpclient.NewClient(config.GetDuration(cfg.Timeout)),
		logger:  log.With(map[string]interface{}{"component": "sidecar"}),
		tracer:  noop.NewTracerProvider().Tracer("sidecar"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch runs an engine through harness.php and returns the decoded payload
// untouched. The payload shape is validated later by the result pipeline.
func (c *Client) Fetch(ctx context.Context, engine string, params map[string]interface{}) (interface{}, error) {
	ctx, span := c.startSpan(ctx, "sidecar.fetch", attribute.String("engine", engine))
	defer span.End()

	body := map[string]interface{}{"engine": engine, "params": params}
	resp, err := c.post(ctx, EndpointHarness, "/harness.php", body)
	if err != nil {
		return nil, c.fail(span, c.transportError(engine, err))
	}
	if !resp.OK() {
		return nil, c.fail(span, errors.NewSidecarUnavailableError(fmt.Errorf("harness returned HTTP %d", resp.StatusCode)))
	}

	return c.decodePayload(span, engine, resp.Body)
}

// Parse sends a page fetched elsewhere to the sidecar root, which runs the
// named scraper against the injected HTML.
func (c *Client) Parse(ctx context.Context, scraper, html string, params map[string]interface{}) (interface{}, error) {
	ctx, span := c.startSpan(ctx, "sidecar.parse", attribute.String("scraper", scraper))
	defer span.End()

	body := map[string]interface{}{"scraper": scraper, "html": html, "params": params}
	resp, err := c.post(ctx, EndpointParse, "/", body)
	if err != nil {
		return nil, c.fail(span, c.transportError(scraper, err))
	}
	if !resp.OK() {
		return nil, c.fail(span, errors.NewSidecarUnavailableError(fmt.Errorf("parser returned HTTP %d", resp.StatusCode)))
	}

	return c.decodePayload(span, scraper, resp.Body)
}

// Filters returns the engine's getfilters() answer. Failures degrade to an
// empty set so a search can still run with the sidecar's own defaults.
func (c *Client) Filters(ctx context.Context, engine string) Filters {
	filters, err := c.FetchFilters(ctx, engine)
	if err != nil {
		c.logger.Warn("failed to fetch engine filters", map[string]interface{}{
			"engine": engine,
			"error":  err.Error(),
		})
		return Filters{}
	}
	return filters
}

// FetchFilters is Filters without the degradation.
func (c *Client) FetchFilters(ctx context.Context, engine string) (Filters, error) {
	ctx, span := c.startSpan(ctx, "sidecar.filters", attribute.String("engine", engine))
	defer span.End()

	body := map[string]interface{}{"engine": engine, "page": "web"}
	resp, err := c.post(ctx, EndpointFilters, "/filters.php", body)
	if err != nil {
		return nil, c.fail(span, errors.NewFiltersFetchFailedError(engine, err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.fail(span, errors.NewFiltersFetchFailedError(engine, fmt.Errorf("filters returned HTTP %d", resp.StatusCode)))
	}

	filters, err := ParseFilters(resp.Body)
	if err != nil {
		return nil, c.fail(span, errors.NewFiltersFetchFailedError(engine, err))
	}
	span.SetAttributes(attribute.Int("filters.count", len(filters)))
	return filters, nil
}

// Health is the decoded health.php report.
type Health struct {
	Status      string            `json:"status"`
	Timestamp   int64             `json:"timestamp"`
	Checks      map[string]string `json:"checks"`
	EngineCount int               `json:"engine_count"`
	HTTPStatus  int               `json:"-"`
}

func (h *Health) OK() bool {
	return h.Status == "ok"
}

// Health queries health.php. A 503 carries a degraded report and is
// returned without error.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	ctx, span := c.startSpan(ctx, "sidecar.health")
	defer span.End()

	start := time.Now()
	resp, err := c.http.Get(ctx, c.baseURL+"/health.php", nil)
	if err != nil {
		c.observe(ctx, EndpointHealth, outcomeOf(err), start)
		return nil, c.fail(span, errors.NewSidecarUnavailableError(err))
	}

	var health Health
	if err := resp.DecodeJSON(&health); err != nil {
		c.observe(ctx, EndpointHealth, "bad_body", start)
		return nil, c.fail(span, errors.NewSidecarUnavailableError(fmt.Errorf("health returned HTTP %d: %w", resp.StatusCode, err)))
	}
	health.HTTPStatus = resp.StatusCode
	if health.Status == "" {
		health.Status = "error"
	}

	outcome := "ok"
	if !health.OK() {
		outcome = health.Status
	}
	c.observe(ctx, EndpointHealth, outcome, start)
	span.SetAttributes(attribute.String("health.status", health.Status))
	return &health, nil
}

func (c *Client) post(ctx context.Context, endpoint, path string, body interface{}) (*httpclient.Response, error) {
	start := time.Now()
	resp, err := c.http.PostJSON(ctx, c.baseURL+path, body)
	switch {
	case err != nil:
		c.observe(ctx, endpoint, outcomeOf(err), start)
	case !resp.OK():
		c.observe(ctx, endpoint, fmt.Sprintf("http_%d", resp.StatusCode), start)
	default:
		c.observe(ctx, endpoint, "ok", start)
	}
	return resp, err
}

// decodePayload decodes a harness/parser body, turning {status: error}
// answers into sidecar errors.
func (c *Client) decodePayload(span trace.Span, engine string, body []byte) (interface{}, error) {
	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, c.fail(span, errors.NewSidecarError(engine, fmt.Sprintf("invalid JSON from sidecar: %v", err)))
	}

	if m, ok := payload.(map[string]interface{}); ok {
		if status, _ := m["status"].(string); status == "error" {
			message, _ := m["message"].(string)
			if message == "" {
				message = "sidecar reported an error"
			}
			return nil, c.fail(span, errors.NewSidecarError(engine, message))
		}
	}
	return payload, nil
}

func (c *Client) transportError(engine string, err error) error {
	if httpclient.IsTimeout(err) {
		return errors.NewSidecarTimeoutError(engine)
	}
	return errors.NewSidecarUnavailableError(err)
}

func (c *Client) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (c *Client) observe(ctx context.Context, endpoint, outcome string, start time.Time) {
	metrics.SidecarRequestDuration.WithLabelValues(endpoint, outcome).Observe(time.Since(start).Seconds())
	if c.obs != nil {
		c.obs.RecordSidecarCall(ctx, endpoint, outcome)
	}
}

func outcomeOf(err error) string {
	if httpclient.IsTimeout(err) {
		return "timeout"
	}
	return "transport_error"
}
