package upstream

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/af-corp/campaign-relay/internal/config"
	"github.com/af-corp/campaign-relay/internal/httputil"
	"github.com/af-corp/campaign-relay/internal/telemetry"
	"github.com/af-corp/campaign-relay/internal/types"
)

// Route selects which upstream webhook a request is sent to.
type Route string

const (
	RouteGenerate Route = "generate"
	RouteRewrite  Route = "rewrite"
)

func (r Route) path(cfg config.UpstreamConfig) string {
	if r == RouteRewrite {
		return cfg.RewritePath
	}
	return cfg.GeneratePath
}

const defaultTimeout = 30 * time.Second

// errorBodyLogLimit caps how much of a failed upstream body ends up in logs.
const errorBodyLogLimit = 2048

// Result is a successful upstream exchange.
type Result struct {
	Output     string
	Field      string
	StatusCode int
	Duration   time.Duration
}

// Client sends relay requests to the configured generation service. It holds
// no per-request state; the upstream settings are re-read on every call.
type Client struct {
	cfg     func() config.UpstreamConfig
	client  atomic.Pointer[http.Client]
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

// NewClient creates a client. metrics may be nil.
func NewClient(cfg func() config.UpstreamConfig, metrics *telemetry.Metrics) *Client {
	c := &Client{
		cfg:     cfg,
		metrics: metrics,
		tracer:  otel.Tracer(telemetry.TracerName),
	}
	c.client.Store(BuildHTTPClient(cfg()))
	return c
}

// BuildHTTPClient builds the shared transport for upstream calls. Timeouts
// are applied per request through the context, not here.
func BuildHTTPClient(cfg config.UpstreamConfig) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Transport: transport}
}

// Rebuild swaps in a transport built from the current settings. Calls already
// in flight finish on the old one.
func (c *Client) Rebuild() {
	cfg := c.cfg()
	old := c.client.Swap(BuildHTTPClient(cfg))
	if old != nil {
		old.CloseIdleConnections()
	}
	slog.Info("upstream client rebuilt", "insecure_skip_verify", cfg.InsecureSkipVerify)
}

// Send posts payload as JSON to the route's webhook and extracts the generated
// text. Every failure is returned as an *Error. Exactly one HTTP attempt is
// made; cancellation of ctx is ignored and only the upstream timeout bounds
// the call.
func (c *Client) Send(ctx context.Context, route Route, payload any) (result *Result, err error) {
	cfg := c.cfg()
	reqID := httputil.RequestIDFromContext(ctx)

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, newError(types.KindConfiguration, "API_BASE_URL is not configured", nil)
	}
	url := baseURL + route.path(cfg)

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, newError(types.KindAPI, "Failed to encode upstream request", fmt.Errorf("marshal %s request: %w", route, err))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "upstream."+string(route),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("relay.route", string(route)),
			attribute.String("http.request.method", http.MethodPost),
			attribute.String("url.full", url),
		),
	)
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		kind := ""
		if relayErr, ok := err.(*Error); ok {
			kind = string(relayErr.Kind)
			span.SetStatus(codes.Error, relayErr.Message)
			span.SetAttributes(attribute.String("relay.error_kind", kind))
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		if c.metrics != nil {
			c.metrics.RecordUpstream(string(route), kind, float64(elapsed.Milliseconds()))
			if result != nil {
				c.metrics.RecordExtractField(result.Field)
			}
		}
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, newError(types.KindConfiguration, "API_BASE_URL is not a valid URL", fmt.Errorf("create http request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", cfg.UserAgent)
	}
	if cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	if reqID != "" {
		httpReq.Header.Set("X-Request-ID", reqID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	slog.Debug("calling upstream", "request_id", reqID, "route", route, "url", url, "body", string(data))

	resp, err := c.client.Load().Do(httpReq)
	if err != nil {
		relayErr := transportError(err)
		slog.Error("upstream request failed",
			"request_id", reqID,
			"route", route,
			"kind", relayErr.Kind,
			"error", err,
		)
		return nil, relayErr
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The body is diagnostic only; a failed read must not mask the status.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLogLimit))
		slog.Error("upstream returned error status",
			"request_id", reqID,
			"route", route,
			"status", resp.StatusCode,
			"body", string(body),
		)
		return nil, &Error{
			Kind:       types.KindUpstream,
			Message:    fmt.Sprintf("Upstream API request failed with status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	var reader io.Reader = resp.Body
	if cfg.MaxResponseBytes > 0 {
		reader = io.LimitReader(resp.Body, cfg.MaxResponseBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		relayErr := transportError(err)
		slog.Error("failed to read upstream response", "request_id", reqID, "route", route, "error", err)
		return nil, relayErr
	}
	if cfg.MaxResponseBytes > 0 && int64(len(body)) > cfg.MaxResponseBytes {
		return nil, newError(types.KindFormat, "Upstream API response is too large", nil)
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		slog.Error("upstream response is not JSON",
			"request_id", reqID,
			"route", route,
			"error", err,
			"body", truncate(string(body), errorBodyLogLimit),
		)
		return nil, newError(types.KindFormat, "Invalid response format from upstream API", fmt.Errorf("unmarshal %s response: %w", route, err))
	}

	output, field, err := Extract(decoded)
	if err != nil {
		slog.Error("could not find text content in upstream response",
			"request_id", reqID,
			"route", route,
			"body", truncate(string(body), errorBodyLogLimit),
		)
		return nil, err
	}

	slog.Debug("upstream response extracted", "request_id", reqID, "route", route, "field", field)

	return &Result{
		Output:     output,
		Field:      field,
		StatusCode: resp.StatusCode,
		Duration:   time.Since(start),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
