package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/af-corp/campaign-relay/internal/httputil"
	"github.com/af-corp/campaign-relay/internal/telemetry"
	"github.com/af-corp/campaign-relay/internal/types"
	"github.com/af-corp/campaign-relay/internal/upstream"
)

// Sender forwards a payload to the upstream generation service.
type Sender interface {
	Send(ctx context.Context, route upstream.Route, payload any) (*upstream.Result, error)
}

// Handler holds dependencies for the relay HTTP handlers.
type Handler struct {
	upstream    Sender
	metrics     *telemetry.Metrics
	debugErrors func() bool
}

// NewHandler creates a handler. metrics and debugErrors may be nil.
func NewHandler(sender Sender, metrics *telemetry.Metrics, debugErrors func() bool) *Handler {
	if debugErrors == nil {
		debugErrors = func() bool { return false }
	}
	return &Handler{
		upstream:    sender,
		metrics:     metrics,
		debugErrors: debugErrors,
	}
}

const configurationHint = "Check API_BASE_URL"

// Generate handles POST /api/generate
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := httputil.RequestIDFromContext(r.Context())

	fields, err := decodeObject(r.Body)
	if err != nil {
		h.rejectBody(w, reqID, upstream.RouteGenerate, start, err)
		return
	}

	h.relay(w, r, upstream.RouteGenerate, campaignPayload(fields), start)
}

// Rewrite handles POST /api/rewrite
func (h *Handler) Rewrite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := httputil.RequestIDFromContext(r.Context())

	fields, err := decodeObject(r.Body)
	if err != nil {
		h.rejectBody(w, reqID, upstream.RouteRewrite, start, err)
		return
	}
	payload, ok := newRewritePayload(fields)
	if !ok {
		h.reject(w, reqID, upstream.RouteRewrite, start, "Text and option are required")
		return
	}

	h.relay(w, r, upstream.RouteRewrite, payload, start)
}

func (h *Handler) relay(w http.ResponseWriter, r *http.Request, route upstream.Route, payload any, start time.Time) {
	reqID := httputil.RequestIDFromContext(r.Context())

	result, err := h.upstream.Send(r.Context(), route, payload)
	if err != nil {
		h.fail(w, reqID, route, start, err)
		return
	}

	duration := time.Since(start)
	slog.Info("request completed",
		"request_id", reqID,
		"route", route,
		"field", result.Field,
		"upstream_ms", result.Duration.Milliseconds(),
		"duration_ms", duration.Milliseconds(),
		"status_code", http.StatusOK,
	)
	h.record(route, http.StatusOK, "", duration)

	httputil.WriteSuccess(w, reqID, result.Output)
}

// fail converts a relay failure into an error envelope.
func (h *Handler) fail(w http.ResponseWriter, reqID string, route upstream.Route, start time.Time, err error) {
	var relayErr *upstream.Error
	if !errors.As(err, &relayErr) {
		relayErr = &upstream.Error{Kind: types.KindAPI, Message: "Internal server error", Cause: err}
	}
	kind := relayErr.Kind
	status := kind.HTTPStatus()
	duration := time.Since(start)

	attrs := []any{
		"request_id", reqID,
		"route", route,
		"kind", kind,
		"duration_ms", duration.Milliseconds(),
		"status_code", status,
		"error", err,
	}
	if relayErr.StatusCode != 0 {
		attrs = append(attrs, "upstream_status", relayErr.StatusCode)
	}
	slog.Error("request failed", attrs...)
	h.record(route, status, kind, duration)

	if !h.debugErrors() {
		httputil.WriteError(w, reqID, kind, relayErr.Message)
		return
	}
	detail := ""
	if relayErr.Cause != nil {
		detail = relayErr.Cause.Error()
	}
	hint := ""
	if errors.Is(relayErr, upstream.ErrConfiguration) {
		hint = configurationHint
	}
	httputil.WriteDetailedError(w, reqID, kind, relayErr.Message, detail, hint)
}

func (h *Handler) rejectBody(w http.ResponseWriter, reqID string, route upstream.Route, start time.Time, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		h.reject(w, reqID, route, start, "Request body too large")
	case errors.Is(err, errNotObject):
		h.reject(w, reqID, route, start, "Request body must be a JSON object")
	default:
		h.reject(w, reqID, route, start, "Invalid JSON in request body")
	}
}

func (h *Handler) reject(w http.ResponseWriter, reqID string, route upstream.Route, start time.Time, message string) {
	duration := time.Since(start)
	slog.Warn("request rejected",
		"request_id", reqID,
		"route", route,
		"reason", message,
	)
	h.record(route, http.StatusBadRequest, types.KindValidation, duration)
	httputil.WriteValidationError(w, reqID, message)
}

func (h *Handler) record(route upstream.Route, status int, kind types.ErrorKind, duration time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordRequest(telemetry.RequestLabels{
		Route:      string(route),
		Status:     strconv.Itoa(status),
		Kind:       string(kind),
		DurationMs: float64(duration.Milliseconds()),
	})
}
