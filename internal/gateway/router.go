package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/af-corp/campaign-relay/internal/httputil"
	"github.com/af-corp/campaign-relay/internal/telemetry"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Version      string
	MaxBodyBytes int64
	Metrics      *telemetry.Metrics
	// Gatherer backs /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer
}

// NewRouter wires the relay routes and middleware.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestIDMiddleware)
	r.Use(recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Measure)
	}

	r.Get("/healthz", healthHandler(opts.Version))
	r.Method(http.MethodGet, "/metrics", telemetry.Handler(opts.Gatherer))

	r.Route("/api", func(r chi.Router) {
		if opts.MaxBodyBytes > 0 {
			r.Use(middleware.RequestSize(opts.MaxBodyBytes))
		}
		r.Post("/generate", h.Generate)
		r.Post("/rewrite", h.Rewrite)
	})

	return r
}

func healthHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"version": version,
		})
	}
}

// recoverer turns a panic into a 500 error envelope.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			reqID := httputil.RequestIDFromContext(r.Context())
			slog.Error("panic recovered",
				"request_id", reqID,
				"path", r.URL.Path,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			httputil.WriteInternalError(w, reqID, "Internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
