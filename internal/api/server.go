// Package api exposes the HTTP interface for the monitor service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/politeping/politeping/internal/metrics"
	"github.com/politeping/politeping/internal/monitor"
)

// PassRunner runs one monitoring pass on demand.
type PassRunner interface {
	RunPass(ctx context.Context) []monitor.HealthVerdict
}

// Server wires HTTP handlers to the verdict store and pass runner.
type Server struct {
	router    chi.Router
	store     *monitor.Store
	runner    PassRunner
	endpoints []monitor.Endpoint
	userAgent string
	started   time.Time
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(store *monitor.Store, runner PassRunner, endpoints []monitor.Endpoint, userAgent string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:     store,
		runner:    runner,
		endpoints: endpoints,
		userAgent: userAgent,
		started:   time.Now(),
		logger:    logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(metricsMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(120 * time.Second))

	r.Get("/", s.dashboard)
	r.Get("/snapshot", s.snapshot)
	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// snapshot runs a fresh pass and returns its verdicts. Endpoints inside a
// rate window replay their last verdict as Skipped, so back-to-back calls
// stay polite.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	verdicts := s.runner.RunPass(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"checked_at": time.Now().UTC().Format(time.RFC3339),
		"count":      len(verdicts),
		"results":    verdicts,
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"endpoints":      len(s.endpoints),
		"user_agent":     s.userAgent,
	})
}

func (s *Server) dashboard(w http.ResponseWriter, _ *http.Request) {
	verdicts := s.store.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, dashboardData{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Verdicts:    verdicts,
	}); err != nil {
		s.logger.Error("dashboard render failed", zap.Error(err))
	}
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request counts and durations per chi route
// pattern, keeping label cardinality bounded.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unknown"
		}
		metrics.ObserveHTTPRequest(r.Method, route, ww.status, time.Since(start))
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
