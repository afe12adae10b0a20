// Package api exposes the HTTP interface for the price service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rafaelordanini/ANP-GRU/internal/config"
	"github.com/rafaelordanini/ANP-GRU/internal/service"
	"github.com/rafaelordanini/ANP-GRU/internal/survey"
	"github.com/rafaelordanini/ANP-GRU/internal/telemetry"
)

// PriceSource produces the payloads the API serves.
type PriceSource interface {
	Latest(ctx context.Context, opts service.Options) (survey.Payload, error)
	Summary(ctx context.Context, opts service.Options) (survey.SummaryPayload, error)
}

// Clock supplies the time used for cache header math.
type Clock interface {
	Now() time.Time
}

// Server wires HTTP handlers to the price pipeline.
type Server struct {
	router  chi.Router
	source  PriceSource
	clock   Clock
	cfg     config.Config
	logger  *zap.Logger
	headers headerPolicy
}

// NewServer constructs a Server with middleware and routes.
func NewServer(source PriceSource, clock Clock, cfg config.Config, logger *zap.Logger) *Server {
	s := &Server{
		source:  source,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
		headers: newHeaderPolicy(cfg, clock),
	}

	// The request budget covers both upstream fetches plus parsing slack.
	budget := cfg.PageTimeout() + cfg.FileTimeout() + 5*time.Second

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(telemetry.Middleware)
	r.Use(corsMiddleware)
	r.Use(timeoutMiddleware(budget))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/prices", s.getPrices)
		r.Get("/prices/summary", s.getSummary)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// The pipeline holds no connections; readiness mirrors liveness.
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) getPrices(w http.ResponseWriter, r *http.Request) {
	refresh := refreshRequested(r)
	payload, err := s.source.Latest(r.Context(), service.Options{ForceRefresh: refresh})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", s.headers.directive(refresh))
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	refresh := refreshRequested(r)
	payload, err := s.source.Summary(r.Context(), service.Options{ForceRefresh: refresh})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", s.headers.directive(refresh))
	s.writeJSON(w, http.StatusOK, payload)
}

func refreshRequested(r *http.Request) bool {
	return r.URL.Query().Get("refresh") == "true"
}

// writeFailure folds every pipeline error into the uniform error body. The
// status is always 500: from the caller's side a missing municipality and a
// dead upstream are the same outage.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("price lookup failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	w.Header().Set("Cache-Control", "no-store")
	s.writeJSON(w, http.StatusInternalServerError, survey.ErrorPayload{Success: false, Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

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
		reqID, _ := r.Context().Value(requestIDKey{}).(string)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("request_id", reqID),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("panic", rec))
				s.writeJSON(w, http.StatusInternalServerError,
					survey.ErrorPayload{Success: false, Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware applies the open policy a public read-only endpoint
// publishes, and resolves preflights with an empty 200.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for key, value := range corsHeaders() {
			h.Set(key, value)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func corsHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type",
	}
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

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

type requestIDKey struct{}
