// Package http provides the HTTP transport layer for the personal details service.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mvaleed/privatedetails/internal/auth"
	"github.com/mvaleed/privatedetails/internal/domain"
	"github.com/mvaleed/privatedetails/internal/form"
	"github.com/mvaleed/privatedetails/internal/service"
	"github.com/mvaleed/privatedetails/internal/transport/request"
	"github.com/mvaleed/privatedetails/internal/validation"
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Dependencies are what the handlers call into.
type Dependencies struct {
	Details  *service.PersonalDetailsService
	Sessions *form.Sessions
	Inputs   *request.Validator
	Dates    *validation.DateValidator
	JWT      *auth.JWTManager

	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
	// Checks are run by /health, keyed by dependency name.
	Checks map[string]HealthCheck
	// Now is the clock used for the date of birth bounds; nil means time.Now.
	Now func() time.Time
}

// Server is the HTTP server for the personal details service.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	deps       Dependencies
	logger     *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(deps Dependencies, logger *slog.Logger) *Server {
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Server{
		router: chi.NewRouter(),
		deps:   deps,
		logger: logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	// API v1
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/me/personal-details", func(r chi.Router) {
			r.Get("/", s.handleGetPersonalDetails)
			r.Get("/changes", s.handleListChanges)
			r.Put("/date-of-birth", s.handleUpdateDateOfBirth)
			r.Put("/legal-name", s.handleUpdateLegalName)
		})
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	failing := map[string]string{}
	for name, check := range s.deps.Checks {
		if err := check(r.Context()); err != nil {
			failing[name] = err.Error()
		}
	}

	if len(failing) > 0 {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"checks": failing,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Response helpers

type errorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var status int
	var resp errorResponse

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
		resp = errorResponse{Error: err.Error(), Code: "INVALID_INPUT"}
		var ves domain.ValidationErrors
		var ve domain.ValidationError
		if errors.As(err, &ves) {
			resp.Details = ves.Fields()
		} else if errors.As(err, &ve) {
			resp.Details = map[string]string{ve.Field: ve.Message}
		}

	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		resp = errorResponse{Error: "resource not found", Code: "NOT_FOUND"}

	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
		resp = errorResponse{Error: "unauthorized", Code: "UNAUTHORIZED"}

	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
		resp = errorResponse{Error: "conflict", Code: "CONFLICT"}

	case errors.Is(err, domain.ErrNotReady):
		status = http.StatusServiceUnavailable
		resp = errorResponse{Error: "personal details are still loading", Code: "NOT_READY"}

	default:
		s.logger.Error("unhandled error", slog.String("error", err.Error()))
		status = http.StatusInternalServerError
		resp = errorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}
	}

	s.writeJSON(w, status, resp)
}

func (s *Server) readJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ValidationError{Field: "body", Message: "invalid JSON"}
	}
	return nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Context helpers

type contextKey string

const (
	userClaimsKey contextKey = "user_claims"
)

func setUserClaims(ctx context.Context, claims *userClaims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

func getUserClaims(ctx context.Context) *userClaims {
	if claims, ok := ctx.Value(userClaimsKey).(*userClaims); ok {
		return claims
	}
	return nil
}
