package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-genie/internal/config"
	"github.com/jonathan/resume-genie/internal/db"
	"github.com/jonathan/resume-genie/internal/pipeline"
	"github.com/jonathan/resume-genie/internal/server/middleware"
	"github.com/jonathan/resume-genie/internal/server/ratelimit"
)

// maxBodyBytes caps run request bodies.
const maxBodyBytes = 5 << 20

// Server is the HTTP API.
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	pipeline    *pipeline.Pipeline
	store       db.Store
	logger      *slog.Logger
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	validate    *validator.Validate
}

// Config holds server configuration.
type Config struct {
	Port     int
	Pipeline *pipeline.Pipeline
	// Store is optional; without it runs are not kept and the history
	// endpoints answer 503.
	Store  db.Store
	Logger *slog.Logger
	// JWT enables bearer authentication on every route but /health.
	JWT       *config.JWTConfig
	RateLimit ratelimit.Config
}

// New creates a server. It does not start listening.
func New(cfg Config) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("server requires a pipeline")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		pipeline:    cfg.Pipeline,
		store:       cfg.Store,
		logger:      logger.With("component", "server"),
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /runs", s.handleRun)
	mux.HandleFunc("POST /runs/stream", s.handleRunStream)
	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("DELETE /runs/{id}", s.handleDeleteRun)
	mux.HandleFunc("GET /runs/{id}/artifacts", s.handleListArtifacts)
	mux.HandleFunc("GET /runs/{id}/artifacts/{step}", s.handleGetArtifact)

	var h http.Handler = mux
	if cfg.JWT != nil {
		s.jwtService = NewJWTService(cfg.JWT)
		h = middleware.Authenticator(s.jwtService, "/health")(h)
	}
	s.handler = s.withRateLimit(s.withLogging(s.withCORS(h)))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      15 * time.Minute, // a run is four model calls
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully. The store
// is closed on the way out.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr, "auth", s.jwtService != nil, "persistence", s.store != nil)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.rateLimiter.Stop()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if s.store != nil {
		if cerr := s.store.Close(); cerr != nil {
			s.logger.Warn("failed to close store", "error", cerr)
		}
	}
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the response code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := s.rateLimiter.Allow(clientID(r), r.Method, r.URL.Path)
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
		}
		if !info.Allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID identifies the caller by remote IP.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	body := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		body["reset_at"] = info.ResetTime.UTC().Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds())
		body["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	s.logger.Warn("rate limit exceeded", "limit", info.Limit, "reset", info.ResetTime)
	s.jsonResponse(w, http.StatusTooManyRequests, body)
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// fail writes err with the status HTTPStatus picks for it.
func (s *Server) fail(w http.ResponseWriter, err error) {
	s.errorResponse(w, HTTPStatus(err), err.Error())
}
