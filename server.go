package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bodul/autocross/internal/config"
	perr "github.com/bodul/autocross/internal/errors"
	"github.com/bodul/autocross/internal/generator"
	"github.com/bodul/autocross/internal/logger"
	"github.com/bodul/autocross/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const jobTTL = time.Hour

// Server is the main HTTP server.
type Server struct {
	router   chi.Router
	cfg      config.Config
	store    store.Store
	model    generator.Model
	genOpts  generator.Options
	sse      *Broadcaster
	jobs     *jobs
	uploadRL *rateLimiter
	submitRL *rateLimiter
	baseCtx  context.Context
	now      func() time.Time
}

// NewServer creates a configured HTTP server. A nil model disables
// generation. Background generations run under ctx.
func NewServer(ctx context.Context, cfg config.Config, st store.Store, model generator.Model) *Server {
	sse := NewBroadcaster()
	s := &Server{
		cfg:   cfg,
		store: st,
		model: model,
		genOpts: generator.Options{
			MaxRetries:     cfg.Generator.MaxRetries,
			AttemptTimeout: cfg.Generator.AttemptTimeout,
			Backoff:        cfg.Generator.Backoff,
			ContentLimit:   cfg.Generator.ContentLimit,
			ExtraTerms:     cfg.Generator.ExtraTerms,
		},
		sse:      sse,
		jobs:     newJobs(sse, jobTTL),
		uploadRL: newRateLimiter(cfg.HTTP.UploadsPerMinute, time.Minute),
		submitRL: newRateLimiter(30, time.Minute), // 30 submissions/min per IP
		baseCtx:  ctx,
		now:      time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.RequestID, requestLogger, chimw.Recoverer, accessLog(5*time.Second), securityHeaders)
	if len(s.cfg.HTTP.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.HTTP.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"Location", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Generation API
		r.Post("/generations", s.handleCreateGeneration)
		r.Get("/generations/{id}", s.handleGetGeneration)
		r.Get("/generations/{id}/events", s.handleGenerationEvents)
		r.Post("/crosswords/validate", s.handleValidate)

		// Assessment API
		r.Post("/assessments", s.handleCreateAssessment)
		r.Get("/assessments", s.handleListAssessments)
		r.Get("/assessments/{id}", s.handleGetAssessment)
		r.Post("/assessments/{id}/responses", s.handleSubmitResponse)
		r.Get("/assessments/{id}/responses", s.handleListResponses)
		r.Get("/assessments/{id}/responses.csv", s.handleExportResponses)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		jsonError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	})
	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops background work.
func (s *Server) Close() {
	s.jobs.cancelAll()
	s.uploadRL.close()
	s.submitRL.close()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"generation": s.model != nil,
		"store":      s.cfg.Store.Driver,
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeError maps err's code to a status. Internal failures are logged and
// answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := perr.CodeOf(err)
	status := perr.HTTPStatusCode(code)
	msg := perr.Message(err)
	if status >= http.StatusInternalServerError {
		logger.C(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		if code != perr.CodeUnavailable {
			msg = "internal error"
		}
	}
	body := map[string]string{"error": msg}
	if id := logger.RequestID(r.Context()); id != "" {
		body["request_id"] = id
	}
	writeJSON(w, status, body)
}
