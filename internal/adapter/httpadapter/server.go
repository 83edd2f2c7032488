package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/bom-forecast-etl/internal/pipeline"
)

// RunReporter exposes pipeline readiness and the most recent run.
type RunReporter interface {
	sharedobs.ReadinessChecker
	LastResult() (pipeline.Result, bool)
}

// Server exposes health, readiness, metrics, and forecast HTTP endpoints.
type Server struct {
	httpServer *http.Server
	runs       RunReporter
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /forecast, and /status routes.
func NewServer(addr string, runs RunReporter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		runs:   runs,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(runs))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /forecast", s.handleForecast)
	mux.HandleFunc("GET /status", s.handleStatus)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleForecast serves the excerpt saved by the last run as plain text.
func (s *Server) handleForecast(w http.ResponseWriter, _ *http.Request) {
	res, ok := s.runs.LastResult()
	if !ok || res.Outcome != pipeline.OutcomeSaved {
		http.Error(w, "no forecast available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if res.Excerpt.IssuedAt.IsZero() {
		w.Header().Set("Last-Modified", res.FinishedAt.UTC().Format(http.TimeFormat))
	} else {
		w.Header().Set("Last-Modified", res.Excerpt.IssuedAt.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(res.Excerpt.Text))
}

type statusResponse struct {
	RunID      string     `json:"run_id"`
	Outcome    string     `json:"outcome"`
	Error      string     `json:"error,omitempty"`
	Profile    string     `json:"profile,omitempty"`
	Area       string     `json:"area,omitempty"`
	Sections   []string   `json:"sections"`
	IssuedAt   *time.Time `json:"issued_at,omitempty"`
	FinishedAt time.Time  `json:"finished_at"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	res, ok := s.runs.LastResult()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "no runs yet"})
		return
	}

	body := statusResponse{
		RunID:      res.RunID,
		Outcome:    string(res.Outcome),
		Profile:    res.Excerpt.Profile,
		Area:       res.Excerpt.Area,
		Sections:   make([]string, 0, len(res.Excerpt.Rendered)),
		FinishedAt: res.FinishedAt,
	}
	if res.Err != nil {
		body.Error = res.Err.Error()
	}
	for _, src := range res.Excerpt.Rendered {
		body.Sections = append(body.Sections, string(src))
	}
	if !res.Excerpt.IssuedAt.IsZero() {
		issued := res.Excerpt.IssuedAt
		body.IssuedAt = &issued
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort status response
}
