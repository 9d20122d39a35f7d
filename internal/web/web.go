// Package web serves the operational status of the sync daemon: a /health
// probe and a JSON summary of the last reconciliation pass.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"todosync/internal/config"
	appsync "todosync/internal/sync"
)

// Status is the JSON document returned by /api/status.
type Status struct {
	LastRunAt time.Time        `json:"last_run_at"`
	LastStats appsync.RunStats `json:"last_stats"`
	LastError string           `json:"last_error,omitempty"`
	Runs      int              `json:"runs"`
}

// StatusRecorder accumulates per-run results for the status endpoint. It is
// safe for concurrent use: the cron goroutine writes, HTTP handlers read.
type StatusRecorder struct {
	mu     sync.RWMutex
	status Status
}

// Record stores the outcome of a completed reconciliation pass.
func (r *StatusRecorder) Record(stats appsync.RunStats, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.LastRunAt = time.Now()
	r.status.LastStats = stats
	r.status.Runs++
	if err != nil {
		r.status.LastError = err.Error()
	} else {
		r.status.LastError = ""
	}
}

func (r *StatusRecorder) snapshot() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Server exposes /health and /api/status.
type Server struct {
	cfg      *config.Config
	recorder *StatusRecorder
	mux      *http.ServeMux
}

// NewServer constructs a Server around the shared recorder.
func NewServer(cfg *config.Config, recorder *StatusRecorder) *Server {
	s := &Server{
		cfg:      cfg,
		recorder: recorder,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	return s
}

// Handler returns the HTTP handler, wrapped with basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		log.Info().Str("listen", s.cfg.Listen).Msg("HTTP basic auth enabled")
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.recorder.snapshot()); err != nil {
		log.Error().Err(err).Msg("encoding status response")
	}
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password is treated as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays unauthenticated for liveness probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="todosync", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve runs the status server until ctx is canceled, then shuts down
// gracefully.
func Serve(ctx context.Context, cfg *config.Config, recorder *StatusRecorder) error {
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: NewServer(cfg, recorder).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", "http://"+cfg.Listen).Msg("starting status server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
