// Package health provides a simple HTTP health check endpoint.
//
// Docker and Kubernetes use these endpoints to monitor the daemon's
// liveness. When the daemon is running and ready to accept jobs,
// /healthz and /readyz return 200 OK.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Details reports extra fields for the /healthz body, such as backend names.
type Details func() map[string]any

// Server is a lightweight HTTP server that exposes /healthz and /readyz.
type Server struct {
	port    int
	details Details
	ready   atomic.Bool
	server  *http.Server

	mu        sync.Mutex
	listeners []func(ready bool)
}

// New creates a new health check server. details may be nil.
func New(port int, details Details) *Server {
	return &Server{port: port, details: details}
}

// SetReady marks the daemon as ready (or not) to accept traffic and
// notifies every listener registered with OnReadyChange.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)

	s.mu.Lock()
	listeners := append([]func(bool){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(ready)
	}
}

// OnReadyChange registers fn to be called on every SetReady.
func (s *Server) OnReadyChange(fn func(ready bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Handler returns the health routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		code := http.StatusOK
		if !s.ready.Load() {
			body["status"] = "not_ready"
			code = http.StatusServiceUnavailable
		}
		if s.details != nil {
			for k, v := range s.details() {
				body[k] = v
			}
		}
		writeJSON(w, code, body)
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// ListenAndServe starts the health check HTTP server.
// It blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("health server listening", "port", s.port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
