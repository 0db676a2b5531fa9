// Package server serves a built output branch for local preview, with
// Prometheus metrics on the side.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
)

// Server is the preview HTTP server for one output branch root.
type Server struct {
	addr     string
	root     string
	recorder *Recorder
	log      *slog.Logger
}

// New creates a preview server for the tree at root.
func New(addr, root string, recorder *Recorder, log *slog.Logger) *Server {
	return &Server{addr: addr, root: root, recorder: recorder, log: log}
}

// Recorder returns the server's metrics recorder so build loops can feed it.
func (s *Server) Recorder() *Recorder { return s.recorder }

// Handler builds the full route set: the static tree, /metrics and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.recorder.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/", s.instrument(http.FileServer(http.Dir(s.root))))
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("preview server listening", "addr", s.addr, "root", s.root)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return ferrors.WrapError(err, ferrors.CategoryInternal, "preview server failed").
			WithContext("addr", s.addr).Build()
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.recorder.incRequest(sw.status)
	})
}
