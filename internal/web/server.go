package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pfrederiksen/bts-board/internal/logger"
	"github.com/pfrederiksen/bts-board/internal/source"
	"github.com/pfrederiksen/bts-board/internal/view"
)

const (
	PredictionsTitle = "Today's predictions"

	readTimeout  = 10 * time.Second
	writeTimeout = 90 * time.Second
)

// Options tunes a Server
type Options struct {
	CandidateDays int
	Location      *time.Location
	Now           func() time.Time
}

// Server renders the pages from the remote CSV files.
//
// Every /past request selects its date on its own Board, so concurrent
// clients never cancel or overwrite each other. The last settled selection
// is kept for /api/state.
type Server struct {
	fetcher    view.Fetcher
	repo       source.Repo
	candidates int
	loc        *time.Location
	now        func() time.Time

	mu   sync.Mutex
	seq  uint64
	last view.State
}

// New creates a Server reading files from repo through f
func New(f view.Fetcher, repo source.Repo, opts Options) *Server {
	s := &Server{
		fetcher:    f,
		repo:       repo,
		last:       view.IdleState(),
		candidates: opts.CandidateDays,
		loc:        opts.Location,
		now:        opts.Now,
	}
	if s.candidates <= 0 {
		s.candidates = 7
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Handler returns the routed handler with request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /past", s.handlePast)
	mux.HandleFunc("GET /api/dates", s.handleDates)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return logRequests(mux)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down,
// giving in-flight requests up to shutdownTimeout to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", logger.Fields{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down", logger.Fields{"timeout": shutdownTimeout.String()})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// beginSelection numbers a /past request in arrival order
func (s *Server) beginSelection() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// remember keeps state as the last selection unless a later-numbered
// request already settled
func (s *Server) remember(seq uint64, state view.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.last.Token {
		return
	}
	state.Token = seq
	s.last = state
}

// lastSelection returns the most recent settled selection
func (s *Server) lastSelection() view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		logger.RecordTiming("http.request", elapsed)
		logger.IncrCounter(fmt.Sprintf("http.status.%d", rec.status))
		logger.Info("HTTP request", logger.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"query":    r.URL.RawQuery,
			"status":   rec.status,
			"duration": elapsed.String(),
		})
	})
}
