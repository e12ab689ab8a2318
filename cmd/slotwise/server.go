package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arloliu/slotwise"
)

// latestResult is the part of the runner the HTTP server reads.
type latestResult interface {
	Latest() *slotwise.Result
	Runs() uint64
}

// recordReader is the part of the layout store the HTTP server reads.
type recordReader interface {
	Latest(ctx context.Context, storeID string) (*slotwise.LayoutRecord, error)
}

// httpServer serves Prometheus metrics, health and the current layout.
type httpServer struct {
	addr     string
	gatherer prometheus.Gatherer
	runner   latestResult
	store    recordReader
	storeID  string
	server   *http.Server
}

func newHTTPServer(addr string, gatherer prometheus.Gatherer, runner latestResult, store recordReader, storeID string) *httpServer {
	return &httpServer{
		addr:     addr,
		gatherer: gatherer,
		runner:   runner,
		store:    store,
		storeID:  storeID,
	}
}

func (s *httpServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/layout", s.layoutHandler)
	mux.HandleFunc("/layout/published", s.publishedHandler)

	return mux
}

// Start serves until ctx is cancelled, then shuts the server down.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: Error if the listener fails or shutdown fails
func (s *httpServer) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("http server listening on %s", s.addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// healthHandler reports OK once the runner has produced a result.
func (s *httpServer) healthHandler(w http.ResponseWriter, _ *http.Request) {
	if s.runner.Latest() == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprint(w, "WAITING\n")

		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK runs=%d\n", s.runner.Runs())
}

func (s *httpServer) layoutHandler(w http.ResponseWriter, _ *http.Request) {
	result := s.runner.Latest()
	if result == nil {
		http.Error(w, "no layout computed yet", http.StatusNotFound)
		return
	}

	writeJSON(w, result)
}

func (s *httpServer) publishedHandler(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "no layout store configured", http.StatusNotFound)
		return
	}

	rec, err := s.store.Latest(r.Context(), s.storeID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if rec == nil {
		http.Error(w, "no layout published yet", http.StatusNotFound)
		return
	}

	writeJSON(w, rec)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
