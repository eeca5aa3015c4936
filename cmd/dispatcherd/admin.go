package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dreamware/dispatch/internal/backend"
	"github.com/dreamware/dispatch/internal/dispatch"
	"github.com/dreamware/dispatch/internal/platform/metrics"
)

// adminServer serves the read-only observability API next to the dispatch
// port: backend pool status, Prometheus metrics, and a liveness check.
type adminServer struct {
	registry *backend.Registry
	srv      *dispatch.Server
	met      *metrics.Metrics
	log      *slog.Logger
}

func newAdminServer(registry *backend.Registry, srv *dispatch.Server, met *metrics.Metrics, log *slog.Logger) *adminServer {
	return &adminServer{
		registry: registry,
		srv:      srv,
		met:      met,
		log:      log,
	}
}

func (a *adminServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/backends", a.handleBackends)
	r.Get("/backends/{index}", a.handleBackend)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		a.met.Handler(func() {
			a.met.SetActiveWorkers(a.srv.ActiveWorkers())
		}).ServeHTTP(w, req)
	})
	return r
}

// handleBackends returns a snapshot of the whole pool. Virtual finish times
// and connected flags are read at rest; the snapshot never blocks dispatch
// traffic.
func (a *adminServer) handleBackends(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Backends      []backend.Status `json:"backends"`
		ActiveWorkers int              `json:"active_workers"`
	}{
		Backends:      a.registry.StatusAll(),
		ActiveWorkers: a.srv.ActiveWorkers(),
	})
}

// handleBackend returns the snapshot of a single backend by index.
func (a *adminServer) handleBackend(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || idx < 0 || idx >= a.registry.Len() {
		http.Error(w, "unknown backend index", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a.registry.StatusAll()[idx])
}
