// Package main implements dispatcherd, the TCP request dispatcher daemon.
//
// The daemon accepts short binary requests from clients, classifies each by
// its type tag and relative size, and forwards it to the backend server with
// the earliest projected completion time under a per-backend, per-type cost
// model. Backends come from a static YAML pool file; the pool never changes
// at runtime.
//
// Configuration (environment, optionally via .env):
//   - LISTEN_ADDR: dispatch listen address (default ":9000")
//   - ADMIN_ADDR: admin/metrics HTTP address (default ":9090")
//   - BACKENDS_FILE: backend pool file (default "backends.yaml")
//   - MAX_WORKERS: dispatch worker ceiling (default 64)
//   - LOG_LEVEL: debug, info, warn, error (default "info")
//   - LOG_FORMAT: json or text (default "json")
//
// Example usage:
//
//	# Start the dispatcher
//	LISTEN_ADDR=:9000 BACKENDS_FILE=backends.yaml ./dispatcherd
//
//	# Send a request (type 'V', size 4) and read the response
//	printf 'V4' | nc localhost 9000
//
//	# Inspect the pool
//	curl localhost:9090/backends
//
// On SIGINT/SIGTERM the daemon stops abruptly: the listening socket and
// every backend connection are closed and the process exits without draining
// in-flight workers.
package main

import (
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/exp/slices"

	"github.com/dreamware/dispatch/internal/backend"
	"github.com/dreamware/dispatch/internal/dispatch"
	"github.com/dreamware/dispatch/internal/platform/config"
	"github.com/dreamware/dispatch/internal/platform/logger"
	"github.com/dreamware/dispatch/internal/platform/metrics"
	"github.com/dreamware/dispatch/internal/scheduler"
)

func main() {
	_ = config.Load()

	listenAddr := config.GetEnv("LISTEN_ADDR", ":9000")
	adminAddr := config.GetEnv("ADMIN_ADDR", ":9090")
	backendsFile := config.GetEnv("BACKENDS_FILE", "backends.yaml")
	maxWorkers := config.GetEnvInt("MAX_WORKERS", dispatch.DefaultMaxWorkers)
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")

	log := logger.New(logLevel, logFormat)

	specs, err := backend.LoadSpecs(backendsFile)
	if err != nil {
		log.Error("loading backend pool failed", "error", err)
		os.Exit(1)
	}
	for i, spec := range specs {
		dup := slices.IndexFunc(specs[:i], func(s backend.Spec) bool { return s.Addr == spec.Addr })
		if dup >= 0 {
			log.Error("duplicate backend address in pool",
				"addr", spec.Addr, "index", i, "first_index", dup)
			os.Exit(1)
		}
	}

	registry, err := backend.NewRegistry(specs)
	if err != nil {
		log.Error("building backend registry failed", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(registry)
	met := metrics.New()
	srv := dispatch.NewServer(registry, sched, log, met, maxWorkers)

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		log.Error("listen failed", "addr", listenAddr, "error", err)
		os.Exit(1)
	}

	go func() {
		if err := srv.Serve(ln); err != nil {
			log.Error("dispatch server error", "error", err)
			os.Exit(1)
		}
	}()

	admin := newAdminServer(registry, srv, met, log)
	adminSrv := &http.Server{
		Addr:              adminAddr,
		Handler:           admin.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("dispatcher listening",
		slog.String("addr", listenAddr),
		slog.String("admin_addr", adminAddr),
		slog.Int("backends", registry.Len()),
		slog.Int("max_workers", maxWorkers),
	)
	for _, st := range registry.StatusAll() {
		log.Info("backend registered",
			slog.Int("index", st.Index),
			slog.String("role", string(st.Role)),
			slog.String("addr", st.Addr),
		)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	// Abrupt stop: close the listener and every backend connection, then
	// exit. In-flight workers are not drained.
	srv.Close()
	ln.Close()
	adminSrv.Close()
	registry.CloseAll()
	log.Info("dispatcher stopped")
}
