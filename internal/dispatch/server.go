package dispatch

import (
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/dreamware/dispatch/internal/backend"
	"github.com/dreamware/dispatch/internal/platform/metrics"
	"github.com/dreamware/dispatch/internal/scheduler"
)

// DefaultMaxWorkers is the default ceiling on concurrently active dispatch
// workers.
const DefaultMaxWorkers = 64

// Server accepts client connections and runs one dispatch worker per
// connection, up to a fixed ceiling. Admission is a shared atomic counter:
// when the ceiling is reached, newly accepted connections are closed
// immediately without reading any data. No queueing, no backpressure signal
// beyond the disconnect.
type Server struct {
	registry   *backend.Registry
	sched      *scheduler.Scheduler
	log        *slog.Logger
	metrics    *metrics.Metrics // may be nil (tests)
	maxWorkers int64

	// active counts running workers, incremented on admission and
	// decremented on every worker exit path.
	active atomic.Int64

	// closing flips when Close is called so the accept loop can tell a
	// shutdown from a real accept error.
	closing atomic.Bool
}

// NewServer returns a dispatch server over the given registry and scheduler.
// maxWorkers <= 0 selects DefaultMaxWorkers. met may be nil to disable
// metrics recording.
func NewServer(registry *backend.Registry, sched *scheduler.Scheduler, log *slog.Logger, met *metrics.Metrics, maxWorkers int) *Server {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &Server{
		registry:   registry,
		sched:      sched,
		log:        log,
		metrics:    met,
		maxWorkers: int64(maxWorkers),
	}
}

// Serve runs the accept loop on ln until the listener is closed. Each
// accepted connection is either admitted (a worker goroutine is spawned) or
// refused on the spot when the worker ceiling is reached.
//
// Returns nil after Close; any other accept error is returned as-is.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closing.Load() {
				return nil
			}
			return err
		}

		if s.metrics != nil {
			s.metrics.IncRequests()
		}

		// Admission check: increment first, back out if over the ceiling.
		if s.active.Add(1) > s.maxWorkers {
			s.active.Add(-1)
			conn.Close()
			if s.metrics != nil {
				s.metrics.IncRefused()
			}
			s.log.Warn("connection refused, worker ceiling reached",
				slog.Int64("ceiling", s.maxWorkers))
			continue
		}

		go s.serveConn(conn)
	}
}

// Close marks the server as shutting down. The caller closes the listener
// (which unblocks Serve) and the backend registry; in-flight workers are not
// waited for. Abrupt stop, not a drain.
func (s *Server) Close() {
	s.closing.Store(true)
}

// ActiveWorkers returns the number of currently running dispatch workers.
func (s *Server) ActiveWorkers() int {
	return int(s.active.Load())
}
