package dispatch

import (
	"errors"
	"log/slog"
	"net"
)

// serveConn is the dispatch worker: it serves exactly one client connection
// and terminates.
//
//  1. Read one 2-byte request. Short read, disconnect, or invalid bytes
//     abort with no response and no scheduling.
//  2. Pick a backend. The scheduling commit is irrevocable even if the
//     exchange fails downstream.
//  3. Under the backend's exclusive lock: ensure a live connection, forward
//     the request verbatim, read one bounded response, relay it verbatim.
//     Any backend I/O failure closes and clears the backend handle so the
//     next dispatch reconnects.
//
// Every exit path closes the client connection exactly once and releases the
// worker slot.
func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	defer s.active.Add(-1)

	req, err := ReadRequest(conn)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncMalformed()
		}
		if errors.Is(err, ErrMalformed) {
			s.log.Debug("dropping invalid request", slog.String("remote", conn.RemoteAddr().String()))
		} else {
			s.log.Debug("dropping short request", slog.String("remote", conn.RemoteAddr().String()),
				slog.String("error", err.Error()))
		}
		return
	}

	idx := s.sched.Pick(req.Type, req.Size)
	s.log.Debug("scheduled request",
		slog.String("type", string(req.Type)),
		slog.Int("size", req.Size),
		slog.Int("backend", idx))

	b := s.registry.Get(idx)
	b.Lock()
	defer b.Unlock()

	if err := s.registry.EnsureConnected(idx); err != nil {
		if s.metrics != nil {
			s.metrics.IncBackendErrors(idx)
		}
		s.log.Warn("backend unreachable", slog.Int("backend", idx), slog.String("error", err.Error()))
		return
	}

	bc := b.Conn()
	if _, err := bc.Write(req.Raw[:]); err != nil {
		b.CloseConn()
		if s.metrics != nil {
			s.metrics.IncBackendErrors(idx)
		}
		s.log.Warn("backend write failed", slog.Int("backend", idx), slog.String("error", err.Error()))
		return
	}

	// One receive call per request; whatever it returns, up to the capacity
	// bound, is relayed as-is.
	buf := make([]byte, MaxResponseSize)
	n, err := bc.Read(buf)
	if n <= 0 {
		b.CloseConn()
		if s.metrics != nil {
			s.metrics.IncBackendErrors(idx)
		}
		s.log.Warn("backend read failed", slog.Int("backend", idx))
		return
	}
	if err != nil {
		// The read delivered bytes and an error together: the response is
		// still relayed, but the connection is no longer trustworthy.
		b.CloseConn()
		if s.metrics != nil {
			s.metrics.IncBackendErrors(idx)
		}
		s.log.Warn("backend read failed after partial response",
			slog.Int("backend", idx), slog.String("error", err.Error()))
	}

	// The backend exchange is complete; count the dispatch whether or not
	// the client is still there for the relay.
	if s.metrics != nil {
		s.metrics.IncDispatched(idx)
	}

	if _, err := conn.Write(buf[:n]); err != nil {
		s.log.Debug("client write failed", slog.String("error", err.Error()))
	}
}
