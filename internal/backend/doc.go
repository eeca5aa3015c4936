// Package backend holds the fixed pool of backend servers the dispatcher
// forwards requests to, together with the persistent-connection lifecycle
// for each of them.
//
// # Overview
//
// A Registry is built once at startup from an ordered list of Specs (role +
// address) and never changes afterwards. Backends are identified by their
// index in that order; the scheduler, the dispatch workers, and the admin API
// all refer to backends positionally.
//
// # Connection lifecycle
//
// Each backend owns at most one persistent outbound connection. The
// connection is established lazily: EnsureConnected dials only when no handle
// is present, and a failed exchange tears the handle down (CloseConn) so the
// next request triggers a reconnect. Connect failures are non-fatal; the
// backend simply stays a candidate for future requests.
//
// # Locking
//
// Two synchronization domains live on each Backend:
//
//   - The exclusive lock (Lock/Unlock) guards the act of using the
//     connection. Holding it across the full forward/relay exchange is what
//     keeps real service on a backend strictly sequential, which in turn is
//     what makes the scheduler's virtual-finish-time model accurate. The
//     handle field itself has a separate non-blocking guard so shutdown can
//     close it without queueing behind a stalled exchange; the close is what
//     unblocks the stalled worker.
//   - The virtual finish time is written only by the scheduler under the
//     scheduling lock, but stored atomically so status readers can observe
//     it at rest without contending with dispatch traffic.
package backend
