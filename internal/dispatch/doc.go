// Package dispatch runs the TCP dispatch server: the accept loop, the
// per-connection dispatch workers, and the admission ceiling that bounds
// them.
//
// # Control flow
//
//	accept → admit (or refuse) → worker: read 2-byte request → schedule →
//	ensure backend connection → lock backend, forward, relay → close client
//
// One goroutine serves one client connection and exchanges at most one
// request/response pair; every blocking call (request read, backend dial,
// backend write/read) suspends only that worker, never the accept loop.
// There are no timeouts: a stalled backend blocks its worker, and any worker
// queued on that backend's lock, indefinitely.
//
// # Error policy
//
// All failures are connection-local. Malformed input drops the client before
// any scheduling happens; backend connect or I/O failures drop the client
// after the scheduling commit, which is never rolled back. The client learns
// of failure only through connection closure, never an error payload.
package dispatch
