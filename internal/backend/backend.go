package backend

import (
	"math"
	"net"
	"sync"
	"sync/atomic"
)

// Role classifies a backend server and determines its service-cost multiplier
// per request type.
type Role string

const (
	// RoleVideo marks a backend optimized for video requests.
	RoleVideo Role = "video"
	// RoleMusic marks a backend optimized for music requests.
	RoleMusic Role = "music"
)

// Backend is one server in the fixed pool. Identity is positional: a backend
// is referred to by its index in the Registry, established at startup and
// never changed at runtime.
//
// Locking discipline:
//   - The exclusive lock (Lock/Unlock) serializes the full request/response
//     exchange on the connection, so real service time on a backend is
//     sequential. Workers establish, use, and tear down the handle only
//     while holding it.
//   - The handle field itself sits behind its own small guard (connMu) that
//     is never held across blocking I/O. Shutdown closes the handle through
//     that guard alone, out from under a worker stalled in a read, rather
//     than queueing behind the exchange lock.
//   - The virtual finish time is written only by the scheduler, under the
//     scheduler's own lock. It is stored atomically so informational readers
//     (status endpoint, metrics) may observe it without any lock.
type Backend struct {
	// Role determines the per-request-type cost multiplier.
	// Immutable after creation.
	Role Role

	// Addr is the backend's host:port dial target.
	// Immutable after creation.
	Addr string

	// mu serializes use of the connection: at most one worker talks to this
	// backend at a time, and reconnection happens under the same lock.
	mu sync.Mutex

	// connMu guards the conn field only, never its use. Held for field
	// reads and writes, which are all non-blocking, so CloseConn can always
	// acquire it even while a worker holding mu is parked in a read.
	connMu sync.Mutex

	// conn is the single persistent outbound connection, nil when absent.
	// Guarded by connMu.
	conn net.Conn

	// connected mirrors conn != nil for lock-free status reads.
	connected atomic.Bool

	// vfinish holds the virtual finish time in seconds as float64 bits.
	// Written only by the scheduler; read-at-rest by anyone.
	vfinish atomic.Uint64

	// dispatches counts scheduling decisions committed to this backend.
	dispatches atomic.Uint64
}

// Lock acquires the backend's exclusive lock, serializing this caller against
// every other worker currently or later targeting the same backend.
func (b *Backend) Lock() { b.mu.Lock() }

// Unlock releases the backend's exclusive lock.
func (b *Backend) Unlock() { b.mu.Unlock() }

// Conn returns the current connection handle, or nil when absent.
func (b *Backend) Conn() net.Conn {
	b.connMu.Lock()
	defer b.connMu.Unlock()
	return b.conn
}

// setConn installs a new connection handle.
// Callers must hold the backend's exchange lock.
func (b *Backend) setConn(c net.Conn) {
	b.connMu.Lock()
	defer b.connMu.Unlock()
	b.conn = c
	b.connected.Store(c != nil)
}

// CloseConn closes and clears the connection handle so the next dispatch
// triggers a reconnect. Safe to call when no handle is present.
//
// Deliberately does not take the exchange lock: net.Conn.Close is safe
// concurrently with a blocked Read, and the shutdown path relies on closing
// the handle out from under a stalled worker to unblock it.
func (b *Backend) CloseConn() {
	b.connMu.Lock()
	defer b.connMu.Unlock()
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
	b.connected.Store(false)
}

// Connected reports whether a live connection handle is present.
// Lock-free; informational only.
func (b *Backend) Connected() bool { return b.connected.Load() }

// VFinish returns the backend's virtual finish time in seconds.
// Lock-free; only the scheduler writes this value.
func (b *Backend) VFinish() float64 {
	return math.Float64frombits(b.vfinish.Load())
}

// SetVFinish commits a new virtual finish time. Only the scheduler calls
// this, under the scheduling lock; the value is monotonically non-decreasing
// once initialized at zero.
func (b *Backend) SetVFinish(v float64) {
	b.vfinish.Store(math.Float64bits(v))
}

// IncDispatches records a committed scheduling decision for this backend.
func (b *Backend) IncDispatches() { b.dispatches.Add(1) }

// Dispatches returns the number of scheduling decisions committed to this
// backend since startup.
func (b *Backend) Dispatches() uint64 { return b.dispatches.Load() }
