package backend

import (
	"fmt"
	"net"
)

// DialFunc establishes an outbound connection to a backend address.
// Overridable for tests; the default is a plain blocking TCP dial.
type DialFunc func(addr string) (net.Conn, error)

// Registry holds the fixed ordered set of backends. The set is established at
// startup and never grows or shrinks; all other components operate on it by
// index.
//
// The registry itself needs no lock: the backends slice is immutable after
// construction, and each Backend carries its own synchronization (see the
// Backend type for the locking discipline).
type Registry struct {
	backends []*Backend
	dial     DialFunc
}

// NewRegistry builds a registry from the ordered spec list. Order defines
// backend index. Returns an error if the list is empty or any entry is
// invalid.
func NewRegistry(specs []Spec) (*Registry, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("backend pool is empty")
	}

	backends := make([]*Backend, 0, len(specs))
	for i, spec := range specs {
		if err := spec.validate(); err != nil {
			return nil, fmt.Errorf("backend %d: %w", i, err)
		}
		backends = append(backends, &Backend{
			Role: spec.Role,
			Addr: spec.Addr,
		})
	}

	return &Registry{
		backends: backends,
		dial: func(addr string) (net.Conn, error) {
			return net.Dial("tcp", addr)
		},
	}, nil
}

// SetDial overrides the dial function. Used by tests to inject failures and
// in-memory connections.
func (r *Registry) SetDial(dial DialFunc) { r.dial = dial }

// Len returns the number of backends in the pool.
func (r *Registry) Len() int { return len(r.backends) }

// Get returns the backend at index i. Panics on an out-of-range index, which
// can only happen through a programming error: indexes come from the
// scheduler, which iterates this same registry.
func (r *Registry) Get(i int) *Backend { return r.backends[i] }

// All returns the backing slice for iteration. Callers must not modify it.
func (r *Registry) All() []*Backend { return r.backends }

// EnsureConnected guarantees backend i has a live connection handle,
// dialing one if absent.
//
// If a handle is already present this is a no-op with no I/O. On dial failure
// the handle stays absent and the error is returned; the failure is non-fatal
// and the backend remains a candidate for future requests.
//
// Callers must hold the backend's lock. Because concurrent dispatches to the
// same backend are serialized by that lock, at most one reconnect attempt per
// backend happens at a time.
func (r *Registry) EnsureConnected(i int) error {
	b := r.backends[i]
	if b.Conn() != nil {
		return nil
	}

	conn, err := r.dial(b.Addr)
	if err != nil {
		return fmt.Errorf("connect backend %d (%s): %w", i, b.Addr, err)
	}
	b.setConn(conn)
	return nil
}

// CloseAll closes every live backend connection. Called on shutdown, which
// is an abrupt stop: in-flight workers are not waited for, so no exchange
// lock is taken here. A worker parked in a read on one of these connections
// is unblocked by the close and fails its exchange.
func (r *Registry) CloseAll() {
	for _, b := range r.backends {
		b.CloseConn()
	}
}

// Status is a point-in-time informational snapshot of one backend, for the
// admin API and metrics. VFinish and Connected are read at rest, without
// taking any lock.
type Status struct {
	Index      int     `json:"index"`
	Role       Role    `json:"role"`
	Addr       string  `json:"addr"`
	Connected  bool    `json:"connected"`
	VFinish    float64 `json:"vfinish"`
	Dispatches uint64  `json:"dispatches"`
}

// StatusAll returns a snapshot of every backend in index order.
func (r *Registry) StatusAll() []Status {
	out := make([]Status, 0, len(r.backends))
	for i, b := range r.backends {
		out = append(out, Status{
			Index:      i,
			Role:       b.Role,
			Addr:       b.Addr,
			Connected:  b.Connected(),
			VFinish:    b.VFinish(),
			Dispatches: b.Dispatches(),
		})
	}
	return out
}
