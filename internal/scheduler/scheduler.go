package scheduler

import (
	"sync"

	"github.com/dreamware/dispatch/internal/backend"
)

// Request type tags as they appear on the wire.
const (
	TypeMusic = 'M'
	TypeVideo = 'V'
	TypePlain = 'P'
)

// Multiplier returns the synthetic service-cost multiplier for a request
// type on a backend role. Duration of a request is multiplier * size seconds.
//
//	          VIDEO  MUSIC
//	M (music)     2      1
//	V (video)     1      3
//	P (plain)     1      2
//
// Unknown combinations cannot occur: request types are validated before
// scheduling and roles at registry construction.
func Multiplier(reqType byte, role backend.Role) float64 {
	onVideo := role == backend.RoleVideo
	switch reqType {
	case TypeMusic:
		if onVideo {
			return 2
		}
		return 1
	case TypeVideo:
		if onVideo {
			return 1
		}
		return 3
	default: // TypePlain
		if onVideo {
			return 1
		}
		return 2
	}
}

// Scheduler assigns each request to the backend with the earliest projected
// completion time (shortest expected remaining processing time). Each backend
// is modeled as a single-server queue whose next-available-time is its
// virtual finish time; no load feedback from backends is needed.
//
// All scheduling decisions are serialized by one lock, which guards only the
// selection-and-commit step. No I/O happens under this lock.
type Scheduler struct {
	mu       sync.Mutex
	registry *backend.Registry

	// now returns virtual elapsed seconds. A func field so tests can pin
	// time; defaults to a fresh Clock.
	now func() float64
}

// New returns a scheduler over the given registry, with a virtual clock
// anchored at the call instant.
func New(registry *backend.Registry) *Scheduler {
	clock := NewClock()
	return &Scheduler{
		registry: registry,
		now:      clock.Now,
	}
}

// SetNow overrides the virtual time source. Used by tests.
func (s *Scheduler) SetNow(now func() float64) {
	s.now = now
}

// Pick selects the backend that would finish this request soonest and
// commits the decision.
//
// For each backend the projected finish time is
//
//	max(vfinish, now) + Multiplier(reqType, role) * size
//
// The backend with the minimum projection wins; ties break to the lowest
// index. The winner's virtual finish time is set to its projection before
// returning, and that commit is irrevocable: a later connect or I/O failure
// on the chosen backend does not roll it back.
//
// reqType must be one of TypeMusic, TypeVideo, TypePlain and size must be in
// [1,9]; callers validate before scheduling.
func (s *Scheduler) Pick(reqType byte, size int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	best := -1
	var bestProjected float64
	for i, b := range s.registry.All() {
		start := b.VFinish()
		if now > start {
			start = now
		}
		projected := start + Multiplier(reqType, b.Role)*float64(size)
		if best < 0 || projected < bestProjected {
			best = i
			bestProjected = projected
		}
	}

	winner := s.registry.Get(best)
	winner.SetVFinish(bestProjected)
	winner.IncDispatches()
	return best
}
