package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/dispatch/internal/backend"
)

// newTestScheduler builds a registry from the given roles and a scheduler
// pinned to virtual time zero.
func newTestScheduler(t *testing.T, roles ...backend.Role) (*Scheduler, *backend.Registry) {
	t.Helper()

	specs := make([]backend.Spec, 0, len(roles))
	for _, role := range roles {
		specs = append(specs, backend.Spec{Role: role, Addr: "127.0.0.1:80"})
	}
	registry, err := backend.NewRegistry(specs)
	require.NoError(t, err)

	sched := New(registry)
	sched.SetNow(func() float64 { return 0 })
	return sched, registry
}

// TestMultiplier verifies the full cost table.
func TestMultiplier(t *testing.T) {
	tests := []struct {
		name    string
		reqType byte
		role    backend.Role
		want    float64
	}{
		{name: "music on video backend", reqType: TypeMusic, role: backend.RoleVideo, want: 2},
		{name: "music on music backend", reqType: TypeMusic, role: backend.RoleMusic, want: 1},
		{name: "video on video backend", reqType: TypeVideo, role: backend.RoleVideo, want: 1},
		{name: "video on music backend", reqType: TypeVideo, role: backend.RoleMusic, want: 3},
		{name: "plain on video backend", reqType: TypePlain, role: backend.RoleVideo, want: 1},
		{name: "plain on music backend", reqType: TypePlain, role: backend.RoleMusic, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Multiplier(tt.reqType, tt.role); got != tt.want {
				t.Errorf("Multiplier(%c, %s) = %v, want %v", tt.reqType, tt.role, got, tt.want)
			}
		})
	}
}

// TestPickFreshState verifies that with all virtual finish times at zero the
// scheduler selects the backend minimizing multiplier*size, ties to the
// lowest index.
func TestPickFreshState(t *testing.T) {
	tests := []struct {
		name    string
		roles   []backend.Role
		reqType byte
		size    int
		want    int
	}{
		{
			name:    "video request prefers video backend",
			roles:   []backend.Role{backend.RoleMusic, backend.RoleVideo},
			reqType: TypeVideo,
			size:    3,
			want:    1,
		},
		{
			name:    "music request prefers music backend",
			roles:   []backend.Role{backend.RoleVideo, backend.RoleMusic},
			reqType: TypeMusic,
			size:    5,
			want:    1,
		},
		{
			name:    "plain request prefers video backend",
			roles:   []backend.Role{backend.RoleMusic, backend.RoleVideo},
			reqType: TypePlain,
			size:    2,
			want:    1,
		},
		{
			name:    "tie breaks to lowest index",
			roles:   []backend.Role{backend.RoleVideo, backend.RoleVideo, backend.RoleVideo},
			reqType: TypeVideo,
			size:    9,
			want:    0,
		},
		{
			name:    "single backend always wins",
			roles:   []backend.Role{backend.RoleMusic},
			reqType: TypeVideo,
			size:    1,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched, registry := newTestScheduler(t, tt.roles...)

			got := sched.Pick(tt.reqType, tt.size)
			if got != tt.want {
				t.Fatalf("Pick(%c, %d) = %d, want %d", tt.reqType, tt.size, got, tt.want)
			}

			// Commit: the winner's vfinish advanced to the projection.
			winner := registry.Get(got)
			wantFinish := Multiplier(tt.reqType, winner.Role) * float64(tt.size)
			assert.Equal(t, wantFinish, winner.VFinish())

			// Losers stay untouched.
			for i, b := range registry.All() {
				if i != got {
					assert.Zero(t, b.VFinish(), "backend %d vfinish should be untouched", i)
				}
			}
		})
	}
}

// TestPickSuccessiveRequests walks the two-request sequence: a video request
// loads the first video backend, then a music request lands on the music
// backend because its projection is cheapest.
func TestPickSuccessiveRequests(t *testing.T) {
	sched, registry := newTestScheduler(t,
		backend.RoleVideo, backend.RoleVideo, backend.RoleMusic)

	// V4: video backends project 1*4=4, music backend 3*4=12. The first
	// video backend wins and its vfinish becomes 4.
	idx := sched.Pick(TypeVideo, 4)
	require.Equal(t, 0, idx)
	assert.Equal(t, 4.0, registry.Get(0).VFinish())

	// M2: backend 0 projects 4+2*2=8, backend 1 projects 0+2*2=4, the music
	// backend projects 0+1*2=2 and wins.
	idx = sched.Pick(TypeMusic, 2)
	require.Equal(t, 2, idx)
	assert.Equal(t, 2.0, registry.Get(2).VFinish())
}

// TestPickStartsFromNow verifies that an idle backend's projection starts at
// the current virtual time, not at its stale vfinish.
func TestPickStartsFromNow(t *testing.T) {
	sched, registry := newTestScheduler(t, backend.RoleVideo, backend.RoleMusic)

	now := 0.0
	sched.SetNow(func() float64 { return now })

	// Load the video backend at t=0: vfinish=5.
	idx := sched.Pick(TypeVideo, 5)
	require.Equal(t, 0, idx)
	require.Equal(t, 5.0, registry.Get(0).VFinish())

	// Much later both backends are idle; projections restart from now.
	now = 100
	idx = sched.Pick(TypeVideo, 5)
	require.Equal(t, 0, idx)
	assert.Equal(t, 105.0, registry.Get(0).VFinish())
}

// TestVFinishMonotonic verifies that committed virtual finish times never
// decrease over any sequence of scheduling decisions.
func TestVFinishMonotonic(t *testing.T) {
	sched, registry := newTestScheduler(t,
		backend.RoleVideo, backend.RoleMusic, backend.RoleVideo)

	prev := make([]float64, registry.Len())

	reqs := []struct {
		reqType byte
		size    int
	}{
		{TypeVideo, 4}, {TypeMusic, 2}, {TypePlain, 9}, {TypeVideo, 1},
		{TypeMusic, 9}, {TypePlain, 1}, {TypeVideo, 7}, {TypeMusic, 3},
		{TypePlain, 5}, {TypeVideo, 2}, {TypeMusic, 6}, {TypePlain, 8},
	}
	for _, req := range reqs {
		sched.Pick(req.reqType, req.size)
		for i, b := range registry.All() {
			if b.VFinish() < prev[i] {
				t.Fatalf("backend %d vfinish decreased: %v -> %v", i, prev[i], b.VFinish())
			}
			prev[i] = b.VFinish()
		}
	}
}

// TestPickCountsDispatches verifies the per-backend dispatch counter advances
// with each committed decision.
func TestPickCountsDispatches(t *testing.T) {
	sched, registry := newTestScheduler(t, backend.RoleVideo, backend.RoleMusic)

	for i := 0; i < 3; i++ {
		sched.Pick(TypeVideo, 1)
	}
	sched.Pick(TypeMusic, 1)

	assert.Equal(t, uint64(3), registry.Get(0).Dispatches())
	assert.Equal(t, uint64(1), registry.Get(1).Dispatches())
}

// TestPickConcurrent hammers the scheduler from many goroutines and checks
// the bookkeeping stays coherent: every decision is counted and vfinish
// never regresses mid-flight.
func TestPickConcurrent(t *testing.T) {
	sched, registry := newTestScheduler(t,
		backend.RoleVideo, backend.RoleVideo, backend.RoleMusic)

	const goroutines = 16
	const perGoroutine = 50

	done := make(chan struct{})
	for g := 0; g < goroutines; g++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := 0; i < perGoroutine; i++ {
				sched.Pick(TypeVideo, 1+i%9)
			}
		}()
	}
	for g := 0; g < goroutines; g++ {
		<-done
	}

	var total uint64
	for _, b := range registry.All() {
		total += b.Dispatches()
	}
	assert.Equal(t, uint64(goroutines*perGoroutine), total)
}
