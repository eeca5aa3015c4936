// Package scheduler implements SERPT (shortest expected remaining processing
// time) backend selection over the fixed backend pool.
//
// # Model
//
// Each backend is a single-server queue. Its virtual finish time is the
// projected moment, on a shared monotonic clock, at which it would finish all
// work assigned to it so far. A new request of a given type and size would
// occupy a backend for multiplier(type, role) * size synthetic seconds, so
// the backend that minimizes
//
//	max(vfinish, now) + multiplier(type, role) * size
//
// is the one projected to complete the request soonest. The scheduler greedily
// assigns every request to that backend and advances its virtual finish time,
// approximating minimal mean response time without any load reporting from
// the backends themselves.
//
// The sequential-service assumption behind the model is enforced elsewhere:
// the per-backend exclusive lock in the backend package keeps real exchanges
// on one backend strictly one at a time.
//
// # Ordering
//
// Decisions are totally ordered by the scheduling lock, in whatever order
// workers happen to acquire it, which is not guaranteed to be request-arrival
// order. Two requests assigned to the same backend are likewise serviced in
// backend-lock acquisition order, which may differ from assignment order
// under contention. The projection assumes the two orders match; they
// usually do, but nothing enforces it.
package scheduler
