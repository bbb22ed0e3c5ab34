package fetchcache

// Status classifies how a value was obtained from an origin.
type Status int

const (
	// StatusOk is a genuine value from the origin or the cache.
	StatusOk Status = iota
	// StatusDegraded is a substitute the adapter produced because the
	// origin failed; usable, but not the real thing.
	StatusDegraded
	// StatusFailed means no value at all could be produced.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusDegraded:
		return "degraded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result carries a fetched value together with its provenance. Adapters that
// substitute fallback content on origin failure return Degraded instead of an
// error, which makes the "serve something rather than nothing" policy an
// explicit, inspectable decision at the call site.
type Result[T any] struct {
	Value  T
	Status Status
	Reason string
}

func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusOk}
}

func Degraded[T any](v T, reason string) Result[T] {
	return Result[T]{Value: v, Status: StatusDegraded, Reason: reason}
}

func Failed[T any](reason string) Result[T] {
	return Result[T]{Status: StatusFailed, Reason: reason}
}

// IsUsable reports whether the result holds a value the caller can render.
func (r Result[T]) IsUsable() bool {
	return r.Status != StatusFailed
}
