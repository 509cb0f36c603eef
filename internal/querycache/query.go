package querycache

import "context"

// Query binds a key and a typed fetch function to a Cache.
type Query[T any] struct {
	Cache *Cache
	Key   Key
	Fetch func(ctx context.Context) (T, error)
}

// Result is the typed view of a Snapshot.
type Result[T any] struct {
	Data       T
	HasData    bool
	IsLoading  bool
	IsError    bool
	Err        error
	Generation uint64
}

// Get blocks until the key resolves or fails, or ctx ends.
func (q Query[T]) Get(ctx context.Context) (Result[T], error) {
	snap, err := q.Cache.Fetch(ctx, q.Key, q.fetcher())
	return resultOf[T](snap), err
}

// Peek reports the current state without fetching.
func (q Query[T]) Peek() Result[T] {
	return resultOf[T](q.Cache.Peek(q.Key))
}

// Prefetch starts a background fetch when nothing is cached or in flight.
func (q Query[T]) Prefetch() {
	q.Cache.Prefetch(q.Key, q.fetcher())
}

// Invalidate drops the cached value.
func (q Query[T]) Invalidate() {
	q.Cache.Invalidate(q.Key)
}

func (q Query[T]) fetcher() Fetcher {
	return func(ctx context.Context) (any, error) {
		return q.Fetch(ctx)
	}
}

func resultOf[T any](snap Snapshot) Result[T] {
	r := Result[T]{
		Generation: snap.Generation,
		Err:        snap.Err,
	}
	switch snap.Status {
	case StatusResolved:
		if v, ok := snap.Value.(T); ok {
			r.Data = v
			r.HasData = true
		}
	case StatusFailed:
		r.IsError = true
	default:
		r.IsLoading = true
	}
	return r
}
