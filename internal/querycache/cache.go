// Package querycache is a keyed, asynchronous, memoizing cache for upstream
// resources. Resolved values never go stale; failures are reported but not
// kept, so the next request for the key goes back to the network.
// Concurrent requests for one key share a single fetch.
package querycache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"cellhub/pkg/logutils"
)

// Key identifies a cached resource by id and the entity types it holds.
type Key struct {
	ID       string
	Entities []string
}

func (k Key) String() string {
	return strings.Join(k.Entities, ",") + "/" + k.ID
}

type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusResolved
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is the state of one key at a point in time.
type Snapshot struct {
	Key    Key
	Status Status
	Value  any
	Err    error
	// Generation changes every time the key resolves; equal generations
	// mean the same value.
	Generation uint64
	UpdatedAt  time.Time
}

// Fetcher loads a resource. It runs on a context detached from the caller
// that triggered it.
type Fetcher func(ctx context.Context) (any, error)

type entry struct {
	key        Key
	status     Status
	value      any
	err        error
	generation uint64
	updatedAt  time.Time
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		Key:        e.key,
		Status:     e.status,
		Value:      e.value,
		Err:        e.err,
		Generation: e.generation,
		UpdatedAt:  e.updatedAt,
	}
}

// Cache holds every key's state.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	gen     uint64
	// epochs counts invalidations per key; a fetch that started in an
	// older epoch must not write its result back.
	epochs map[string]uint64

	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int

	group   singleflight.Group
	metrics *Metrics
	timeout time.Duration
	log     *logrus.Entry
}

type Option func(*Cache)

// WithMetrics records fetches, hits and latencies.
func WithMetrics(m *Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithFetchTimeout bounds each upstream fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) { c.timeout = d }
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		epochs:  make(map[string]uint64),
		subs:    make(map[int]func(Event)),
		log:     logutils.Component("fetch"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Peek returns the current state of key without fetching.
func (c *Cache) Peek(key Key) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[key.String()]; ok {
		return e.snapshot()
	}
	return Snapshot{Key: key, Status: StatusIdle}
}

// Fetch returns the cached value for key, calling fetch when there is none.
// If ctx ends first Fetch returns ctx.Err(), but the fetch keeps running
// and its result still lands in the cache.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch Fetcher) (Snapshot, error) {
	if snap := c.Peek(key); snap.Status == StatusResolved {
		c.metrics.hit(key)
		return snap, nil
	}

	ch := c.group.DoChan(key.String(), func() (any, error) {
		return c.run(ctx, key, fetch)
	})
	select {
	case <-ctx.Done():
		return c.Peek(key), ctx.Err()
	case res := <-ch:
		snap, _ := res.Val.(Snapshot)
		return snap, res.Err
	}
}

// Prefetch starts a background fetch unless key is already pending or
// resolved.
func (c *Cache) Prefetch(key Key, fetch Fetcher) {
	switch c.Peek(key).Status {
	case StatusPending, StatusResolved:
		return
	}
	go func() {
		_, _ = c.Fetch(context.Background(), key, fetch)
	}()
}

// Invalidate drops key so the next request fetches again. A fetch already
// in flight for key still answers its own callers but is not cached.
func (c *Cache) Invalidate(key Key) {
	k := key.String()
	c.mu.Lock()
	_, existed := c.entries[k]
	delete(c.entries, k)
	c.epochs[k]++
	c.mu.Unlock()
	c.group.Forget(k)

	if existed {
		c.notify(Event{Type: EventInvalidated, Key: k, At: time.Now().UTC()})
	}
}

// InvalidateAll drops every key.
func (c *Cache) InvalidateAll() {
	c.mu.RLock()
	keys := make([]Key, 0, len(c.entries))
	for _, e := range c.entries {
		keys = append(keys, e.key)
	}
	c.mu.RUnlock()

	for _, k := range keys {
		c.Invalidate(k)
	}
}

func (c *Cache) run(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	// another flight may have resolved the key after our first look
	if snap := c.Peek(key); snap.Status == StatusResolved {
		return snap, nil
	}
	c.mu.RLock()
	epoch := c.epochs[key.String()]
	c.mu.RUnlock()
	c.transition(key, epoch, StatusPending, nil, nil)

	fctx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(fctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	value, err := fetch(fctx)
	c.metrics.observe(key, err, time.Since(start))
	if err != nil {
		c.log.WithFields(logutils.Fields{"key": key.String(), "error": err}).Warn("fetch failed")
		return c.transition(key, epoch, StatusFailed, nil, err), err
	}
	c.log.WithFields(logutils.Fields{"key": key.String(), "took": time.Since(start)}).Debug("fetch resolved")
	return c.transition(key, epoch, StatusResolved, value, nil), nil
}

// transition records a state change made by a fetch started in epoch. If
// key was invalidated since, the change is returned but neither stored nor
// announced.
func (c *Cache) transition(key Key, epoch uint64, status Status, value any, err error) Snapshot {
	k := key.String()
	now := time.Now().UTC()

	c.mu.Lock()
	if c.epochs[k] != epoch {
		snap := Snapshot{Key: key, Status: status, Value: value, Err: err, UpdatedAt: now}
		if status == StatusResolved {
			c.gen++
			snap.Generation = c.gen
		}
		c.mu.Unlock()
		c.log.WithFields(logutils.Fields{"key": k, "status": status.String()}).Debug("discarding result of invalidated fetch")
		return snap
	}
	e, ok := c.entries[k]
	if !ok {
		e = &entry{key: key}
		c.entries[k] = e
	}
	e.status = status
	e.err = err
	e.updatedAt = now
	switch status {
	case StatusResolved:
		c.gen++
		e.generation = c.gen
		e.value = value
	case StatusFailed:
		e.value = nil
		e.generation = 0
	}
	snap := e.snapshot()
	c.mu.Unlock()

	ev := Event{Type: eventTypeFor(status), Key: k, Generation: snap.Generation, At: now}
	if err != nil {
		ev.Error = err.Error()
	}
	c.notify(ev)
	return snap
}
