package querycache

import "time"

type EventType string

const (
	EventPending     EventType = "cache.pending"
	EventResolved    EventType = "cache.resolved"
	EventFailed      EventType = "cache.failed"
	EventInvalidated EventType = "cache.invalidated"
)

// Event is published on every state transition of a key.
type Event struct {
	Type       EventType `json:"type"`
	Key        string    `json:"key"`
	Generation uint64    `json:"generation,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

func eventTypeFor(s Status) EventType {
	switch s {
	case StatusResolved:
		return EventResolved
	case StatusFailed:
		return EventFailed
	default:
		return EventPending
	}
}

// Subscribe registers fn for every event and returns a function that
// removes it. fn runs on the goroutine that made the transition and must
// not block.
func (c *Cache) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Cache) notify(ev Event) {
	c.subMu.RLock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
