package sync

import (
	"time"

	"cellhub/internal/querycache"
)

// CacheEvent is the wire form of a cache transition.
type CacheEvent struct {
	Type       string    `json:"type"` // "cache.pending", "cache.resolved", "cache.failed", "cache.invalidated"
	Key        string    `json:"key"`
	Generation uint64    `json:"generation,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

func FromCache(ev querycache.Event) CacheEvent {
	return CacheEvent{
		Type:       string(ev.Type),
		Key:        ev.Key,
		Generation: ev.Generation,
		Error:      ev.Error,
		At:         ev.At,
	}
}

// Attach forwards every event of cache to the hub and returns a function
// that stops forwarding.
func Attach(cache *querycache.Cache, hub *Hub) (detach func()) {
	return cache.Subscribe(func(ev querycache.Event) {
		hub.Publish(FromCache(ev))
	})
}
