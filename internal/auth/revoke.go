package auth

import (
	"sync"
	"time"
)

// Denylist remembers revoked token ids until they would have expired.
type Denylist struct {
	mu  sync.Mutex
	ids map[string]time.Time
	now func() time.Time
}

func NewDenylist() *Denylist {
	return &Denylist{ids: make(map[string]time.Time), now: time.Now}
}

func (d *Denylist) Revoke(id string, expires time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	for k, exp := range d.ids {
		if now.After(exp) {
			delete(d.ids, k)
		}
	}
	d.ids[id] = expires
}

func (d *Denylist) IsRevoked(id string) bool {
	if d == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.ids[id]
	return ok
}
