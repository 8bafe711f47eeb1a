package throttle

import (
	"sync"
	"time"
)

// Gate rate-limits notifications per key. Each key has its own cooldown
// window, supplied on every call since different watchers use different
// windows for their keys.
type Gate struct {
	mu       sync.Mutex
	lastFire map[string]time.Time
	now      func() time.Time // injectable for tests
}

func NewGate() *Gate {
	return &Gate{
		lastFire: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Allow returns true and records the current time iff the key has never
// fired or at least window has elapsed since it last fired. A false return
// leaves the recorded time untouched. Keys are never expired: the map grows
// with the number of distinct keys seen in a session (app names, filenames),
// which stays small for process lifetime.
func (g *Gate) Allow(key string, window time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	last, seen := g.lastFire[key]
	if seen && now.Sub(last) < window {
		return false
	}
	g.lastFire[key] = now
	return true
}
