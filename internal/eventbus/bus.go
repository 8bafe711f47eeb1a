// Package eventbus fans watcher events out to the daemon.
package eventbus

import (
	"sync"

	"github.com/awylder/deskwatch/pkg/models"
)

// Bus decouples watcher poll loops from event consumers. Watchers publish,
// the daemon subscribes once at startup.
type Bus struct {
	mu    sync.RWMutex
	sinks []func(models.Event)
}

func New() *Bus {
	return &Bus{}
}

// Subscribe registers fn for every subsequent event.
func (b *Bus) Subscribe(fn func(models.Event)) {
	b.mu.Lock()
	b.sinks = append(b.sinks, fn)
	b.mu.Unlock()
}

// Publish delivers the event asynchronously so a slow consumer never stalls
// a watcher. Subscribers see each event in registration order.
func (b *Bus) Publish(event models.Event) {
	b.mu.RLock()
	sinks := b.sinks
	b.mu.RUnlock()

	if len(sinks) == 0 {
		return
	}
	go func() {
		for _, fn := range sinks {
			fn(event)
		}
	}()
}
