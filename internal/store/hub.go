package store

import (
	"context"
	"sync"
)

// Relay carries change notifications to other server instances.
type Relay interface {
	Publish(ctx context.Context, coll Collection, owner string) error
}

type topic struct {
	coll  Collection
	owner string
}

// Hub fans change notifications out to listeners of one (collection, owner)
// pair. Each listener holds at most one pending notification, so bursts of
// changes are coalesced into a single reload.
type Hub struct {
	mu   sync.Mutex
	subs map[topic]map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[topic]map[chan struct{}]struct{})}
}

// Notify wakes every listener of (coll, owner). It never blocks.
func (h *Hub) Notify(coll Collection, owner string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[topic{coll, owner}] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Listen registers a listener. The returned func unregisters it.
func (h *Hub) Listen(coll Collection, owner string) (<-chan struct{}, func()) {
	t := topic{coll, owner}
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[t] == nil {
		h.subs[t] = make(map[chan struct{}]struct{})
	}
	h.subs[t][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[t], ch)
			if len(h.subs[t]) == 0 {
				delete(h.subs, t)
			}
			h.mu.Unlock()
		})
	}
}

// Listeners reports how many listeners (coll, owner) has.
func (h *Hub) Listeners(coll Collection, owner string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic{coll, owner}])
}
