package session

import (
	"context"
	"sync"

	"github.com/trezcool/mahudhurio/core/user"
)

// Hub is an in-process Resolver fed by the auth handlers: login publishes
// the authenticated principal, logout publishes nil. It fans every
// publication out to subscribers.
type Hub struct {
	mu      sync.RWMutex
	current *user.User
	subs    map[int]func(*user.User)
	nextID  int
}

var _ Resolver = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{subs: make(map[int]func(*user.User))}
}

// Publish records principal as the current session and notifies subscribers.
func (h *Hub) Publish(principal *user.User) {
	h.mu.Lock()
	h.current = principal
	fns := make([]func(*user.User), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(principal)
	}
}

func (h *Hub) Resolve(_ context.Context) (*user.User, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current, nil
}

func (h *Hub) Subscribe(fn func(principal *user.User)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}
