// Package authevents delivers session change notifications (sign-in, sign-out)
// to in-process subscribers.
package authevents

import (
	"slices"
	"sync"

	"github.com/gofrs/uuid/v5"
)

// Kind is the type of a session change.
type Kind string

const (
	SignedIn  Kind = "signed_in"
	SignedOut Kind = "signed_out"
)

// Event describes one session transition.
type Event struct {
	Kind   Kind
	UserID uuid.UUID
	Email  string
}

// Handler receives events synchronously on the publisher's goroutine.
type Handler func(Event)

// Bus is a minimal synchronous fan-out. The zero value is ready to use.
type Bus struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]Handler
}

// Subscribe registers h and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[uint64]Handler)
	}
	id := b.next
	b.next++
	b.subs[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish calls every subscriber in registration order.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	ids := make([]uint64, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	hs := make([]Handler, 0, len(ids))
	for _, id := range ids {
		hs = append(hs, b.subs[id])
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(ev)
	}
}

// Len returns the number of active subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
