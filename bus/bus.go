// Package bus carries change notifications between the store and the views
// that render it, inside one process and across processes.
package bus

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Event is one notification. Detail is one of the detail types in this
// package for the well-known names, or anything for ad hoc names.
type Event struct {
	Name   string
	Detail any
}

// Handler receives events. Handlers never run concurrently with each other.
type Handler func(Event)

type subscription struct {
	name      string // "" receives every event
	h         Handler
	cancelled atomic.Bool
}

// Bus delivers events synchronously in subscription order. A Publish made
// while a delivery is running is queued and delivered, in publish order,
// by the goroutine already delivering.
type Bus struct {
	log zerolog.Logger

	mu         sync.Mutex
	subs       []*subscription
	queue      []Event
	delivering bool
}

func New(log zerolog.Logger) *Bus {
	return &Bus{log: log}
}

// Subscribe registers h for events called name. The returned func cancels
// the subscription; it is safe to call more than once and from a handler.
func (b *Bus) Subscribe(name string, h Handler) func() {
	s := &subscription{name: name, h: h}

	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	return func() {
		if s.cancelled.Swap(true) {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, cur := range b.subs {
			if cur == s {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				break
			}
		}
	}
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h Handler) func() {
	return b.Subscribe("", h)
}

// Publish delivers an event to every current subscriber of name.
func (b *Bus) Publish(name string, detail any) {
	b.mu.Lock()
	b.queue = append(b.queue, Event{Name: name, Detail: detail})
	if b.delivering {
		b.mu.Unlock()
		return
	}
	b.delivering = true

	for len(b.queue) > 0 {
		ev := b.queue[0]
		b.queue = b.queue[1:]

		var targets []*subscription
		for _, s := range b.subs {
			if s.name == "" || s.name == ev.Name {
				targets = append(targets, s)
			}
		}
		b.mu.Unlock()

		for _, s := range targets {
			if s.cancelled.Load() {
				continue
			}
			b.call(s.h, ev)
		}

		b.mu.Lock()
	}

	b.delivering = false
	b.mu.Unlock()
}

func (b *Bus) call(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("event", ev.Name).
				Str("panic", fmt.Sprint(r)).
				Msg("event handler panicked")
		}
	}()
	h(ev)
}
