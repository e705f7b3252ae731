// Package bus is the in-process update notification channel. Views that keep
// their own copy of a record list subscribe to the event for that list and
// re-fetch when it fires; events carry no payload.
package bus

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Event names published after a successful mutation.
const (
	ProjectUpdated   = "project-updated"
	EmployeesUpdated = "employees-updated"
	RevenueUpdated   = "revenue-updated"
)

// Handler reacts to an event. Handlers must be idempotent; they may publish
// again, including the event they are handling.
type Handler func()

// Unsubscribe releases a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

type Publisher interface {
	Publish(event string)
}

type Subscriber interface {
	Subscribe(event string, h Handler) Unsubscribe
}

// PubSub is what views and transports are given.
type PubSub interface {
	Publisher
	Subscriber
}

type subscription struct {
	handler Handler
	active  atomic.Bool
}

// Bus dispatches synchronously, in registration order, on the publishing
// goroutine. It never deduplicates: breaking publish cycles is up to the
// handlers.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]*subscription
}

func New() *Bus {
	return &Bus{subs: make(map[string][]*subscription)}
}

// Subscribe registers h for event.
func (b *Bus) Subscribe(event string, h Handler) Unsubscribe {
	sub := &subscription{handler: h}
	sub.active.Store(true)

	b.mu.Lock()
	b.subs[event] = append(b.subs[event], sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			b.mu.Lock()
			defer b.mu.Unlock()
			b.subs[event] = slices.DeleteFunc(b.subs[event], func(s *subscription) bool { return s == sub })
			if len(b.subs[event]) == 0 {
				delete(b.subs, event)
			}
		})
	}
}

// Publish calls every handler subscribed to event when Publish starts. A
// handler unsubscribed during dispatch (by an earlier handler) is skipped.
func (b *Bus) Publish(event string) {
	b.mu.Lock()
	snapshot := slices.Clone(b.subs[event])
	b.mu.Unlock()

	for _, sub := range snapshot {
		if sub.active.Load() {
			sub.handler()
		}
	}
}

// Subscribers returns the number of live subscriptions for event.
func (b *Bus) Subscribers(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[event])
}
