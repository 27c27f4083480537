// Package events is a small in-process publish/subscribe bus for
// application-wide notifications such as server errors and forced sign-out.
package events

import (
	"sync"
	"time"
)

// Topic names.
const (
	TopicServerError = "server-error"
	TopicSignOut     = "auth:signout"
)

// Event is a published notification.
type Event struct {
	Topic   string
	Status  int
	URL     string
	Message string
	At      time.Time
}

const subscriberBuffer = 16

// Bus fans events out to subscribers. The zero value is ready to use.
// Slow subscribers lose events rather than block publishers.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
	closed bool
}

type subscription struct {
	topics map[string]struct{}
	ch     chan Event
}

// Subscribe returns a channel receiving events for the given topics (all
// topics when none are given) and a function that cancels the subscription.
func (b *Bus) Subscribe(topics ...string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	if b.subs == nil {
		b.subs = make(map[int]subscription)
	}
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		set[t] = struct{}{}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = subscription{topics: set, ch: ch}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub.ch)
			}
		})
	}
}

// Publish delivers evt to every matching subscriber without blocking.
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if len(sub.topics) > 0 {
			if _, ok := sub.topics[evt.Topic]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

// Close cancels every subscription. Later subscriptions receive a closed
// channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}
