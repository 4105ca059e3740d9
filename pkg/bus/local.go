// Package bus provides location.Bus implementations: an in-process
// fan-out with typed listeners, a NATS relay, and a combinator that
// publishes to several buses.
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/go-drift/geodealer/pkg/errors"
	"github.com/go-drift/geodealer/pkg/location"
)

// Listener receives a published payload.
type Listener func(payload any)

// Subscription represents an active Local subscription.
type Subscription struct {
	bus      *Local
	topic    location.Topic
	listener Listener
	canceled atomic.Bool
}

// Cancel stops delivery to this subscription. It is safe to call from inside
// the listener and more than once.
func (s *Subscription) Cancel() {
	if s.canceled.CompareAndSwap(false, true) {
		s.bus.remove(s)
	}
}

// IsCanceled returns true if this subscription has been canceled.
func (s *Subscription) IsCanceled() bool {
	return s.canceled.Load()
}

// Local delivers publications synchronously, in subscription order, on the
// publishing goroutine. A panicking listener is reported and does not stop
// delivery to the others.
type Local struct {
	mu   sync.Mutex
	subs map[location.Topic][]*Subscription
}

// NewLocal creates an empty Local bus.
func NewLocal() *Local {
	return &Local{subs: make(map[location.Topic][]*Subscription)}
}

// Subscribe registers listener for topic.
func (b *Local) Subscribe(topic location.Topic, listener Listener) *Subscription {
	sub := &Subscription{bus: b, topic: topic, listener: listener}
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()
	return sub
}

// Publish implements location.Bus.
func (b *Local) Publish(topic location.Topic, payload any) {
	for _, sub := range b.snapshot(topic) {
		if sub.IsCanceled() {
			continue
		}
		deliver(sub, payload)
	}
}

// Len returns the number of live subscriptions for topic.
func (b *Local) Len(topic location.Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}

func deliver(sub *Subscription, payload any) {
	defer errors.Recover("bus.deliver." + string(sub.topic))
	sub.listener(payload)
}

func (b *Local) snapshot(topic location.Topic) []*Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := make([]*Subscription, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	return subs
}

func (b *Local) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[sub.topic]
	for i, s := range subs {
		if s == sub {
			b.subs[sub.topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[sub.topic]) == 0 {
		delete(b.subs, sub.topic)
	}
}

// Multi publishes to every bus in order. Nil entries are skipped.
type Multi []location.Bus

// Publish implements location.Bus.
func (m Multi) Publish(topic location.Topic, payload any) {
	for _, b := range m {
		if b != nil {
			b.Publish(topic, payload)
		}
	}
}
