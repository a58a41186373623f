// Package pubsub is an in-process notification bus with named topics.
// Components that must refresh when data they do not own changes (the
// admin dashboard's unread-order badge, cached delivery views) subscribe
// instead of being poked through ambient signals.
package pubsub

import "sync"

type Topic string

const (
	TopicOrderCreated    Topic = "order.created"
	TopicDeliveryUpdated Topic = "delivery.updated"
)

type Event struct {
	Topic   Topic
	Payload any
}

type Handler func(Event)

type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[Topic]map[int]Handler
}

func New() *Bus {
	return &Bus{subs: make(map[Topic]map[int]Handler)}
}

// Subscribe registers fn for a topic and returns its cancel function.
func (b *Bus) Subscribe(topic Topic, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	id := b.next
	b.next++
	b.subs[topic][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Publish invokes every subscriber of the topic on the calling goroutine.
// Callers that must not block put the publish on the background runner.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, fn := range b.subs[topic] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	ev := Event{Topic: topic, Payload: payload}
	for _, fn := range handlers {
		fn(ev)
	}
}
