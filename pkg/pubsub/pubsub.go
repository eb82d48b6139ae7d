package pubsub

import (
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 8

type PubSub[T any] struct {
	mu   sync.Mutex
	subs map[string]map[string]chan T
}

func NewPubSub[T any]() *PubSub[T] {
	return &PubSub[T]{
		subs: make(map[string]map[string]chan T),
	}
}

// Subscribe returns the id of the new subscription, needed to Unsubscribe, and
// the channel the topic is delivered on.
func (ps *PubSub[T]) Subscribe(topic string) (string, <-chan T) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan T, subscriberBuffer)
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[string]chan T)
	}
	ps.subs[topic][id] = ch
	return id, ch
}

// Unsubscribe closes the channel of the subscription.
func (ps *PubSub[T]) Unsubscribe(topic, id string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ch, ok := ps.subs[topic][id]
	if !ok {
		return
	}
	close(ch)
	delete(ps.subs[topic], id)
	if len(ps.subs[topic]) == 0 {
		delete(ps.subs, topic)
	}
}

// UnsubscribeAll closes the channel of every subscription to topic.
func (ps *PubSub[T]) UnsubscribeAll(topic string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for _, ch := range ps.subs[topic] {
		close(ch)
	}
	delete(ps.subs, topic)
}

// Publish delivers data to every subscriber of topic and returns how many
// received it. A subscriber whose buffer is full misses the message.
func (ps *PubSub[T]) Publish(topic string, data T) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delivered := 0
	for _, ch := range ps.subs[topic] {
		select {
		case ch <- data:
			delivered++
		default:
		}
	}
	return delivered
}

func (ps *PubSub[T]) Subscribers(topic string) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.subs[topic])
}
