package sse

import (
	"sync"
	"sync/atomic"
)

const subscriberBuffer = 16

// Event is one message on the live feed. ID is assigned by the hub on publish
// and increases monotonically, so clients can spot gaps after a drop.
type Event struct {
	ID    uint64
	Topic string
	Event string
	Data  interface{}
}

// Filter decides whether a subscriber receives an event. A nil filter receives everything.
type Filter func(Event) bool

type subscriber struct {
	ch     chan Event
	filter Filter
}

// Hub fans events out to subscribers grouped by topic
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
	seq         atomic.Uint64
	dropped     atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe registers for a topic. The returned cancel func closes the channel
// and must be called exactly once.
func (h *Hub) Subscribe(topic string, filter Filter) (<-chan Event, func()) {
	sub := &subscriber{
		ch:     make(chan Event, subscriberBuffer),
		filter: filter,
	}

	h.mu.Lock()
	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[*subscriber]struct{})
	}
	h.subscribers[topic][sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subscribers[topic], sub)
		if len(h.subscribers[topic]) == 0 {
			delete(h.subscribers, topic)
		}
		close(sub.ch)
	}
	return sub.ch, cancel
}

// Publish stamps the event with the next ID and delivers it without blocking.
// Subscribers whose buffer is full miss the event; see Dropped.
func (h *Hub) Publish(topic string, event Event) {
	event.Topic = topic
	event.ID = h.seq.Add(1)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[topic] {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}

// Dropped counts deliveries skipped because a subscriber was too slow
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
