package stream

import (
	"sync"
	"sync/atomic"
)

// Subscriber is one consumer of the lifecycle stream, typically backing a
// wire WebSocket connection or an SSE request. Delivery is best-effort
// behind a credit budget: each delivered event costs one credit and the
// owner grants more as it drains the channel. When credits run out or the
// buffer is full the event is dropped and counted — the message cursor is
// the recovery path, never the stream.
type Subscriber struct {
	id string
	ch chan *Event

	credits atomic.Int64
	dropped atomic.Int64

	mu     sync.RWMutex
	topics map[string]struct{}

	closed atomic.Bool
}

// NewSubscriber creates a subscriber with the given channel buffer and
// initial credit budget.
func NewSubscriber(id string, bufferSize int, credits int64) *Subscriber {
	s := &Subscriber{
		id:     id,
		ch:     make(chan *Event, bufferSize),
		topics: make(map[string]struct{}),
	}
	s.credits.Store(credits)
	return s
}

// ID returns the subscriber identifier.
func (s *Subscriber) ID() string { return s.id }

// C returns the channel lifecycle events arrive on. It is closed when the
// subscriber is removed from the broker.
func (s *Subscriber) C() <-chan *Event { return s.ch }

// AddCredits grants n more deliveries.
func (s *Subscriber) AddCredits(n int64) { s.credits.Add(n) }

// Credits returns the remaining credit budget.
func (s *Subscriber) Credits() int64 { return s.credits.Load() }

// Dropped returns how many events were discarded because the subscriber
// was out of credits or its buffer was full.
func (s *Subscriber) Dropped() int64 { return s.dropped.Load() }

// Topics returns the topics this subscriber is currently on.
func (s *Subscriber) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.topics))
	for t := range s.topics {
		out = append(out, t)
	}
	return out
}

func (s *Subscriber) addTopic(topic string) {
	s.mu.Lock()
	s.topics[topic] = struct{}{}
	s.mu.Unlock()
}

func (s *Subscriber) removeTopic(topic string) {
	s.mu.Lock()
	delete(s.topics, topic)
	s.mu.Unlock()
}

// send delivers one event, spending one credit. Reports whether the event
// reached the channel; a false return means it was dropped and counted.
func (s *Subscriber) send(evt *Event) bool {
	if s.closed.Load() {
		return false
	}

	// Optimistic spend: take the credit first, give it back on any
	// failure so concurrent publishers cannot overdraw the budget.
	if s.credits.Add(-1) < 0 {
		s.credits.Add(1)
		s.dropped.Add(1)
		return false
	}

	select {
	case s.ch <- evt:
		return true
	default:
		s.credits.Add(1)
		s.dropped.Add(1)
		return false
	}
}

// Close closes the event channel. Safe to call more than once.
func (s *Subscriber) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.ch)
	}
}
