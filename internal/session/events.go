package session

import "sync"

// EventType is the kind of change a session went through
type EventType string

// Event types
const (
	EventState    EventType = "state"
	EventImage    EventType = "image"
	EventOutput   EventType = "output"
	EventFilter   EventType = "filter"
	EventControls EventType = "controls"
	EventReview   EventType = "review"
)

// Event is a session change, with the state after it
type Event struct {
	Type  EventType `json:"type"`
	State State     `json:"state"`
}

const eventBuffer = 16

type broadcaster struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
	closed      bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

func (b *broadcaster) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, eventBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	b.subscribers[ch] = struct{}{}

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
	}
}

// publish sends the event to every subscriber, dropping it for subscribers that are behind
func (b *broadcaster) publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
}
