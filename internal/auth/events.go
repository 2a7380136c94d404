package auth

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventKind names a session transition.
type EventKind string

const (
	EventSignedUp  EventKind = "signed_up"
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
	EventConfirmed EventKind = "confirmed"
)

// SessionEvent is delivered to subscribers after the transition committed.
type SessionEvent struct {
	Kind   EventKind
	UserID string
	At     time.Time
}

// Broker fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event and the drop is counted.
type Broker struct {
	mu      sync.RWMutex
	subs    map[int]chan SessionEvent
	next    int
	buf     int
	dropped atomic.Uint64
}

// NewBroker returns a Broker whose subscriber channels hold buf events.
func NewBroker(buf int) *Broker {
	if buf <= 0 {
		buf = 16
	}
	return &Broker{subs: make(map[int]chan SessionEvent), buf: buf}
}

// Subscribe registers a listener. Call cancel to unsubscribe; the channel is
// closed afterwards.
func (b *Broker) Subscribe() (<-chan SessionEvent, func()) {
	ch := make(chan SessionEvent, b.buf)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to every current subscriber. A nil Broker is a no-op.
func (b *Broker) Publish(ev SessionEvent) {
	if b == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber was
// behind.
func (b *Broker) Dropped() uint64 { return b.dropped.Load() }
