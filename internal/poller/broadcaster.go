package poller

import "sync"

const subscriberBuffer = 8

// Broadcaster fans State updates out to subscribers. Sends never block the
// poll loop: a subscriber whose buffer is full misses that update and
// catches up on the next one (every update carries complete state).
type Broadcaster struct {
	mu   sync.Mutex
	subs map[uint64]chan State
	next uint64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[uint64]chan State)}
}

// Subscribe registers a new subscriber and returns its channel plus a
// cancel func. After cancel returns the channel is closed.
func (b *Broadcaster) Subscribe() (<-chan State, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan State, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (b *Broadcaster) publish(st State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- st:
		default:
			// Slow subscriber; it will see the next complete state.
		}
	}
}
