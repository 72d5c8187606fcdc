package surface

import "sync"

// Publisher receives surface commands as they happen.
type Publisher interface {
	Publish(c Command)
}

// Bus is a fan-out pub/sub for surface commands.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Command]struct{}
}

// NewBus creates a new command bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan Command]struct{})}
}

// BusBuffer is the number of commands a subscriber may fall behind by.
const BusBuffer = 256

// Publish sends a command to all subscribers. A subscriber whose buffer is
// full is dropped and its channel closed: it has missed a command and must
// re-Attach for a fresh snapshot.
func (b *Bus) Publish(c Command) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- c:
		default:
			delete(b.subs, ch)
			close(ch)
		}
	}
}

// Subscribe returns a buffered channel that receives commands.
func (b *Bus) Subscribe() chan Command {
	ch := make(chan Command, BusBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan Command) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Subscribers returns the number of live subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
