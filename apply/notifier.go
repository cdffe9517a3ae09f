package apply

import (
	"sync"

	"github.com/avolokh/apply-core/api"
)

// flushNotifier fans flush-completion events out to subscribers. It exists
// so callers can wait for a flush with an explicit signal instead of polling
// snapshots until states converge.
type flushNotifier struct {
	mu     sync.Mutex
	subs   map[int]chan api.FlushEvent
	nextID int
	closed bool
}

func newFlushNotifier() *flushNotifier {
	return &flushNotifier{subs: make(map[int]chan api.FlushEvent)}
}

func (n *flushNotifier) subscribe(buffer int) (<-chan api.FlushEvent, func()) {
	if buffer < 1 {
		buffer = 1
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		ch := make(chan api.FlushEvent)
		close(ch)
		return ch, func() {}
	}

	id := n.nextID
	n.nextID++
	ch := make(chan api.FlushEvent, buffer)
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// notify delivers ev to every subscriber. A subscriber whose buffer is full
// misses the event rather than blocking the apply path; the apply-state
// snapshot remains the source of truth.
func (n *flushNotifier) notify(ev api.FlushEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (n *flushNotifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}
