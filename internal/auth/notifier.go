package auth

import "sync"

// Status is the sign-in state of one browser session.
type Status struct {
	SessionID string
	SignedIn  bool
	Email     string
}

// Notifier fans sign-in status changes out to subscribers.
type Notifier struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Status)
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]func(Status))}
}

// Subscribe registers fn and returns a function that removes it.
func (n *Notifier) Subscribe(fn func(Status)) (unsubscribe func()) {
	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

// Publish calls every subscriber synchronously.
func (n *Notifier) Publish(s Status) {
	n.mu.RLock()
	fns := make([]func(Status), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(s)
	}
}
