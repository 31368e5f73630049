package http

import (
	"sync"
	"time"

	"intake/internal/auth"
	"intake/internal/cache"
	"intake/internal/gesture"
)

// Presence keeps the latest sign-in status observed for each browser
// session. It only holds values; the subscription belongs to the Notifier.
type Presence struct {
	statuses    *cache.LRUCache[auth.Status]
	unsubscribe func()
}

// NewPresence subscribes to n until Close is called.
func NewPresence(n *auth.Notifier, maxSessions int, ttl time.Duration, opts ...cache.Option) *Presence {
	p := &Presence{statuses: cache.NewLRUCache[auth.Status](maxSessions, ttl, opts...)}
	p.unsubscribe = n.Subscribe(p.observe)
	return p
}

func (p *Presence) observe(s auth.Status) {
	if s.SessionID == "" {
		return
	}
	p.statuses.Set(s.SessionID, s)
}

// SignedIn reports the last status seen for the browser session.
func (p *Presence) SignedIn(sid string) bool {
	s, ok := p.statuses.Get(sid)
	return ok && s.SignedIn
}

func (p *Presence) Cleaner() cache.Cleaner {
	return p.statuses
}

func (p *Presence) Close() {
	p.unsubscribe()
}

// gestureState is one browser session's trigger pair.
type gestureState struct {
	mu   sync.Mutex
	pair *gesture.Pair
}

// gestures holds trigger pairs per browser session.
type gestures struct {
	states *cache.LRUCache[*gestureState]
}

func newGestures(maxSessions int, ttl time.Duration, opts ...cache.Option) *gestures {
	return &gestures{states: cache.NewLRUCache[*gestureState](maxSessions, ttl, opts...)}
}

func (g *gestures) get(sid string) *gestureState {
	st, _ := g.states.GetOrCreate(sid, func() *gestureState {
		return &gestureState{pair: gesture.NewPair()}
	})
	return st
}

// key feeds a keydown and reports whether the Shift trigger fired.
func (g *gestures) key(sid string, e gesture.KeyEvent) bool {
	st := g.get(sid)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pair.Shift.Observe(e)
}

// tap feeds a header click and reports whether the tap trigger fired.
func (g *gestures) tap(sid string, at time.Time) bool {
	st := g.get(sid)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pair.Tap.Observe(at)
}
