// Package gesture implements the hidden admin triggers as small explicit
// state machines fed with timestamped input events.
package gesture

import "time"

// Defaults for the two admin triggers.
const (
	Window    = 500 * time.Millisecond
	ShiftNeed = 3
	TapNeed   = 5
	ShiftKey  = "Shift"
)

// Sequence counts events that arrive less than Window apart. The counter
// restarts at 1 when the gap is too large and resets to 0 once it fires.
type Sequence struct {
	Need   int
	Window time.Duration

	count int
	last  time.Time
}

// NewSequence returns a sequence that fires on the need-th close event.
func NewSequence(need int, window time.Duration) *Sequence {
	return &Sequence{Need: need, Window: window}
}

// Observe feeds one event and reports whether the sequence completed.
func (s *Sequence) Observe(at time.Time) bool {
	if !s.last.IsZero() && at.Sub(s.last) < s.Window {
		s.count++
	} else {
		s.count = 1
	}
	s.last = at

	if s.count >= s.Need {
		s.count = 0
		return true
	}
	return false
}

// Reset drops the current count.
func (s *Sequence) Reset() {
	s.count = 0
}

// Count is the number of events in the current run.
func (s *Sequence) Count() int {
	return s.count
}

// KeyEvent is one keydown as reported by the browser.
type KeyEvent struct {
	Key    string
	Repeat bool
	At     time.Time
}

// ShiftTrigger fires on three Shift presses, each within Window of the last.
type ShiftTrigger struct {
	seq *Sequence
}

func NewShiftTrigger() *ShiftTrigger {
	return &ShiftTrigger{seq: NewSequence(ShiftNeed, Window)}
}

// Observe ignores auto-repeat and resets on any other key.
func (t *ShiftTrigger) Observe(e KeyEvent) bool {
	if e.Repeat {
		return false
	}
	if e.Key != ShiftKey {
		t.seq.Reset()
		return false
	}
	return t.seq.Observe(e.At)
}

// TapTrigger fires on five header clicks, each within Window of the last.
type TapTrigger struct {
	seq *Sequence
}

func NewTapTrigger() *TapTrigger {
	return &TapTrigger{seq: NewSequence(TapNeed, Window)}
}

func (t *TapTrigger) Observe(at time.Time) bool {
	return t.seq.Observe(at)
}

// Pair bundles both triggers for one browser session.
type Pair struct {
	Shift *ShiftTrigger
	Tap   *TapTrigger
}

func NewPair() *Pair {
	return &Pair{Shift: NewShiftTrigger(), Tap: NewTapTrigger()}
}
