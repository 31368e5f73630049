// Package intake holds the server-side form session and the batch submission
// pipeline that turns accumulated entries into stored deposit records.
package intake

import (
	"errors"
	"sync"
	"time"

	"intake/internal/captcha"
	"intake/internal/core"
)

// ErrLocked is returned for entry operations before the challenge is solved.
var ErrLocked = errors.New("form is locked")

// Session is the state of one browser tab's form. All methods are safe for
// concurrent use; a mutex serialises mutations.
type Session struct {
	ID string

	mu        sync.Mutex
	now       func() time.Time
	source    captcha.Source
	personal  core.PersonalDetails
	unlocked  bool
	challenge captcha.Challenge
	version   int
	entries   *core.Accumulator
	state     State
	stored    int
}

// View is an immutable snapshot used for rendering.
type View struct {
	ID               string
	Personal         core.PersonalDetails
	Unlocked         bool
	Entries          []core.FinancialEntry
	Totals           core.Totals
	State            State
	Stored           int
	ChallengeVersion int
	Today            string
}

// SessionOption customises a new Session.
type SessionOption func(*Session)

// WithClock sets the clock used for "today".
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithCaptchaSource makes challenge generation deterministic.
func WithCaptchaSource(src captcha.Source) SessionOption {
	return func(s *Session) { s.source = src }
}

// WithEntryIDs replaces the entry id generator.
func WithEntryIDs(newID func() string) SessionOption {
	return func(s *Session) { s.entries = core.NewAccumulator(newID) }
}

// NewSession returns a locked, empty form with a fresh challenge.
func NewSession(id string, opts ...SessionOption) *Session {
	s := &Session{ID: id, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.entries == nil {
		s.entries = core.NewAccumulator(nil)
	}
	s.regenerate()
	return s
}

func (s *Session) regenerate() {
	s.challenge = captcha.Generate(s.source)
	s.version++
}

// Challenge returns the current challenge for rendering.
func (s *Session) Challenge() captcha.Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challenge
}

// RefreshChallenge replaces the challenge. The previous one stops matching.
func (s *Session) RefreshChallenge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regenerate()
	return s.version
}

// Unlock records the typed personal details and, if they validate and the
// guess matches, freezes them and opens the entry section. A failed attempt
// keeps the challenge so the user can retry. Unlocking twice is a no-op.
func (s *Session) Unlock(p core.PersonalDetails, guess string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unlocked {
		return nil
	}

	s.personal = core.SanitizePersonal(p)
	if err := core.ValidateForUnlock(s.personal); err != nil {
		return err
	}
	if err := captcha.Check(guess, s.challenge); err != nil {
		return err
	}
	s.unlocked = true
	return nil
}

// AddEntry validates the draft against today's date and accumulates it.
func (s *Session) AddEntry(d core.EntryDraft) (core.FinancialEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unlocked {
		return core.FinancialEntry{}, ErrLocked
	}
	d.Amount = core.SanitizeDigits(d.Amount, 0)
	d.ReturnedAmount = core.SanitizeDigits(d.ReturnedAmount, 0)
	return s.entries.Add(d, core.Today(s.now()))
}

// RemoveEntry drops an entry by id. Unknown ids are ignored.
func (s *Session) RemoveEntry(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries.Remove(id)
}

// Today is the session's current calendar date.
func (s *Session) Today() string {
	return core.Today(s.now())
}

// Reset returns the form to a fresh, locked state with a new challenge.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	s.state = Editing
	s.stored = 0
}

func (s *Session) clear() {
	s.personal = core.PersonalDetails{}
	s.entries.Clear()
	s.unlocked = false
	s.regenerate()
}

// State returns the current pipeline state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View snapshots the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		ID:               s.ID,
		Personal:         s.personal,
		Unlocked:         s.unlocked,
		Entries:          s.entries.Entries(),
		Totals:           s.entries.Totals(),
		State:            s.state,
		Stored:           s.stored,
		ChallengeVersion: s.version,
		Today:            core.Today(s.now()),
	}
}
