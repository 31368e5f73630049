package intake

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"intake/internal/core"
	applog "intake/internal/log"
	"intake/internal/records"
)

// SaveFailedMessage is shown for any persistence failure.
const SaveFailedMessage = "Error saving data. Please check your connection and try again."

// Outcome is what one call to Submit produced.
type Outcome struct {
	State State
	// Stored is the number of records written. A honeypot hit reports 0.
	Stored int
	IDs    []string
	// Message is the user-facing text for a non-success outcome.
	Message string
}

// Pipeline persists a session's entries as one batch.
type Pipeline struct {
	writer records.Writer
	logger *applog.Logger
	sl     *applog.StructuredLogger
	newID  func() string
}

func NewPipeline(w records.Writer, logger *applog.Logger) *Pipeline {
	l := logger.WithComponent(applog.ComponentIntake)
	return &Pipeline{
		writer: w,
		logger: l,
		sl:     applog.NewStructuredLogger(l),
		newID:  uuid.NewString,
	}
}

func (p *Pipeline) transition(ctx context.Context, s *Session, to State) {
	p.logger.DebugContext(ctx, "Submission state changed",
		applog.FieldSessionID, s.ID,
		"from", s.state.String(),
		"to", to.String())
	s.state = to
}

// Submit runs Editing -> Validating -> Persisting -> Succeeded|Failed.
//
// A non-empty honeypot short-circuits to a fake success without writing.
// Validation errors return the session to Editing with a user message.
// Writes are issued concurrently and the batch only succeeds if all of them
// do; records written before a failure are left in place and the session
// keeps its data for a manual retry.
func (p *Pipeline) Submit(ctx context.Context, s *Session, honeypot string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(honeypot) != "" {
		p.logger.WarnContext(ctx, "Honeypot field filled, faking success", applog.FieldSessionID, s.ID)
		p.transition(ctx, s, Succeeded)
		s.clear()
		s.stored = 0
		return Outcome{State: Succeeded}
	}

	p.transition(ctx, s, Validating)
	if err := core.ValidateForSubmit(s.personal, s.entries.Len()); err != nil {
		p.transition(ctx, s, Editing)
		return Outcome{State: Editing, Message: core.Message(err)}
	}

	p.transition(ctx, s, Persisting)
	entries := s.entries.Entries()
	recs := make([]core.DepositRecord, len(entries))
	for i, e := range entries {
		recs[i] = core.NewDepositRecord(s.personal, e)
		recs[i].ID = p.newID()
	}

	ids, err := p.persist(ctx, recs)
	if err != nil {
		p.transition(ctx, s, Failed)
		p.sl.LogSubmission(ctx, s.ID, len(recs), Failed.String(), err)
		p.transition(ctx, s, Editing)
		return Outcome{State: Failed, Message: SaveFailedMessage}
	}

	p.transition(ctx, s, Succeeded)
	p.sl.LogSubmission(ctx, s.ID, len(recs), Succeeded.String(), nil)
	s.clear()
	s.stored = len(recs)
	return Outcome{State: Succeeded, Stored: len(recs), IDs: ids}
}

// persist writes every record concurrently and waits for all of them.
// In-flight writes are not cancelled when the caller goes away.
func (p *Pipeline) persist(ctx context.Context, recs []core.DepositRecord) ([]string, error) {
	wctx := context.WithoutCancel(ctx)
	ids := make([]string, len(recs))

	var g errgroup.Group
	for i, rec := range recs {
		g.Go(func() error {
			id, err := p.writer.Create(wctx, rec)
			if err != nil {
				return fmt.Errorf("write record %s: %w", rec.ID, err)
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}

// SuccessMessage is the confirmation line for n stored records.
func SuccessMessage(n int) string {
	return fmt.Sprintf("%d deposit record(s) have been securely logged.", n)
}
