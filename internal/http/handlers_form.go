package http

import (
	"bytes"
	"errors"
	"net/http"

	"intake/internal/captcha"
	"intake/internal/core"
	"intake/internal/intake"
	applog "intake/internal/log"
)

const (
	sessionExpiredMessage = "Your form session has expired. Please reload the page."
	lockedMessage         = "Please verify the CAPTCHA before adding entries."
	futureDateMessage     = "Date cannot be of future"
	// futureDateClearMs is how long the inline date warning stays visible.
	futureDateClearMs = 3000
)

// formPage is the data for the form templates.
type formPage struct {
	Token        string
	View         intake.View
	DepositTypes []string
}

type successPage struct {
	Token   string
	Stored  int
	Message string
}

func (s *Server) formData(sess *intake.Session) formPage {
	return formPage{
		Token:        sess.ID,
		View:         sess.View(),
		DepositTypes: core.DepositTypes,
	}
}

// formSession resolves the session token posted with every form request.
func (s *Server) formSession(r *http.Request) (*intake.Session, *HTMXResponseBuilder) {
	token := r.Form.Get(fieldToken)
	sess, ok := s.deps.Sessions.Get(token)
	if !ok {
		return nil, FormError(http.StatusBadRequest, sessionExpiredMessage)
	}
	return sess, nil
}

// prepareForm checks the method, parses the body and resolves the session.
func (s *Server) prepareForm(w http.ResponseWriter, r *http.Request) (*intake.Session, bool) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return nil, false
	}
	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return nil, false
	}
	sess, resp := s.formSession(r)
	if resp != nil {
		resp.Write(w)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	browserSession(w, r)
	sess := s.deps.Sessions.Create()
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Form session created",
		applog.FieldSessionID, sess.ID)

	s.render(w, r, http.StatusOK, "index.html", s.formData(sess))
}

func (s *Server) handleCaptchaImage(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	sess, ok := s.deps.Sessions.Get(r.URL.Query().Get(fieldToken))
	if !ok {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := s.deps.Captcha.Render(&buf, sess.Challenge()); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Challenge rendering failed",
			applog.FieldComponent, applog.ComponentCaptcha,
			applog.FieldSessionID, sess.ID,
			applog.FieldError, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleCaptchaRefresh(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.prepareForm(w, r)
	if !ok {
		return
	}
	sess.RefreshChallenge()

	resp, err := s.partial(r, "captcha", s.formData(sess))
	if err != nil {
		InternalServerError("Internal Server Error").Write(w)
		return
	}
	resp.Write(w)
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.prepareForm(w, r)
	if !ok {
		return
	}
	logger := applog.FromContext(r.Context())

	err := sess.Unlock(ParsePersonalDetails(r.Form), r.Form.Get(fieldCaptcha))
	if err != nil {
		if errors.Is(err, captcha.ErrMismatch) {
			s.count(&s.appMetrics.captchaFailures, 1)
		}
		logger.DebugContext(r.Context(), "Unlock rejected",
			applog.FieldSessionID, sess.ID,
			applog.FieldOperation, applog.OpUnlock,
			applog.FieldError, err)
		FormError(http.StatusUnprocessableEntity, userMessage(err)).Write(w)
		return
	}

	logger.InfoContext(r.Context(), "Form unlocked",
		applog.FieldSessionID, sess.ID,
		applog.FieldOperation, applog.OpUnlock)

	resp, err := s.partial(r, "form", s.formData(sess))
	if err != nil {
		InternalServerError("Internal Server Error").Write(w)
		return
	}
	resp.Write(w)
}

// handleDateCheck guards the deposit date as soon as it changes.
func (s *Server) handleDateCheck(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.prepareForm(w, r)
	if !ok {
		return
	}
	date := ParseEntryDraft(r.Form).DepositDate
	if date == "" || core.IsPastOrToday(date, sess.Today()) {
		NewHTMXResponse().BodyHTML("").Write(w)
		return
	}
	NewHTMXResponse().
		TriggerDateRejected(futureDateClearMs).
		BodyHTML(`<span class="hint error">` + futureDateMessage + `</span>`).
		Write(w)
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.prepareForm(w, r)
	if !ok {
		return
	}

	entry, err := sess.AddEntry(ParseEntryDraft(r.Form))
	if err != nil {
		msg := userMessage(err)
		if errors.Is(err, intake.ErrLocked) {
			msg = lockedMessage
		}
		FormError(http.StatusUnprocessableEntity, msg).Write(w)
		return
	}

	data := s.formData(sess)
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Entry added",
		applog.FieldSessionID, sess.ID,
		applog.FieldDepositType, entry.DepositType,
		applog.FieldEntryCount, len(data.View.Entries))

	resp, err := s.partial(r, "entries", data)
	if err != nil {
		InternalServerError("Internal Server Error").Write(w)
		return
	}
	resp.TriggerEntryAdded(len(data.View.Entries)).Write(w)
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.prepareForm(w, r)
	if !ok {
		return
	}
	sess.RemoveEntry(r.Form.Get(fieldEntryID))

	resp, err := s.partial(r, "entries", s.formData(sess))
	if err != nil {
		InternalServerError("Internal Server Error").Write(w)
		return
	}
	resp.Write(w)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.prepareForm(w, r)
	if !ok {
		return
	}
	s.count(&s.appMetrics.submissions, 1)

	honeypot := r.Form.Get(fieldHoneypot)
	if honeypot != "" {
		s.detector.RecordHoneypot()
	}

	out := s.deps.Pipeline.Submit(r.Context(), sess, honeypot)
	switch out.State {
	case intake.Succeeded:
		s.count(&s.appMetrics.recordsStored, int64(out.Stored))
		resp, err := s.partial(r, "success", successPage{
			Token:   sess.ID,
			Stored:  out.Stored,
			Message: intake.SuccessMessage(out.Stored),
		})
		if err != nil {
			InternalServerError("Internal Server Error").Write(w)
			return
		}
		resp.TriggerFormReset().Write(w)
	case intake.Failed:
		s.count(&s.appMetrics.failedBatches, 1)
		FormError(http.StatusInternalServerError, out.Message).Write(w)
	default:
		FormError(http.StatusUnprocessableEntity, out.Message).Write(w)
	}
}

// handleReset is "File New Request": a fresh locked form in the same session.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.prepareForm(w, r)
	if !ok {
		return
	}
	sess.Reset()

	resp, err := s.partial(r, "form", s.formData(sess))
	if err != nil {
		InternalServerError("Internal Server Error").Write(w)
		return
	}
	resp.TriggerFormReset().Write(w)
}
