package http

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"intake/internal/auth"
	"intake/internal/core"
	"intake/internal/export"
	applog "intake/internal/log"
)

const (
	fetchFailedMessage  = "Error fetching data"
	loggedOutMessage    = "Logged out successfully"
	missingLoginMessage = "Please enter email and password."
)

// adminPage is the data for the Record Browser templates.
type adminPage struct {
	Email     string
	Records   []core.DepositRecord
	Total     int
	Criteria  core.FilterCriteria
	ExportURL string
	Message   string
}

type loginPage struct {
	AllowRegister bool
}

// operator returns the signed-in operator from the session cookie.
func (s *Server) operator(r *http.Request) (auth.User, bool) {
	c, err := r.Cookie(adminCookie)
	if err != nil || c.Value == "" {
		return auth.User{}, false
	}
	claims, err := s.deps.Tokens.Parse(c.Value)
	if err != nil {
		return auth.User{}, false
	}
	return claims.User(), true
}

// requireOperator answers 401 for signed-out calls to admin partials.
func (s *Server) requireOperator(w http.ResponseWriter, r *http.Request) (auth.User, bool) {
	u, ok := s.operator(r)
	if !ok {
		UnauthorizedError("Please sign in again.").Redirect("/admin/login").Write(w)
		return auth.User{}, false
	}
	return u, true
}

// exportURL links the download to the committed criteria.
func exportURL(c core.FilterCriteria) string {
	if q := FilterQuery(c); q != "" {
		return "/admin/export.xlsx?" + q
	}
	return "/admin/export.xlsx"
}

func (s *Server) fetchRecords(ctx context.Context) ([]core.DepositRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()
	return s.deps.Records.ListAll(ctx)
}

func (s *Server) browse(all []core.DepositRecord, c core.FilterCriteria, email string) adminPage {
	return adminPage{
		Email:     email,
		Records:   core.ApplyFilters(all, c, nil),
		Total:     len(all),
		Criteria:  c,
		ExportURL: exportURL(c),
	}
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	sid := browserSession(w, r)
	u, ok := s.operator(r)
	if !ok {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	s.deps.Notifier.Publish(auth.Status{SessionID: sid, SignedIn: true, Email: u.Email})

	all, err := s.fetchRecords(r.Context())
	page := s.browse(all, core.FilterCriteria{}, u.Email)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Record fetch failed",
			applog.FieldOperation, applog.OpList,
			"error_type", applog.ErrorTypeDatabase,
			applog.FieldError, err)
		page.Message = fetchFailedMessage
	}
	s.render(w, r, http.StatusOK, "admin.html", page)
}

// handleFilterRecords commits the staged filters (or clears them) and
// re-renders the table from a fresh read. A failed read leaves the table
// on the page untouched.
func (s *Server) handleFilterRecords(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	u, ok := s.requireOperator(w, r)
	if !ok {
		return
	}
	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return
	}

	reset := r.Form.Get(fieldAction) == "reset"
	criteria := core.FilterCriteria{}
	if !reset {
		criteria = ParseFilterCriteria(r.Form)
	}

	all, err := s.fetchRecords(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Record fetch failed",
			applog.FieldOperation, applog.OpList,
			"error_type", applog.ErrorTypeDatabase,
			applog.FieldError, err)
		InternalServerError(fetchFailedMessage).
			NoSwap().
			TriggerErrorNotification(fetchFailedMessage).
			Write(w)
		return
	}

	resp, err := s.partial(r, "records", s.browse(all, criteria, u.Email))
	if err != nil {
		InternalServerError("Internal Server Error").Write(w)
		return
	}
	if reset {
		resp.TriggerFiltersReset()
	}
	resp.Write(w)
}

// handleExport downloads the committed filtered view as xlsx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	u, ok := s.requireOperator(w, r)
	if !ok {
		return
	}
	logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentExport)

	all, err := s.fetchRecords(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Record fetch failed",
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
		InternalServerError(fetchFailedMessage).Write(w)
		return
	}

	filtered := core.ApplyFilters(all, ParseFilterCriteria(r.URL.Query()), nil)
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, core.ExportRows(filtered)); err != nil {
		logger.ErrorContext(r.Context(), "Workbook generation failed",
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
		InternalServerError("Export failed").Write(w)
		return
	}
	s.count(&s.appMetrics.exports, 1)

	if s.deps.Archiver != nil {
		key, err := s.deps.Archiver.Archive(r.Context(), buf.Bytes())
		if err != nil {
			logger.WarnContext(r.Context(), "Export archive failed",
				applog.FieldOperation, applog.OpArchive,
				applog.FieldError, err)
		} else {
			logger.InfoContext(r.Context(), "Export archived",
				applog.FieldOperation, applog.OpArchive,
				"key", key)
		}
	}

	applog.NewStructuredLogger(logger).LogExport(r.Context(), u.Email, len(filtered), "download")

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		browserSession(w, r)
		if _, ok := s.operator(r); ok {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		s.render(w, r, http.StatusOK, "login.html", loginPage{AllowRegister: s.opts.AllowSelfRegister})
	case http.MethodPost:
		s.signIn(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return
	}
	sid := browserSession(w, r)
	logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth)

	email := strings.ToLower(sanitizeInput(r.Form.Get(fieldEmail)))
	password := r.Form.Get("password")
	if email == "" || password == "" {
		ErrorResponse(http.StatusUnprocessableEntity, missingLoginMessage).
			Retarget("#login-messages").
			Write(w)
		return
	}

	u, err := auth.SignInOrRegister(r.Context(), s.deps.Auth, email, password, s.opts.AllowSelfRegister)
	if err != nil {
		logger.WarnContext(r.Context(), "Operator sign-in failed",
			applog.FieldOperation, applog.OpSignIn,
			applog.FieldEmail, email,
			applog.FieldError, err)
		// The provider's own text is shown on this form only.
		ErrorResponse(http.StatusUnauthorized, err.Error()).
			Retarget("#login-messages").
			Write(w)
		return
	}

	token, err := s.deps.Tokens.Issue(u)
	if err != nil {
		logger.ErrorContext(r.Context(), "Session token issue failed",
			applog.FieldOperation, applog.OpSignIn,
			applog.FieldError, err)
		InternalServerError("Login failed").Retarget("#login-messages").Write(w)
		return
	}
	setAdminCookie(w, r, token, s.deps.Tokens.TTL())
	s.deps.Notifier.Publish(auth.Status{SessionID: sid, SignedIn: true, Email: u.Email})
	s.count(&s.appMetrics.signIns, 1)

	logger.InfoContext(r.Context(), "Operator signed in",
		applog.FieldOperation, applog.OpSignIn,
		applog.FieldEmail, u.Email)

	if isHTMX(r) {
		NewHTMXResponse().Redirect("/admin").Write(w)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	sid := browserSession(w, r)
	u, _ := s.operator(r)
	clearAdminCookie(w, r)
	s.deps.Notifier.Publish(auth.Status{SessionID: sid, SignedIn: false})

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Operator signed out",
		applog.FieldComponent, applog.ComponentAuth,
		applog.FieldOperation, applog.OpSignOut,
		applog.FieldEmail, u.Email)

	if isHTMX(r) {
		NewHTMXResponse().
			TriggerSuccessNotification(loggedOutMessage).
			Trigger("admin:closed", map[string]string{"location": "/"}).
			NoSwap().
			Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
