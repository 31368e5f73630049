package http

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"intake/internal/captcha"
	"intake/internal/core"
)

// Cookie names.
const (
	browserCookie = "sid"
	adminCookie   = "admin_session"
)

// displayDateLayout is how the Record Browser shows creation dates.
const displayDateLayout = "02-01-2006"

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	return stripControl(strings.TrimSpace(s))
}

// stripControl drops control characters other than tab and newlines and
// leaves surrounding whitespace alone.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// userMessage maps a validation error to the text shown in the form.
func userMessage(err error) string {
	if errors.Is(err, captcha.ErrMismatch) {
		return captcha.Message
	}
	if msg := core.Message(err); msg != "" {
		return msg
	}
	return "Invalid request"
}

// browserSession returns the sid cookie value, issuing a new one when absent.
func browserSession(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(browserCookie); err == nil && c.Value != "" {
		return c.Value
	}
	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     browserCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
	})
	return sid
}

func setAdminCookie(w http.ResponseWriter, r *http.Request, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookie,
		Value:    token,
		Path:     "/admin",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
	})
}

func clearAdminCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookie,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// templateFuncs are available to every template.
var templateFuncs = template.FuncMap{
	"rupees": func(d decimal.Decimal) string {
		return core.FormatRupees(d)
	},
	"rupeesOf": func(v *float64) string {
		return core.FormatRupeesFloat(v)
	},
	"amount": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return core.FormatRupees(core.ParseAmount(s))
	},
	"displayDate": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Local().Format(displayDateLayout)
	},
	"orDash": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return s
	},
}
