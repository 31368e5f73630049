// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// It maps form fields onto the intake types and keeps the body parsing used
// by the gesture endpoints, which post JSON from fetch.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"intake/internal/core"
	"intake/internal/gesture"
)

// Form field names shared with the templates.
const (
	fieldToken       = "t"
	fieldHoneypot    = "fax_number"
	fieldCaptcha     = "captcha"
	fieldFirstName   = "first_name"
	fieldMiddleName  = "middle_name"
	fieldLastName    = "last_name"
	fieldMobile      = "mobile_no"
	fieldEmail       = "email"
	fieldDepositType = "deposit_type"
	fieldOtherType   = "other_deposit_type"
	fieldDepositDate = "deposit_date"
	fieldAccountNo   = "account_no"
	fieldAmount      = "amount"
	fieldReturned    = "returned_amount"
	fieldEntryID     = "id"
	fieldSearch      = "q"
	fieldFrom        = "from"
	fieldTo          = "to"
	fieldAction      = "action"
)

// maxBodyBytes bounds every form and JSON body.
const maxBodyBytes = 64 << 10

// ParsePersonalDetails reads the personal section of the form. Values are
// sanitized again by the session.
func ParsePersonalDetails(form url.Values) core.PersonalDetails {
	return core.PersonalDetails{
		FirstName:  sanitizeInput(form.Get(fieldFirstName)),
		MiddleName: sanitizeInput(form.Get(fieldMiddleName)),
		LastName:   sanitizeInput(form.Get(fieldLastName)),
		MobileNo:   sanitizeInput(form.Get(fieldMobile)),
		// Validated as typed: surrounding spaces make the email invalid.
		Email: stripControl(form.Get(fieldEmail)),
	}
}

// ParseEntryDraft reads the entry currently being edited. The free-text
// type is only kept for "Other".
func ParseEntryDraft(form url.Values) core.EntryDraft {
	d := core.EntryDraft{
		DepositType:    sanitizeInput(form.Get(fieldDepositType)),
		DepositDate:    strings.TrimSpace(form.Get(fieldDepositDate)),
		AccountNo:      sanitizeInput(form.Get(fieldAccountNo)),
		Amount:         sanitizeInput(form.Get(fieldAmount)),
		ReturnedAmount: sanitizeInput(form.Get(fieldReturned)),
	}
	if d.DepositType == core.DepositOther {
		d.OtherDepositType = sanitizeInput(form.Get(fieldOtherType))
	}
	if d.DepositDate != "" {
		if _, err := time.Parse(core.DateLayout, d.DepositDate); err != nil {
			d.DepositDate = ""
		}
	}
	return d
}

// ParseFilterCriteria reads committed Record Browser filters from a form or
// query string. Malformed dates are dropped.
func ParseFilterCriteria(values url.Values) core.FilterCriteria {
	c := core.FilterCriteria{
		Search: sanitizeInput(values.Get(fieldSearch)),
		From:   strings.TrimSpace(values.Get(fieldFrom)),
		To:     strings.TrimSpace(values.Get(fieldTo)),
	}
	if _, err := time.Parse(core.DateLayout, c.From); err != nil {
		c.From = ""
	}
	if _, err := time.Parse(core.DateLayout, c.To); err != nil {
		c.To = ""
	}
	return c
}

// FilterQuery encodes committed criteria for the export link.
func FilterQuery(c core.FilterCriteria) string {
	v := url.Values{}
	if c.Search != "" {
		v.Set(fieldSearch, c.Search)
	}
	if c.From != "" {
		v.Set(fieldFrom, c.From)
	}
	if c.To != "" {
		v.Set(fieldTo, c.To)
	}
	return v.Encode()
}

// ParseEventTime reads a client timestamp in Unix milliseconds, falling back
// to now when it is missing or implausible.
func ParseEventTime(raw string, now time.Time) time.Time {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || ms <= 0 {
		return now
	}
	at := time.UnixMilli(ms)
	if d := at.Sub(now); d > time.Hour || d < -time.Hour {
		return now
	}
	return at
}

// ParseKeyEvent builds a gesture key event from a parsed body.
func ParseKeyEvent(p *RequestBodyParser, now time.Time) gesture.KeyEvent {
	repeat, _ := strconv.ParseBool(p.Get("repeat"))
	return gesture.KeyEvent{
		Key:    p.Get("key"),
		Repeat: repeat,
		At:     ParseEventTime(p.Get("at"), now),
	}
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' || p.body[0] == '[' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	// Fall back to form parsing
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireGET is a convenience function for read-only handlers.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(w http.ResponseWriter, r *http.Request) *HTMXResponseBuilder {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
