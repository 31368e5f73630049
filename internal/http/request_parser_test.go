package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"intake/internal/core"
)

func TestParsePersonalDetails(t *testing.T) {
	form := url.Values{
		"first_name":  {"  Asha "},
		"middle_name": {"K"},
		"last_name":   {"Rao\x00"},
		"mobile_no":   {"9876543210"},
		"email":       {"asha@example.com"},
	}

	got := ParsePersonalDetails(form)
	want := core.PersonalDetails{
		FirstName:  "Asha",
		MiddleName: "K",
		LastName:   "Rao",
		MobileNo:   "9876543210",
		Email:      "asha@example.com",
	}
	if got != want {
		t.Errorf("ParsePersonalDetails() = %+v, want %+v", got, want)
	}

	form.Set("email", " asha@example.com\x00")
	if got := ParsePersonalDetails(form).Email; got != " asha@example.com" {
		t.Errorf("email = %q, want surrounding spaces kept and control characters dropped", got)
	}
}

func TestParseEntryDraft(t *testing.T) {
	tests := []struct {
		name      string
		form      url.Values
		wantType  string
		wantOther string
		wantDate  string
	}{
		{
			name:     "standard type drops free text",
			form:     url.Values{"deposit_type": {core.DepositFixed}, "other_deposit_type": {"Bonds"}, "deposit_date": {"2025-01-31"}},
			wantType: core.DepositFixed,
			wantDate: "2025-01-31",
		},
		{
			name:      "other keeps free text",
			form:      url.Values{"deposit_type": {core.DepositOther}, "other_deposit_type": {"Bonds"}},
			wantType:  core.DepositOther,
			wantOther: "Bonds",
		},
		{
			name:     "malformed date is dropped",
			form:     url.Values{"deposit_type": {core.DepositSIP}, "deposit_date": {"31/01/2025"}},
			wantType: core.DepositSIP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ParseEntryDraft(tt.form)
			if d.DepositType != tt.wantType {
				t.Errorf("DepositType = %q, want %q", d.DepositType, tt.wantType)
			}
			if d.OtherDepositType != tt.wantOther {
				t.Errorf("OtherDepositType = %q, want %q", d.OtherDepositType, tt.wantOther)
			}
			if d.DepositDate != tt.wantDate {
				t.Errorf("DepositDate = %q, want %q", d.DepositDate, tt.wantDate)
			}
		})
	}
}

func TestParseFilterCriteria(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		want   core.FilterCriteria
	}{
		{
			name:   "all values provided",
			values: url.Values{"q": {" rao "}, "from": {"2025-01-01"}, "to": {"2025-01-31"}},
			want:   core.FilterCriteria{Search: "rao", From: "2025-01-01", To: "2025-01-31"},
		},
		{
			name:   "invalid dates are ignored",
			values: url.Values{"q": {"rao"}, "from": {"yesterday"}, "to": {"2025-13-01"}},
			want:   core.FilterCriteria{Search: "rao"},
		},
		{
			name:   "empty",
			values: url.Values{},
			want:   core.FilterCriteria{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFilterCriteria(tt.values); got != tt.want {
				t.Errorf("ParseFilterCriteria() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFilterQueryRoundTrip(t *testing.T) {
	c := core.FilterCriteria{Search: "a&b", From: "2025-01-01"}

	q := FilterQuery(c)
	values, err := url.ParseQuery(q)
	if err != nil {
		t.Fatalf("ParseQuery(%q) error = %v", q, err)
	}
	if got := ParseFilterCriteria(values); got != c {
		t.Errorf("round trip = %+v, want %+v", got, c)
	}
	if FilterQuery(core.FilterCriteria{}) != "" {
		t.Error("empty criteria should encode to an empty query")
	}
}

func TestParseEventTime(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"client timestamp", strconv.FormatInt(now.Add(-250*time.Millisecond).UnixMilli(), 10), now.Add(-250 * time.Millisecond)},
		{"missing", "", now},
		{"garbage", "soon", now},
		{"implausibly old", strconv.FormatInt(now.Add(-2*time.Hour).UnixMilli(), 10), now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseEventTime(tt.raw, now); !got.Equal(tt.want) {
				t.Errorf("ParseEventTime(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseKeyEvent(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	body := `{"key": "Shift", "repeat": true, "at": ` + strconv.FormatInt(now.UnixMilli(), 10) + `}`
	req := httptest.NewRequest(http.MethodPost, "/ui/key", strings.NewReader(body))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	e := ParseKeyEvent(parser, now.Add(time.Minute))
	if e.Key != "Shift" || !e.Repeat || !e.At.Equal(now) {
		t.Errorf("ParseKeyEvent() = %+v", e)
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.5}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}

	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}

	if name := parser.Get("name"); name != "test" {
		t.Errorf("Get('name') = %q, want 'test'", name)
	}

	if amount := parser.Get("amount"); amount != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", amount)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&name=form+test&value=100"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}

	if id := parser.Get("id"); id != "456" {
		t.Errorf("Get('id') = %q, want '456'", id)
	}

	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		allowed []string
		wantErr bool
	}{
		{"POST allowed", http.MethodPost, []string{http.MethodPost}, false},
		{"DELETE allowed with multiple", http.MethodDelete, []string{http.MethodDelete, http.MethodPost}, false},
		{"GET not allowed", http.MethodGet, []string{http.MethodPost}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireMethod(req, tt.allowed...)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}

func TestRequirePOST(t *testing.T) {
	postReq := httptest.NewRequest(http.MethodPost, "/test", nil)
	if result := RequirePOST(postReq); result != nil {
		t.Error("RequirePOST should allow POST requests")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/test", nil)
	if result := RequirePOST(getReq); result == nil {
		t.Error("RequirePOST should reject GET requests")
	}
}

func TestRequireGET(t *testing.T) {
	tests := []struct {
		method  string
		wantErr bool
	}{
		{http.MethodGet, false},
		{http.MethodHead, false},
		{http.MethodPost, true},
		{http.MethodDelete, true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireGET(req)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}

func TestParseFormOrFail(t *testing.T) {
	// Valid form request
	body := "field=value"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	result := ParseFormOrFail(httptest.NewRecorder(), req)
	if result != nil {
		t.Error("Expected nil for valid form, got error response")
	}

	// Verify form was parsed
	if req.Form.Get("field") != "value" {
		t.Error("Form was not parsed correctly")
	}

	// Oversized body
	big := "field=" + strings.Repeat("x", maxBodyBytes+1)
	req = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	result = ParseFormOrFail(w, req)
	if result == nil {
		t.Fatal("Expected error response for oversized body")
	}
	result.Write(w)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
