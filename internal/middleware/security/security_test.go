package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "direct", remoteAddr: "203.0.113.7:5555", want: "203.0.113.7"},
		{name: "untrusted proxy ignored", remoteAddr: "203.0.113.7:5555", headers: map[string]string{"X-Forwarded-For": "1.1.1.1"}, want: "203.0.113.7"},
		{name: "trusted proxy xff", remoteAddr: "10.0.0.2:80", headers: map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.1"}, want: "198.51.100.4"},
		{name: "trusted proxy real ip", remoteAddr: "127.0.0.1:80", headers: map[string]string{"X-Real-IP": "198.51.100.9"}, want: "198.51.100.9"},
		{name: "invalid forwarded value", remoteAddr: "192.168.1.1:80", headers: map[string]string{"X-Forwarded-For": "garbage"}, want: "192.168.1.1"},
		{name: "no port", remoteAddr: "198.51.100.1", want: "198.51.100.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	d := NewDetector()

	clean := httptest.NewRequest(http.MethodPost, "/form/unlock", nil)
	clean.Header.Set("User-Agent", "Mozilla/5.0")
	if reason, bad := d.Inspect(clean); bad {
		t.Fatalf("clean request flagged: %s", reason)
	}

	scan := httptest.NewRequest(http.MethodGet, "/.env", nil)
	if _, bad := d.Inspect(scan); !bad {
		t.Fatal("expected .env scan to be flagged")
	}

	scanner := httptest.NewRequest(http.MethodGet, "/", nil)
	scanner.Header.Set("User-Agent", "sqlmap/1.7")
	if reason, bad := d.Inspect(scanner); !bad || reason != "user agent sqlmap" {
		t.Fatalf("scanner: reason=%q flagged=%v", reason, bad)
	}

	d.RecordHoneypot()
	m := d.GetMetrics()
	if m.SuspiciousRequests != 2 || m.HoneypotHits != 1 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must only be sent over TLS")
	}

	rec = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.TLS = &tls.ConnectionState{}
	h.ServeHTTP(rec, r)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}

	static := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(
		StaticAssetMiddleware(3600)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})),
	)
	rec = httptest.NewRecorder()
	static.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("static Cache-Control = %q", got)
	}
}
