package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}).WithComponent(ComponentIntake)

	logger.Info("entry added", FieldSessionID, "s1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "entry added", line["msg"])
	assert.Equal(t, ComponentIntake, line[FieldComponent])
	assert.Equal(t, "s1", line[FieldSessionID])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestMiddlewareAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf})

	var got *Logger
	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req_abc" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
			got.Info("inside")
		})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, got)
	assert.Contains(t, buf.String(), "request_id=req_abc")
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}

func TestLogSubmission(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))

	sl.LogSubmission(context.Background(), "s1", 2, "succeeded", nil)
	sl.LogSubmission(context.Background(), "s1", 2, "failed", errors.New("disk full"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Submission completed")
	assert.Contains(t, lines[0], "entry_count=2")
	assert.Contains(t, lines[1], "level=ERROR")
	assert.Contains(t, lines[1], `error="disk full"`)
}

func TestLogExport(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))

	sl.LogExport(context.Background(), "ops@example.com", 3, "download")

	out := buf.String()
	assert.Contains(t, out, "Records exported")
	assert.Contains(t, out, "rows=3")
	assert.Contains(t, out, "destination=download")
	assert.Contains(t, out, "component=export")
}

func TestNewContextRoundTrip(t *testing.T) {
	l := New(Config{Output: &bytes.Buffer{}}).WithComponent(ComponentIntake)
	got := FromContext(NewContext(context.Background(), l))
	assert.Same(t, l, got)
}
