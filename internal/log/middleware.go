package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ctxKey struct{}

// NewContext returns ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, or one over slog.Default tagged
// "unknown" outside a request.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// Middleware puts logger into every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// RequestIDMiddleware tags the context logger with the request id so every
// handler line can be joined to its trace line.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r))
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// StructuredLogger writes the fixed-shape lines other tools grep for.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogSubmission records the outcome of one batch submission. Failures are
// logged at error level with the cause.
func (sl *StructuredLogger) LogSubmission(ctx context.Context, sessionID string, entries int, state string, err error) {
	fields := NewFields().
		WithSession(sessionID, entries).
		WithOperation(OpSubmit).
		WithComponent(ComponentIntake).
		WithError(err)
	fields[FieldState] = state

	if err != nil {
		sl.logger.ErrorContext(ctx, "Submission failed", fields.ToSlice()...)
		return
	}
	sl.logger.InfoContext(ctx, "Submission completed", fields.ToSlice()...)
}

// LogExport records one workbook export by operator email ("cli" for the
// admin command).
func (sl *StructuredLogger) LogExport(ctx context.Context, email string, rows int, destination string) {
	fields := NewFields().
		WithOperation(OpExport).
		WithComponent(ComponentExport)
	fields[FieldEmail] = email
	fields[FieldRows] = rows
	fields[FieldDestination] = destination

	sl.logger.InfoContext(ctx, "Records exported", fields.ToSlice()...)
}
