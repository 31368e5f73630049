package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"intake/internal/auth"
	"intake/internal/cache"
	"intake/internal/captcha"
	"intake/internal/export"
	"intake/internal/intake"
	applog "intake/internal/log"
	"intake/internal/middleware/ratelimit"
	"intake/internal/middleware/security"
	"intake/internal/middleware/trace"
	"intake/internal/records"
	appweb "intake/web"
)

// Dependencies are the collaborators the handlers call.
type Dependencies struct {
	Records  records.Store
	Sessions *intake.Store
	Pipeline *intake.Pipeline
	Captcha  *captcha.Renderer
	Auth     auth.Provider
	Tokens   *auth.Tokens
	Notifier *auth.Notifier
	// Archiver is optional; exported workbooks are copied to it.
	Archiver export.Archiver
	Caches   *cache.Manager
	Logger   *applog.Logger
}

// Options tune the server.
type Options struct {
	Addr                string
	AllowSelfRegister   bool
	SubmitRatePerMinute int
	BrowserSessionMax   int
	BrowserSessionTTL   time.Duration
	// FetchTimeout bounds Record Browser reads.
	FetchTimeout time.Duration
	// Now replaces time.Now, for tests.
	Now func() time.Time
}

func (o *Options) defaults() {
	if o.SubmitRatePerMinute <= 0 {
		o.SubmitRatePerMinute = 30
	}
	if o.BrowserSessionMax <= 0 {
		o.BrowserSessionMax = 10000
	}
	if o.BrowserSessionTTL <= 0 {
		o.BrowserSessionTTL = 2 * time.Hour
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 15 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// appMetrics counts domain events for /metrics.
type appMetrics struct {
	uptime          time.Time
	submissions     int64
	recordsStored   int64
	failedBatches   int64
	exports         int64
	signIns         int64
	gesturesOpened  int64
	captchaFailures int64
}

// Server is the intake portal's HTTP server.
type Server struct {
	http.Server

	templates *template.Template
	deps      Dependencies
	opts      Options
	logger    *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	presence *Presence
	gestures *gestures

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

// NewServer parses the embedded templates, wires the middleware chain and
// registers every route.
func NewServer(opts Options, deps Dependencies) (*Server, error) {
	opts.defaults()
	if deps.Logger == nil {
		return nil, errors.New("http server requires a logger")
	}
	if deps.Records == nil || deps.Sessions == nil || deps.Pipeline == nil {
		return nil, errors.New("http server requires records, sessions and pipeline")
	}
	if deps.Captcha == nil || deps.Auth == nil || deps.Tokens == nil || deps.Notifier == nil {
		return nil, errors.New("http server requires captcha renderer and auth collaborators")
	}
	if deps.Caches == nil {
		deps.Caches = cache.NewManager(deps.Logger)
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	logger := deps.Logger.WithComponent(applog.ComponentHTTP)
	clock := cache.WithClock(opts.Now)

	s := &Server{
		templates: t,
		deps:      deps,
		opts:      opts,
		logger:    logger,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.SubmitRatePerMinute,
			Now:               opts.Now,
		}),
		detector:   security.NewDetector(),
		presence:   NewPresence(deps.Notifier, opts.BrowserSessionMax, opts.BrowserSessionTTL, clock),
		gestures:   newGestures(opts.BrowserSessionMax, opts.BrowserSessionTTL, clock),
		appMetrics: &appMetrics{uptime: opts.Now()},
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, deps.Logger)

	deps.Caches.Register("form_sessions", deps.Sessions.Cleaner())
	deps.Caches.Register("presence", s.presence.Cleaner())
	deps.Caches.Register("gestures", s.gestures.states)
	deps.Caches.Register("rate_limit", s.limiter.Cleaner())

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	// Intake form
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/captcha.png", s.handleCaptchaImage)
	mux.HandleFunc("/form/captcha/refresh", s.handleCaptchaRefresh)
	mux.HandleFunc("/form/unlock", s.handleUnlock)
	mux.HandleFunc("/form/date-check", s.handleDateCheck)
	mux.HandleFunc("/form/entries", s.handleAddEntry)
	mux.HandleFunc("/form/entries/remove", s.handleRemoveEntry)
	mux.HandleFunc("/form/submit", s.handleSubmit)
	mux.HandleFunc("/form/reset", s.handleReset)

	// Hidden triggers
	mux.HandleFunc("/ui/key", s.handleKey)
	mux.HandleFunc("/ui/tap", s.handleTap)

	// Record Browser
	mux.HandleFunc("/admin", s.handleAdmin)
	mux.HandleFunc("/admin/login", s.handleLogin)
	mux.HandleFunc("/admin/logout", s.handleLogout)
	mux.HandleFunc("/admin/records", s.handleFilterRecords)
	mux.HandleFunc("/admin/export.xlsx", s.handleExport)

	// Probes
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, rateLimited, s.onRateLimit)

	var handler http.Handler = mux
	handler = limited(handler)
	handler = headers.Middleware(handler)
	handler = s.inspect(handler)
	handler = applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = applog.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if opts.AllowSelfRegister {
		logger.Warn("Admin self-registration is enabled: any unknown email/password pair becomes an operator account",
			applog.FieldOperation, applog.OpStartup)
	}

	return s, nil
}

// rateLimited selects the requests that count against the per-IP budget.
// Gesture events are excluded; they arrive on every qualifying keystroke.
func rateLimited(r *http.Request) bool {
	return r.Method == http.MethodPost && !strings.HasPrefix(r.URL.Path, "/ui/")
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again later.").
		Header("Retry-After", "60").
		Retarget("#form-messages").
		Write(w)
}

// inspect logs scanner-looking traffic. Requests are never blocked here.
func (s *Server) inspect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason, suspicious := s.detector.Inspect(r); suspicious {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldComponent, applog.ComponentSecurity,
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				"reason", reason)
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and its subscriptions.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.presence.Close()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// render executes a named template into w, logging failures.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf strings.Builder
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldComponent, applog.ComponentTemplate,
			applog.FieldError, err,
			"template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

// partial executes a named template into an HTMX builder.
func (s *Server) partial(r *http.Request, name string, data any) (*HTMXResponseBuilder, error) {
	var buf strings.Builder
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldComponent, applog.ComponentTemplate,
			applog.FieldError, err,
			"template", name)
		return nil, err
	}
	return NewHTMXResponse().BodyHTML(buf.String()), nil
}

func (s *Server) count(counter *int64, n int64) {
	atomic.AddInt64(counter, n)
}
