package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"intake/internal/records"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": s.opts.Now().Format(time.RFC3339),
		"uptime":    s.opts.Now().Sub(s.appMetrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	// Stores that cannot ping are assumed reachable
	if p, ok := s.deps.Records.(records.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "ok"
	}

	checks["cache"] = map[string]interface{}{
		"form_sessions": s.deps.Sessions.Size(),
		"status":        "ok",
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": s.opts.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	traceMetrics := s.tracer.GetMetrics()
	uptime := s.opts.Now().Sub(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s counter\n", name)
		fmt.Fprintf(w, "%s %d\n\n", name, v)
	}
	gauge := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s gauge\n", name)
		fmt.Fprintf(w, "%s %d\n\n", name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	counter("intake_submissions_total", "Total submit attempts", atomic.LoadInt64(&s.appMetrics.submissions))
	counter("intake_records_stored_total", "Total deposit records written", atomic.LoadInt64(&s.appMetrics.recordsStored))
	counter("intake_failed_batches_total", "Total submissions that failed to persist", atomic.LoadInt64(&s.appMetrics.failedBatches))
	counter("intake_captcha_failures_total", "Total wrong CAPTCHA guesses", atomic.LoadInt64(&s.appMetrics.captchaFailures))
	counter("intake_honeypot_hits_total", "Total submissions with the hidden field filled", securityMetrics.HoneypotHits)
	counter("admin_exports_total", "Total xlsx exports", atomic.LoadInt64(&s.appMetrics.exports))
	counter("admin_sign_ins_total", "Total operator sign-ins", atomic.LoadInt64(&s.appMetrics.signIns))
	counter("admin_triggers_total", "Total completed hidden triggers", atomic.LoadInt64(&s.appMetrics.gesturesOpened))
	counter("rate_limit_hits_total", "Total rate limit hits", rateLimitMetrics.TotalHits)
	counter("suspicious_requests_total", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	gauge("form_sessions", "Live form sessions", int64(s.deps.Sessions.Size()))
	gauge("active_rate_limit_clients", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	gauge("uptime_seconds", "Application uptime in seconds", int64(uptime.Seconds()))
}
