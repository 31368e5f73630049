package http

import (
	"net/http"

	applog "intake/internal/log"
)

// gestureResult tells the page whether a hidden trigger completed and
// where to go when it did.
type gestureResult struct {
	Fired    bool   `json:"fired"`
	Location string `json:"location,omitempty"`
}

// adminLocation picks the Record Browser for signed-in browser sessions and
// the login form otherwise.
func (s *Server) adminLocation(sid string) string {
	if s.presence.SignedIn(sid) {
		return "/admin"
	}
	return "/admin/login"
}

func (s *Server) gestureBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return nil, false
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return nil, false
	}
	return p, true
}

func (s *Server) gestureFired(w http.ResponseWriter, r *http.Request, sid, trigger string) {
	loc := s.adminLocation(sid)
	s.count(&s.appMetrics.gesturesOpened, 1)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Admin trigger completed",
		applog.FieldTrigger, trigger,
		"location", loc)
	NewHTMXResponse().BodyJSON(gestureResult{Fired: true, Location: loc}).Write(w)
}

// handleKey feeds one keydown to the Shift trigger.
func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	p, ok := s.gestureBody(w, r)
	if !ok {
		return
	}
	sid := browserSession(w, r)
	if s.gestures.key(sid, ParseKeyEvent(p, s.opts.Now())) {
		s.gestureFired(w, r, sid, "shift")
		return
	}
	NewHTMXResponse().BodyJSON(gestureResult{}).Write(w)
}

// handleTap feeds one header click to the tap trigger.
func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	p, ok := s.gestureBody(w, r)
	if !ok {
		return
	}
	sid := browserSession(w, r)
	if s.gestures.tap(sid, ParseEventTime(p.Get("at"), s.opts.Now())) {
		s.gestureFired(w, r, sid, "tap")
		return
	}
	NewHTMXResponse().BodyJSON(gestureResult{}).Write(w)
}
