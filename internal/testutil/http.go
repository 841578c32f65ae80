package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/coophub/internal/app/system/auth"
	"github.com/dalemusser/coophub/internal/app/system/credstore"
	"github.com/dalemusser/coophub/internal/app/system/notify"
	"github.com/dalemusser/coophub/internal/app/system/session"
	"go.uber.org/zap"
)

// Session is a restored session.Manager backed by an in-memory token and a
// recorder for its toasts.
type Session struct {
	*session.Manager
	Creds  *credstore.MemoryStore
	Toasts *notify.Recorder
}

// AnonymousSession returns a restored, signed-out session against api.
func AnonymousSession(t *testing.T, api *FakeAPI) *Session {
	t.Helper()
	s := &Session{Creds: credstore.NewMemory(""), Toasts: &notify.Recorder{}}
	s.Manager = session.New(api.Client(t), s.Creds, s.Toasts, zap.NewNop())
	s.Restore(context.Background())
	return s
}

// SessionFor returns a session restored from a fresh token for email, which
// must already exist on api.
func SessionFor(t *testing.T, api *FakeAPI, email string) *Session {
	t.Helper()
	u, ok := api.User(email)
	if !ok {
		t.Fatalf("SessionFor: no fake user %q", email)
	}
	s := &Session{Creds: credstore.NewMemory(api.TokenFor(u.ID, time30m)), Toasts: &notify.Recorder{}}
	s.Manager = session.New(api.Client(t), s.Creds, s.Toasts, zap.NewNop())
	if snap := s.Restore(context.Background()); !snap.IsAuthenticated() {
		t.Fatalf("SessionFor(%s): restore ended %v", email, snap.State)
	}
	return s
}

// WithSession adds the session manager and its toast recorder to the
// request context, bypassing the cookie middleware.
func WithSession(r *http.Request, s *Session) *http.Request {
	ctx := auth.WithNotifier(auth.WithManager(r.Context(), s.Manager), s.Toasts)
	return r.WithContext(ctx)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewFormRequest creates a POST request with an urlencoded body.
func NewFormRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertRedirect checks for a redirect to the expected location.
func (r *ResponseRecorder) AssertRedirect(t interface{ Errorf(string, ...any) }, expectedLocation string) {
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound && r.Code != http.StatusMovedPermanently {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	location := r.Header().Get("Location")
	if location != expectedLocation {
		t.Errorf("redirect location: got %q, want %q", location, expectedLocation)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// Serve runs h, swallowing the panic template rendering may raise when no
// engine has been booted. Assertions should target redirects, headers and
// side effects rather than rendered markup.
func Serve(h http.HandlerFunc, w http.ResponseWriter, r *http.Request) {
	defer func() { _ = recover() }()
	h(w, r)
}
