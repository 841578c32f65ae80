package credstore_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dalemusser/coophub/internal/app/system/credstore"
	"go.uber.org/zap"
)

func newBackend(t *testing.T) *credstore.CookieBackend {
	t.Helper()
	b, err := credstore.NewCookieBackend(credstore.CookieConfig{
		Secret: "test-session-key-must-be-32-chars-long",
		Name:   "test-session",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCookieBackend: %v", err)
	}
	return b
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := credstore.NewMemory("")
	if _, ok := s.Get(); ok {
		t.Fatal("expected empty store")
	}
	if err := s.Set("abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if tok, ok := s.Get(); !ok || tok != "abc" {
		t.Errorf("Get = %q,%v; want abc,true", tok, ok)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := s.Get(); ok {
		t.Error("expected token cleared")
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	s := credstore.NewFile(path)

	if _, ok := s.Get(); ok {
		t.Fatal("expected no token before Set")
	}
	if err := s.Set("tok-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}
	if tok, ok := s.Get(); !ok || tok != "tok-1" {
		t.Errorf("Get = %q,%v; want tok-1,true", tok, ok)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear should be a no-op, got %v", err)
	}
	if _, ok := s.Get(); ok {
		t.Error("expected token cleared")
	}
}

func TestDefaultTokenPath_EnvOverride(t *testing.T) {
	t.Setenv("COOPHUB_TOKEN_FILE", "/tmp/custom-token")
	if got := credstore.DefaultTokenPath(); got != "/tmp/custom-token" {
		t.Errorf("DefaultTokenPath = %q", got)
	}
}

func TestDefaultTokenPath_XDG(t *testing.T) {
	t.Setenv("COOPHUB_TOKEN_FILE", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := credstore.DefaultTokenPath(); got != filepath.Join("/xdg", "coophub", "token") {
		t.Errorf("DefaultTokenPath = %q", got)
	}
}

func TestNewCookieBackend_RejectsEmptySecret(t *testing.T) {
	_, err := credstore.NewCookieBackend(credstore.CookieConfig{Name: "x"}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestCookieStore_PersistsAcrossRequests(t *testing.T) {
	b := newBackend(t)

	req1 := httptest.NewRequest(http.MethodGet, "/", nil)
	rec1 := httptest.NewRecorder()
	if err := b.Store(rec1, req1).Set("bearer-123"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	cookies := rec1.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a Set-Cookie header")
	}
	for _, c := range cookies {
		if c.Name == "test-session" && !c.HttpOnly {
			t.Error("expected HttpOnly cookie")
		}
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req2.AddCookie(c)
	}
	rec2 := httptest.NewRecorder()
	store := b.Store(rec2, req2)
	tok, ok := store.Get()
	if !ok || tok != "bearer-123" {
		t.Fatalf("Get = %q,%v; want bearer-123,true", tok, ok)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec2.Result().Cookies() {
		req3.AddCookie(c)
	}
	if _, ok := b.Store(httptest.NewRecorder(), req3).Get(); ok {
		t.Error("expected token cleared on next request")
	}
}

func TestCookieStore_TamperedCookieReadsAsAbsent(t *testing.T) {
	b := newBackend(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "test-session", Value: "not-a-valid-cookie"})
	if _, ok := b.Store(httptest.NewRecorder(), req).Get(); ok {
		t.Error("expected tampered cookie to read as absent")
	}
}
