package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/coophub/internal/app/system/auth"
	"github.com/dalemusser/coophub/internal/app/system/credstore"
	"github.com/dalemusser/coophub/internal/app/system/guard"
	"github.com/dalemusser/coophub/internal/app/system/notify"
	"github.com/dalemusser/coophub/internal/app/system/session"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/dalemusser/coophub/internal/testutil"
	"go.uber.org/zap"
)

type harness struct {
	api *testutil.FakeAPI
	be  *credstore.CookieBackend
	sm  *auth.SessionManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	be, err := credstore.NewCookieBackend(credstore.CookieConfig{
		Secret: "test-session-key-must-be-32-chars-long",
		Name:   "test-session",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCookieBackend: %v", err)
	}
	sm, err := auth.NewSessionManager(be, api.Client(t), guard.Default(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return &harness{api: api, be: be, sm: sm}
}

// cookieFor returns a session cookie holding token.
func (h *harness) cookieFor(t *testing.T, token string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	if err := h.be.Store(rec, req).Set(token); err != nil {
		t.Fatalf("Set: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no cookie written")
	}
	return cookies[0]
}

func (h *harness) chain(final http.Handler) http.Handler {
	return h.sm.LoadSession(h.sm.Guard(final))
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("content"))
})

func TestGuard_AnonymousPrivate_RedirectsToLoginWithReturn(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest("GET", "/cooperatives?status=pending", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.chain(ok).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/login?return=") || !strings.Contains(loc, "%2Fcooperatives") {
		t.Fatalf("Location = %q", loc)
	}
}

func TestGuard_AnonymousPrivate_HTMX(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.chain(ok).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("HX-Redirect"); !strings.HasPrefix(got, "/login?return=") {
		t.Fatalf("HX-Redirect = %q", got)
	}
}

func TestGuard_AnonymousPrivate_APIGets401(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.chain(ok).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGuard_AnonymousPublic_Renders(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest("GET", "/login", nil)
	rec := httptest.NewRecorder()
	h.chain(ok).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestLoadSession_RestoresFromCookie(t *testing.T) {
	h := newHarness(t)
	u := h.api.AddUser("off@example.rw", "pw", models.RoleDistrictOfficial, "Gasabo")

	var seen *models.User
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.CurrentUser(r)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/cooperatives", nil)
	req.AddCookie(h.cookieFor(t, h.api.TokenFor(u.ID, time.Hour)))
	rec := httptest.NewRecorder()
	h.chain(final).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen == nil || seen.ID != u.ID {
		t.Fatalf("user in context = %+v, want %s", seen, u.ID)
	}
}

func TestLoadSession_SignedInVisitingLoginGoesToDashboard(t *testing.T) {
	h := newHarness(t)
	u := h.api.AddUser("a@example.rw", "pw", models.RoleMember, "")

	req := httptest.NewRequest("GET", "/login", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(h.cookieFor(t, h.api.TokenFor(u.ID, time.Hour)))
	rec := httptest.NewRecorder()
	h.chain(ok).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("got %d %q, want 303 /dashboard", rec.Code, rec.Header().Get("Location"))
	}
}

func TestLoadSession_RoleNotAllowedGoesToDashboard(t *testing.T) {
	h := newHarness(t)
	u := h.api.AddUser("a@example.rw", "pw", models.RoleMember, "")

	req := httptest.NewRequest("GET", "/members", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(h.cookieFor(t, h.api.TokenFor(u.ID, time.Hour)))
	rec := httptest.NewRecorder()
	h.chain(ok).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("got %d %q, want 303 /dashboard", rec.Code, rec.Header().Get("Location"))
	}
}

func TestLoadSession_RejectedTokenClearsCookieAndRedirects(t *testing.T) {
	h := newHarness(t)
	u := h.api.AddUser("a@example.rw", "pw", models.RoleMember, "")
	h.api.Fail("GET /api/auth/me", http.StatusUnauthorized, "Could not validate credentials")

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(h.cookieFor(t, h.api.TokenFor(u.ID, time.Hour)))
	rec := httptest.NewRecorder()
	h.chain(ok).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}

	// The rewritten cookie must no longer carry a token.
	next := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	if _, found := h.be.Store(httptest.NewRecorder(), next).Get(); found {
		t.Fatal("token survived a failed restore")
	}
}

func TestGuard_UnknownPathUsesNotFound(t *testing.T) {
	h := newHarness(t)
	h.sm.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest("GET", "/nowhere", nil)
	rec := httptest.NewRecorder()
	h.chain(ok).ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want custom not-found", rec.Code)
	}
}

func TestGuard_RootRedirects(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.chain(ok).ServeHTTP(rec, req)

	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login") {
		t.Fatalf("Location = %q, want /login", loc)
	}
}

func TestRequireAction(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		role   models.Role
		action string
		want   int
	}{
		{models.RoleDistrictOfficial, "approve", http.StatusOK},
		{models.RoleCooperativeLeader, "approve", http.StatusSeeOther},
		{models.RoleCooperativeLeader, "create", http.StatusOK},
		{models.RoleMember, "create", http.StatusSeeOther},
	}
	for _, tc := range tests {
		t.Run(string(tc.role)+"/"+tc.action, func(t *testing.T) {
			m := session.New(h.api.Client(t), credstore.NewMemory(""), notify.Discard, zap.NewNop())
			email := string(tc.role) + tc.action + "@example.rw"
			h.api.AddUser(email, "pw", tc.role, "")
			m.Restore(context.Background())
			if err := m.Login(context.Background(), email, "pw"); err != nil {
				t.Fatalf("Login: %v", err)
			}

			req := httptest.NewRequest("POST", "/cooperatives/x/"+tc.action, nil)
			req.Header.Set("Accept", "text/html")
			req = req.WithContext(auth.WithManager(req.Context(), m))
			rec := httptest.NewRecorder()
			h.sm.RequireAction("cooperatives", tc.action)(ok).ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestCurrentUser_NoManagerIsAnonymous(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := auth.CurrentUser(req); ok {
		t.Fatal("expected no user")
	}
	if auth.Snapshot(req).State != session.Anonymous {
		t.Fatal("expected anonymous snapshot")
	}
}
