package login_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	uierrors "github.com/dalemusser/coophub/internal/app/features/errors"
	"github.com/dalemusser/coophub/internal/app/features/login"
	"github.com/dalemusser/coophub/internal/app/system/notify"
	"github.com/dalemusser/coophub/internal/app/system/ratelimit"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/dalemusser/coophub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*login.Handler, *testutil.Fixtures) {
	t.Helper()
	logger := zap.NewNop()
	h := login.NewHandler(uierrors.NewErrorLogger(logger), ratelimit.NewAuthLimiter(), logger)
	return h, testutil.NewFixtures(t)
}

func TestHandleLoginPost_Success(t *testing.T) {
	handler, fx := newTestHandler(t)
	fx.API.AddUser("off@example.rw", "secret", models.RoleDistrictOfficial, "Gasabo")
	sess := fx.Anonymous()

	req := testutil.NewFormRequest("/login", url.Values{
		"email":    {"off@example.rw"},
		"password": {"secret"},
	})
	rec := testutil.NewRecorder()
	handler.HandleLoginPost(rec, testutil.WithSession(req, sess))

	rec.AssertRedirect(t, "/dashboard")
	if !sess.Snapshot().IsAuthenticated() {
		t.Fatal("session should be authenticated")
	}
	if tok, _ := sess.Creds.Get(); tok == "" {
		t.Fatal("token should be persisted")
	}
	if last, _ := sess.Toasts.Last(); last.Message != "Login successful!" {
		t.Fatalf("toast = %q", last.Message)
	}
}

func TestHandleLoginPost_HonoursReturn(t *testing.T) {
	handler, fx := newTestHandler(t)
	fx.API.AddUser("lead@example.rw", "pw", models.RoleCooperativeLeader, "")
	sess := fx.Anonymous()

	req := testutil.NewFormRequest("/login", url.Values{
		"email":    {"lead@example.rw"},
		"password": {"pw"},
		"return":   {"/cooperatives"},
	})
	rec := testutil.NewRecorder()
	handler.HandleLoginPost(rec, testutil.WithSession(req, sess))

	rec.AssertRedirect(t, "/cooperatives")
}

func TestHandleLoginPost_WrongPasswordIsNoop(t *testing.T) {
	handler, fx := newTestHandler(t)
	fx.API.AddUser("a@example.rw", "right", models.RoleMember, "")
	sess := fx.Anonymous()

	req := testutil.NewFormRequest("/login", url.Values{
		"email":    {"a@example.rw"},
		"password": {"wrong"},
	})
	rec := testutil.NewRecorder()
	testutil.Serve(handler.HandleLoginPost, rec, testutil.WithSession(req, sess))

	if rec.Code == http.StatusSeeOther {
		t.Fatal("failed login must not redirect")
	}
	if sess.Snapshot().IsAuthenticated() {
		t.Fatal("session should stay anonymous")
	}
	last, _ := sess.Toasts.Last()
	if last.Kind != notify.Error || last.Message != "Incorrect email or password" {
		t.Fatalf("toast = %+v", last)
	}
}

func TestHandleLoginPost_InvalidInputSkipsAPI(t *testing.T) {
	handler, fx := newTestHandler(t)
	sess := fx.Anonymous()

	req := testutil.NewFormRequest("/login", url.Values{"email": {"not-an-email"}})
	rec := testutil.NewRecorder()
	testutil.Serve(handler.HandleLoginPost, rec, testutil.WithSession(req, sess))

	if n := fx.API.Calls("POST /api/auth/login"); n != 0 {
		t.Fatalf("API called %d times for invalid input", n)
	}
}

func TestHandleLoginPost_RateLimited(t *testing.T) {
	logger := zap.NewNop()
	handler := login.NewHandler(uierrors.NewErrorLogger(logger),
		ratelimit.NewAuthLimiterWithConfig(100, time.Minute, 1, time.Minute), logger)
	fx := testutil.NewFixtures(t)
	fx.API.AddUser("a@example.rw", "right", models.RoleMember, "")

	for i := 0; i < 2; i++ {
		sess := fx.Anonymous()
		req := testutil.NewFormRequest("/login", url.Values{
			"email":    {"a@example.rw"},
			"password": {"wrong"},
		})
		testutil.Serve(handler.HandleLoginPost, testutil.NewRecorder(), testutil.WithSession(req, sess))
	}
	if n := fx.API.Calls("POST /api/auth/login"); n != 1 {
		t.Fatalf("API called %d times, want 1", n)
	}
}
