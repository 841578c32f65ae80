package register_test

import (
	"net/url"
	"testing"

	uierrors "github.com/dalemusser/coophub/internal/app/features/errors"
	"github.com/dalemusser/coophub/internal/app/features/register"
	"github.com/dalemusser/coophub/internal/app/system/notify"
	"github.com/dalemusser/coophub/internal/app/system/ratelimit"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/dalemusser/coophub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*register.Handler, *testutil.Fixtures) {
	t.Helper()
	logger := zap.NewNop()
	h := register.NewHandler(uierrors.NewErrorLogger(logger), ratelimit.NewAuthLimiter(), logger)
	return h, testutil.NewFixtures(t)
}

func validForm() url.Values {
	return url.Values{
		"full_name":        {"Jeanne Uwase"},
		"email":            {"jeanne@example.rw"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
		"role":             {"district_official"},
		"district":         {"Gasabo"},
		"phone":            {"+250788000000"},
	}
}

func TestHandleRegisterPost_Success(t *testing.T) {
	handler, fx := newTestHandler(t)
	sess := fx.Anonymous()

	rec := testutil.NewRecorder()
	handler.HandleRegisterPost(rec, testutil.WithSession(testutil.NewFormRequest("/register", validForm()), sess))

	rec.AssertRedirect(t, "/dashboard")
	snap := sess.Snapshot()
	if !snap.IsAuthenticated() {
		t.Fatal("session should be authenticated after registering")
	}
	if snap.Role() != models.RoleDistrictOfficial || snap.User.DistrictName() != "Gasabo" {
		t.Fatalf("user = %+v", snap.User)
	}
	if tok, _ := sess.Creds.Get(); tok == "" {
		t.Fatal("token should be persisted")
	}
	if last, _ := sess.Toasts.Last(); last.Kind != notify.Success || last.Message != "Registration successful!" {
		t.Fatalf("toast = %+v", last)
	}
}

func TestHandleRegisterPost_DuplicateEmail(t *testing.T) {
	handler, fx := newTestHandler(t)
	fx.API.AddUser("jeanne@example.rw", "other", models.RoleMember, "")
	sess := fx.Anonymous()

	rec := testutil.NewRecorder()
	testutil.Serve(handler.HandleRegisterPost, rec,
		testutil.WithSession(testutil.NewFormRequest("/register", validForm()), sess))

	if sess.Snapshot().IsAuthenticated() {
		t.Fatal("duplicate registration must not sign in")
	}
	if last, _ := sess.Toasts.Last(); last.Kind != notify.Error || last.Message != "Email already registered" {
		t.Fatalf("toast = %+v", last)
	}
}

func TestHandleRegisterPost_InvalidInputSkipsAPI(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
	}{
		{"blank name", "full_name", " "},
		{"bad email", "email", "not-an-email"},
		{"short password", "password", "abc"},
		{"mismatched confirm", "confirm_password", "secret2"},
		{"unknown role", "role", "admin"},
		{"official without district", "district", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler, fx := newTestHandler(t)
			sess := fx.Anonymous()

			form := validForm()
			form.Set(tc.field, tc.value)
			if tc.field == "password" {
				form.Set("confirm_password", tc.value)
			}
			testutil.Serve(handler.HandleRegisterPost, testutil.NewRecorder(),
				testutil.WithSession(testutil.NewFormRequest("/register", form), sess))

			if n := fx.API.Calls("POST /api/auth/register"); n != 0 {
				t.Fatalf("API called %d times", n)
			}
			if sess.Snapshot().IsAuthenticated() {
				t.Fatal("invalid form must not sign in")
			}
		})
	}
}

func TestHandleRegisterPost_MemberNeedsNoDistrict(t *testing.T) {
	handler, fx := newTestHandler(t)
	sess := fx.Anonymous()

	form := validForm()
	form.Set("role", "member")
	form.Del("district")
	form.Del("phone")
	rec := testutil.NewRecorder()
	handler.HandleRegisterPost(rec, testutil.WithSession(testutil.NewFormRequest("/register", form), sess))

	rec.AssertRedirect(t, "/dashboard")
	if sess.Snapshot().User.DistrictName() != "" {
		t.Fatalf("district = %q, want empty", sess.Snapshot().User.DistrictName())
	}
}
