package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

const time30m = 30 * time.Minute

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures seeds a FakeAPI with the accounts and cooperatives most handler
// tests need.
type Fixtures struct {
	API *FakeAPI
	t   *testing.T
}

// NewFixtures starts a fake API for the test.
func NewFixtures(t *testing.T) *Fixtures {
	t.Helper()
	return &Fixtures{API: NewFakeAPI(t), t: t}
}

// Account credentials used by the role helpers.
const (
	OfficialEmail = "official@test.rw"
	LeaderEmail   = "leader@test.rw"
	MemberEmail   = "member@test.rw"
	Password      = "test-password"
)

// Official signs in a district official for Gasabo.
func (f *Fixtures) Official() *Session {
	f.t.Helper()
	return f.signIn(OfficialEmail, models.RoleDistrictOfficial, "Gasabo")
}

// Leader signs in a cooperative leader.
func (f *Fixtures) Leader() *Session {
	f.t.Helper()
	return f.signIn(LeaderEmail, models.RoleCooperativeLeader, "Gasabo")
}

// Member signs in a member.
func (f *Fixtures) Member() *Session {
	f.t.Helper()
	return f.signIn(MemberEmail, models.RoleMember, "")
}

// Anonymous returns a restored signed-out session.
func (f *Fixtures) Anonymous() *Session {
	f.t.Helper()
	return AnonymousSession(f.t, f.API)
}

func (f *Fixtures) signIn(email string, role models.Role, district string) *Session {
	if _, ok := f.API.User(email); !ok {
		f.API.AddUser(email, Password, role, district)
	}
	return SessionFor(f.t, f.API, email)
}

// CreateCooperative seeds a cooperative in district with the given status.
func (f *Fixtures) CreateCooperative(name, district string, status models.CooperativeStatus) models.Cooperative {
	f.t.Helper()
	return f.API.AddCooperative(models.Cooperative{
		Name:        name,
		Description: name + " cooperative",
		District:    district,
		Sector:      "Kimironko",
		Cell:        "Bibare",
		Village:     "Nyagatovu",
		Status:      status,
	})
}
