package cli_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/coophub/internal/app/system/credstore"
	"github.com/dalemusser/coophub/internal/app/system/guard"
	"github.com/dalemusser/coophub/internal/app/system/notify"
	"github.com/dalemusser/coophub/internal/app/system/session"
	"github.com/dalemusser/coophub/internal/cli"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/dalemusser/coophub/internal/testutil"
	"go.uber.org/zap"
)

type harness struct {
	api   *testutil.FakeAPI
	creds *credstore.MemoryStore
	out   bytes.Buffer
	err   bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{api: testutil.NewFakeAPI(t), creds: credstore.NewMemory("")}
}

// signIn stores a valid token for email, as a previous login would have.
func (h *harness) signIn(t *testing.T, email string, role models.Role, district string) models.User {
	t.Helper()
	u := h.api.AddUser(email, "secret1", role, district)
	if err := h.creds.Set(h.api.TokenFor(u.ID, time.Hour)); err != nil {
		t.Fatal(err)
	}
	return u
}

// run starts a fresh process-like App: restore from the stored token, then
// execute args.
func (h *harness) run(t *testing.T, stdin string, args ...string) error {
	t.Helper()
	h.out.Reset()
	h.err.Reset()
	m := session.New(h.api.Client(t), h.creds, notify.Writer{W: &h.err}, zap.NewNop())
	m.Restore(context.Background())
	app := &cli.App{
		Session: m,
		Policy:  guard.Default(),
		Log:     zap.NewNop(),
		In:      strings.NewReader(stdin),
		Out:     &h.out,
		Err:     &h.err,
	}
	return app.Run(context.Background(), args)
}

func TestLogin_PersistsTokenForNextRun(t *testing.T) {
	h := newHarness(t)
	h.api.AddUser("lead@coop.rw", "secret1", models.RoleCooperativeLeader, "Huye")

	if err := h.run(t, "secret1\n", "login", "lead@coop.rw"); err != nil {
		t.Fatalf("login: %v (stderr %q)", err, h.err.String())
	}
	if !strings.Contains(h.err.String(), "ok: Login successful!") {
		t.Fatalf("stderr = %q", h.err.String())
	}
	if _, ok := h.creds.Get(); !ok {
		t.Fatal("token not stored")
	}

	if err := h.run(t, "", "whoami"); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(h.out.String(), "lead@coop.rw") || !strings.Contains(h.out.String(), "District: Huye") {
		t.Fatalf("whoami output = %q", h.out.String())
	}
}

func TestLogin_WrongPasswordReportsDetail(t *testing.T) {
	h := newHarness(t)
	h.api.AddUser("lead@coop.rw", "secret1", models.RoleCooperativeLeader, "")

	err := h.run(t, "nope\n", "login", "lead@coop.rw")
	if !errors.Is(err, cli.ErrReported) {
		t.Fatalf("err = %v, want ErrReported", err)
	}
	if !strings.Contains(h.err.String(), "error: Incorrect email or password") {
		t.Fatalf("stderr = %q", h.err.String())
	}
	if _, ok := h.creds.Get(); ok {
		t.Fatal("failed login must not store a token")
	}
}

func TestGate(t *testing.T) {
	tests := []struct {
		name    string
		role    models.Role // "" means signed out
		args    []string
		wantErr error
	}{
		{"anonymous whoami", "", []string{"whoami"}, cli.ErrNotSignedIn},
		{"anonymous list", "", []string{"coops", "list"}, cli.ErrNotSignedIn},
		{"member list", models.RoleMember, []string{"coops", "list"}, cli.ErrForbidden},
		{"leader approve", models.RoleCooperativeLeader, []string{"coops", "approve", "x"}, cli.ErrForbidden},
		{"member create", models.RoleMember, []string{"coops", "create", "--name", "x"}, cli.ErrForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			if tc.role != "" {
				h.signIn(t, "u@coop.rw", tc.role, "Gasabo")
			}
			err := h.run(t, "", tc.args...)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if n := h.api.Calls("GET /api/cooperatives"); n != 0 {
				t.Fatalf("gated command reached the API %d times", n)
			}
		})
	}
}

func TestLogin_RefusedWhenSignedIn(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "u@coop.rw", models.RoleMember, "")

	err := h.run(t, "secret1\n", "login", "u@coop.rw")
	if err == nil || !strings.Contains(err.Error(), "already signed in") {
		t.Fatalf("err = %v", err)
	}
	if n := h.api.Calls("POST /api/auth/login"); n != 0 {
		t.Fatalf("login called %d times", n)
	}
}

func TestLogout_ClearsTokenWithoutNetwork(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "u@coop.rw", models.RoleMember, "")

	if err := h.run(t, "", "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := h.creds.Get(); ok {
		t.Fatal("token still stored")
	}
	if err := h.run(t, "", "whoami"); !errors.Is(err, cli.ErrNotSignedIn) {
		t.Fatalf("whoami after logout: %v", err)
	}
}

func TestCoopsList_Filters(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "off@coop.rw", models.RoleDistrictOfficial, "Gasabo")
	h.api.AddCooperative(models.Cooperative{Name: "Abahizi Dairy", District: "Gasabo", Status: models.StatusPending})
	h.api.AddCooperative(models.Cooperative{Name: "Gasabo Coffee", District: "Gasabo", Status: models.StatusApproved})

	if err := h.run(t, "", "coops", "list", "--status", "pending"); err != nil {
		t.Fatalf("list: %v", err)
	}
	out := h.out.String()
	if !strings.Contains(out, "Abahizi Dairy") || strings.Contains(out, "Gasabo Coffee") {
		t.Fatalf("output = %q", out)
	}

	if err := h.run(t, "", "coops", "list", "--q", "zzz"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(h.out.String(), "Try adjusting your search filters") {
		t.Fatalf("output = %q", h.out.String())
	}

	if err := h.run(t, "", "coops", "list", "--status", "archived"); err == nil {
		t.Fatal("unknown status should be rejected")
	}
}

func TestCoopsCreate_DefaultsDistrictAndLeader(t *testing.T) {
	h := newHarness(t)
	u := h.signIn(t, "lead@coop.rw", models.RoleCooperativeLeader, "Huye")

	err := h.run(t, "", "coops", "create",
		"--name", "Ikawa", "--description", "Coffee washing station",
		"--sector", "Tumba", "--cell", "Cyarwa", "--village", "Kabeza")
	if err != nil {
		t.Fatalf("create: %v (stderr %q)", err, h.err.String())
	}
	coops := h.api.Cooperatives()
	if len(coops) != 1 {
		t.Fatalf("server has %d cooperatives", len(coops))
	}
	if coops[0].District != "Huye" || coops[0].LeaderID != u.ID {
		t.Fatalf("created = %+v", coops[0])
	}
	if strings.TrimSpace(h.out.String()) != coops[0].ID {
		t.Fatalf("stdout = %q, want the new id", h.out.String())
	}
}

func TestCoopsCreate_MissingFieldSkipsAPI(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "lead@coop.rw", models.RoleCooperativeLeader, "Huye")

	if err := h.run(t, "", "coops", "create", "--name", "Ikawa"); err == nil {
		t.Fatal("expected validation error")
	}
	if n := h.api.Calls("POST /api/cooperatives"); n != 0 {
		t.Fatalf("API called %d times", n)
	}
}

func TestCoopsApprove(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "off@coop.rw", models.RoleDistrictOfficial, "Gasabo")
	c := h.api.AddCooperative(models.Cooperative{Name: "Abahizi", District: "Gasabo"})

	if err := h.run(t, "", "coops", "approve", c.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	reg := strings.TrimSpace(h.out.String())
	if !strings.HasPrefix(reg, "RW-GAS-") {
		t.Fatalf("registration number = %q", reg)
	}
	if got := h.api.Cooperatives()[0]; got.Status != models.StatusApproved {
		t.Fatalf("status = %q", got.Status)
	}

	err := h.run(t, "", "coops", "approve", "missing")
	if !errors.Is(err, cli.ErrReported) || !strings.Contains(h.err.String(), "Cooperative not found") {
		t.Fatalf("err = %v, stderr = %q", err, h.err.String())
	}
}

func TestRegister_PromptsTwice(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, "secret1\nsecret1\n", "register",
		"--email", "new@coop.rw", "--name", "Aline", "--role", "member")
	if err != nil {
		t.Fatalf("register: %v (stderr %q)", err, h.err.String())
	}
	if _, ok := h.creds.Get(); !ok {
		t.Fatal("token not stored")
	}

	h2 := newHarness(t)
	err = h2.run(t, "secret1\nsecret2\n", "register",
		"--email", "new@coop.rw", "--name", "Aline")
	if err == nil || !strings.Contains(err.Error(), "do not match") {
		t.Fatalf("err = %v", err)
	}
	if n := h2.api.Calls("POST /api/auth/register"); n != 0 {
		t.Fatalf("API called %d times", n)
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	if err := h.run(t, "", "frobnicate"); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("err = %v", err)
	}
}
