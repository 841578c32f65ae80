package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FakeAPI is an in-memory stand-in for the cooperative REST API. It speaks
// the same wire format (form login, JSON elsewhere, {"detail": ...} errors)
// and signs real HS256 tokens so expiry handling can be exercised.
type FakeAPI struct {
	Server *httptest.Server

	secret []byte

	mu       sync.Mutex
	users    map[string]fakeUser // by email
	coops    []models.Cooperative
	calls    map[string]int
	failures map[string]failure
	now      func() time.Time
}

type fakeUser struct {
	user     models.User
	password string
}

type failure struct {
	status int
	detail string
}

// NewFakeAPI starts the fake server and closes it when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		secret:   []byte("fake-api-signing-secret"),
		users:    make(map[string]fakeUser),
		calls:    make(map[string]int),
		failures: make(map[string]failure),
		now:      time.Now,
	}

	r := chi.NewRouter()
	r.Use(f.count)
	r.Get("/api/health", f.health)
	r.Post("/api/auth/login", f.login)
	r.Post("/api/auth/register", f.register)
	r.Get("/api/auth/me", f.me)
	r.Get("/api/cooperatives", f.listCooperatives)
	r.Post("/api/cooperatives", f.createCooperative)
	r.Put("/api/cooperatives/{id}/approve", f.approveCooperative)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// Client returns an apiclient pointed at the fake server.
func (f *FakeAPI) Client(t *testing.T) *apiclient.Client {
	t.Helper()
	c, err := apiclient.New(apiclient.Config{BaseURL: f.Server.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	return c
}

// AddUser registers an account the fake will accept.
func (f *FakeAPI) AddUser(email, password string, role models.Role, district string) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  strings.Split(email, "@")[0],
		Role:      role,
		IsActive:  true,
		CreatedAt: f.now().UTC(),
	}
	if district != "" {
		d := district
		u.District = &d
	}
	f.users[email] = fakeUser{user: u, password: password}
	return u
}

// User looks up a fake account by email.
func (f *FakeAPI) User(email string) (models.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fu, ok := f.users[email]
	return fu.user, ok
}

// AddCooperative seeds a cooperative and returns it with defaults filled in.
func (f *FakeAPI) AddCooperative(c models.Cooperative) models.Cooperative {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = models.StatusPending
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = f.now().UTC()
	}
	f.coops = append(f.coops, c)
	return c
}

// Cooperatives returns a copy of the server-side records.
func (f *FakeAPI) Cooperatives() []models.Cooperative {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Cooperative(nil), f.coops...)
}

// TokenFor signs a token for userID that expires after ttl (negative ttl
// yields an already-expired token).
func (f *FakeAPI) TokenFor(userID string, ttl time.Duration) string {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(f.now().Add(ttl)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	if err != nil {
		panic(fmt.Sprintf("sign token: %v", err))
	}
	return s
}

// Fail makes every request matching "METHOD /path" answer with status and
// a detail message until Recover is called. An empty detail sends no body.
func (f *FakeAPI) Fail(route string, status int, detail string) {
	f.mu.Lock()
	f.failures[route] = failure{status: status, detail: detail}
	f.mu.Unlock()
}

// Recover clears a failure set with Fail.
func (f *FakeAPI) Recover(route string) {
	f.mu.Lock()
	delete(f.failures, route)
	f.mu.Unlock()
}

// Calls reports how many requests matched "METHOD /path".
func (f *FakeAPI) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

func (f *FakeAPI) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.calls[route]++
		fail, failing := f.failures[route]
		f.mu.Unlock()
		if failing {
			if fail.detail == "" {
				w.WriteHeader(fail.status)
				return
			}
			writeDetail(w, fail.status, fail.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (f *FakeAPI) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "message": "fake cooperative API"})
}

func (f *FakeAPI) issue(w http.ResponseWriter, status int, u models.User) {
	writeJSON(w, status, map[string]any{
		"access_token": f.TokenFor(u.ID, 30*time.Minute),
		"token_type":   "bearer",
		"user":         u,
	})
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	f.mu.Lock()
	fu, ok := f.users[r.PostForm.Get("username")]
	f.mu.Unlock()
	if !ok || fu.password != r.PostForm.Get("password") {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	f.issue(w, http.StatusOK, fu.user)
}

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	f.mu.Lock()
	_, exists := f.users[reg.Email]
	f.mu.Unlock()
	if exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	u := f.AddUser(reg.Email, reg.Password, reg.Role, "")
	f.mu.Lock()
	u.FullName = reg.FullName
	u.District = reg.District
	u.Phone = reg.Phone
	f.users[reg.Email] = fakeUser{user: u, password: reg.Password}
	f.mu.Unlock()
	f.issue(w, http.StatusOK, u)
}

// caller resolves the bearer token to a user, writing a 401 on failure.
func (f *FakeAPI) caller(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return models.User{}, false
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return f.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(f.now))
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return models.User{}, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fu := range f.users {
		if fu.user.ID == claims.Subject {
			return fu.user, true
		}
	}
	writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
	return models.User{}, false
}

func (f *FakeAPI) me(w http.ResponseWriter, r *http.Request) {
	u, ok := f.caller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (f *FakeAPI) listCooperatives(w http.ResponseWriter, r *http.Request) {
	u, ok := f.caller(w, r)
	if !ok {
		return
	}
	district := r.URL.Query().Get("district")
	status := r.URL.Query().Get("status")
	if district == "" && u.Role == models.RoleDistrictOfficial {
		district = u.DistrictName()
	}

	f.mu.Lock()
	out := make([]models.Cooperative, 0, len(f.coops))
	for _, c := range f.coops {
		if district != "" && c.District != district {
			continue
		}
		if status != "" && string(c.Status) != status {
			continue
		}
		out = append(out, c)
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) createCooperative(w http.ResponseWriter, r *http.Request) {
	u, ok := f.caller(w, r)
	if !ok {
		return
	}
	if u.Role != models.RoleCooperativeLeader && u.Role != models.RoleDistrictOfficial {
		writeDetail(w, http.StatusForbidden, "Not authorized to create cooperatives")
		return
	}
	var in models.NewCooperative
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	c := f.AddCooperative(models.Cooperative{
		Name:        in.Name,
		Description: in.Description,
		District:    in.District,
		Sector:      in.Sector,
		Cell:        in.Cell,
		Village:     in.Village,
		LeaderID:    in.LeaderID,
	})
	writeJSON(w, http.StatusOK, c)
}

func (f *FakeAPI) approveCooperative(w http.ResponseWriter, r *http.Request) {
	u, ok := f.caller(w, r)
	if !ok {
		return
	}
	if u.Role != models.RoleDistrictOfficial {
		writeDetail(w, http.StatusForbidden, "Not authorized to approve cooperatives")
		return
	}
	id := chi.URLParam(r, "id")

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.coops {
		if f.coops[i].ID != id {
			continue
		}
		prefix := strings.ToUpper(f.coops[i].District)
		if len(prefix) > 3 {
			prefix = prefix[:3]
		}
		short := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
		if len(short) > 8 {
			short = short[:8]
		}
		reg := fmt.Sprintf("RW-%s-%d-%s", prefix, f.now().UTC().Year(), short)
		now := f.now().UTC()
		f.coops[i].Status = models.StatusApproved
		f.coops[i].RegistrationNumber = &reg
		f.coops[i].ApprovedAt = &now
		f.coops[i].ApprovedBy = &u.ID
		writeJSON(w, http.StatusOK, models.Approval{
			Message:            "Cooperative approved successfully",
			RegistrationNumber: reg,
		})
		return
	}
	writeDetail(w, http.StatusNotFound, "Cooperative not found")
}
