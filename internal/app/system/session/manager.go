// Package session owns "who is logged in".
//
// A Manager is the single source of truth for one client: a browser (one
// Manager per request chain, rebuilt from the cookie) or the terminal
// client (one per process). It keeps the credential store, the bearer
// token attached to API calls and the in-memory identity in step, and
// tells subscribers about every transition.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/app/system/credstore"
	"github.com/dalemusser/coophub/internal/app/system/notify"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var (
	// ErrNoToken is returned by Token when nobody is signed in.
	ErrNoToken = errors.New("session: no token")
	// ErrMalformedIdentity means the API answered 2xx with an unusable user.
	ErrMalformedIdentity = errors.New("session: malformed identity")
	// errTokenExpired short-circuits restore without calling the API.
	errTokenExpired = errors.New("session: stored token expired")
)

// Toast texts. Server-provided detail replaces the failure texts.
const (
	msgLoginOK     = "Login successful!"
	msgLoginFail   = "Login failed"
	msgRegisterOK  = "Registration successful!"
	msgRegisterErr = "Registration failed"
	msgLogoutOK    = "Logged out successfully"
)

// Manager implements the session state machine.
type Manager struct {
	creds  credstore.Store
	api    *apiclient.Client
	notify notify.Notifier
	log    *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state State
	user  *models.User
	token string

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// New returns a Manager in the Initializing state. The API client it
// exposes through API is base bound to this Manager's token.
func New(base *apiclient.Client, creds credstore.Store, n notify.Notifier, logger *zap.Logger) *Manager {
	if n == nil {
		n = notify.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		creds:  creds,
		notify: n,
		log:    logger,
		now:    time.Now,
		state:  Initializing,
	}
	m.api = base.WithTokenSource(m)
	return m
}

// API returns the client every screen should use; it carries the bearer
// token whenever one is known.
func (m *Manager) API() *apiclient.Client { return m.api }

// Token implements oauth2.TokenSource for the bound API client.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.RLock()
	tok := m.token
	m.mu.RUnlock()
	if tok == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{State: m.state}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

// User returns the signed-in user or nil.
func (m *Manager) User() *models.User { return m.Snapshot().User }

// Subscribe registers fn to run after every transition. The returned
// function removes the subscription.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// set applies a transition and notifies subscribers outside the lock.
func (m *Manager) set(state State, user *models.User, token string) Snapshot {
	m.mu.Lock()
	m.state = state
	m.user = user
	m.token = token
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.subMu.Lock()
	subs := append([]subscriber(nil), m.subs...)
	m.subMu.Unlock()
	for _, s := range subs {
		s.fn(snap)
	}
	return snap
}

/*─────────────────────────────────────────────────────────────────────────────*
| Restore                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// Restore leaves Initializing. With a stored token it asks the API who the
// token belongs to; any failure at all (expired token, network, 401,
// unusable body) clears the stored token and ends Anonymous. Restore never
// returns an error. Calling it again after it finished is a no-op.
func (m *Manager) Restore(ctx context.Context) Snapshot {
	if snap := m.Snapshot(); snap.State != Initializing {
		return snap
	}

	tok, ok := m.creds.Get()
	if !ok {
		return m.set(Anonymous, nil, "")
	}

	if tokenExpired(tok, m.now()) {
		return m.failRestore(errTokenExpired)
	}

	// Attach before calling /me so the request carries the bearer.
	m.mu.Lock()
	m.token = tok
	m.mu.Unlock()

	u, err := m.api.Me(ctx)
	if err == nil {
		err = validateUser(u)
	}
	if err != nil {
		return m.failRestore(err)
	}
	return m.set(Authenticated, u, tok)
}

func (m *Manager) failRestore(cause error) Snapshot {
	m.log.Debug("session restore failed; continuing anonymous", zap.Error(cause))
	if err := m.creds.Clear(); err != nil {
		m.log.Warn("clear stored token after failed restore", zap.Error(err))
	}
	return m.set(Anonymous, nil, "")
}

// tokenExpired peeks at a JWT's exp claim without verifying the signature.
// Tokens that are not JWTs, or carry no exp, are left for the API to judge.
func tokenExpired(raw string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.Time.After(now)
}

func validateUser(u *models.User) error {
	if u == nil || u.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedIdentity)
	}
	if _, ok := models.ParseRole(string(u.Role)); !ok {
		return fmt.Errorf("%w: unknown role %q", ErrMalformedIdentity, u.Role)
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Login / Register / Logout                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// Login authenticates with email and password. On failure the session is
// left exactly as it was and an error toast carries the server's detail.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	res, err := m.api.Login(ctx, email, password)
	if err == nil {
		err = validateUser(&res.User)
	}
	if err != nil {
		m.log.Info("login failed", zap.String("email", email), zap.Error(err))
		m.notify.Notify(notify.Notification{Kind: notify.Error, Message: apiclient.UserMessage(err, msgLoginFail)})
		return err
	}
	m.adopt(res)
	m.notify.Notify(notify.Notification{Kind: notify.Success, Message: msgLoginOK})
	return nil
}

// Register creates an account and signs it in, with the same failure
// contract as Login.
func (m *Manager) Register(ctx context.Context, reg models.Registration) error {
	res, err := m.api.Register(ctx, reg)
	if err == nil {
		err = validateUser(&res.User)
	}
	if err != nil {
		m.log.Info("registration failed", zap.String("email", reg.Email), zap.Error(err))
		m.notify.Notify(notify.Notification{Kind: notify.Error, Message: apiclient.UserMessage(err, msgRegisterErr)})
		return err
	}
	m.adopt(res)
	m.notify.Notify(notify.Notification{Kind: notify.Success, Message: msgRegisterOK})
	return nil
}

func (m *Manager) adopt(res *apiclient.AuthResult) {
	if err := m.creds.Set(res.AccessToken); err != nil {
		// The session still works for this client until it is rebuilt.
		m.log.Warn("persist token", zap.Error(err))
	}
	u := res.User
	m.set(Authenticated, &u, res.AccessToken)
}

// Logout forgets the token and identity locally. It never calls the API
// and always succeeds.
func (m *Manager) Logout() {
	if err := m.creds.Clear(); err != nil {
		m.log.Warn("clear stored token on logout", zap.Error(err))
	}
	m.set(Anonymous, nil, "")
	m.notify.Notify(notify.Notification{Kind: notify.Success, Message: msgLogoutOK})
}
