// Package auth wires the session manager into HTTP: every request gets its
// own Manager restored from the cookie, and the route guard decides what the
// visitor may see.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/app/system/credstore"
	"github.com/dalemusser/coophub/internal/app/system/guard"
	"github.com/dalemusser/coophub/internal/app/system/notify"
	"github.com/dalemusser/coophub/internal/app/system/session"
	"github.com/dalemusser/coophub/internal/app/system/timeouts"
	"github.com/dalemusser/coophub/internal/domain/models"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager builds one session.Manager per request and enforces the
// route policy. It holds no per-user state itself.
type SessionManager struct {
	backend *credstore.CookieBackend
	api     *apiclient.Client
	policy  *guard.Policy
	log     *zap.Logger

	// NotFound serves paths the policy does not know. Defaults to
	// http.NotFound.
	NotFound http.Handler
}

// NewSessionManager validates its inputs and returns a SessionManager.
func NewSessionManager(backend *credstore.CookieBackend, api *apiclient.Client, policy *guard.Policy, logger *zap.Logger) (*SessionManager, error) {
	if backend == nil {
		return nil, fmt.Errorf("cookie backend is nil")
	}
	if api == nil {
		return nil, fmt.Errorf("api client is nil")
	}
	if policy == nil {
		policy = guard.Default()
	}
	return &SessionManager{
		backend:  backend,
		api:      api,
		policy:   policy,
		log:      logger,
		NotFound: http.HandlerFunc(http.NotFound),
	}, nil
}

// Policy returns the route policy in force.
func (sm *SessionManager) Policy() *guard.Policy { return sm.policy }

// Backend returns the cookie backend, which also carries flash toasts.
func (sm *SessionManager) Backend() *credstore.CookieBackend { return sm.backend }

// LoadSession restores the visitor's session from the cookie before any
// routing decision is made, then stores the Manager in the request context.
func (sm *SessionManager) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := sm.backend.Store(w, r)
		toasts := notify.NewFlash(sm.backend, w, r, sm.log)
		m := session.New(sm.api, store, toasts, sm.log)

		path := r.URL.Path
		m.Subscribe(func(s session.Snapshot) {
			fields := []zap.Field{zap.String("state", s.State.String()), zap.String("path", path)}
			if s.User != nil {
				fields = append(fields, zap.String("user_id", s.User.ID), zap.String("role", string(s.User.Role)))
			}
			sm.log.Debug("session transition", fields...)
		})
		restoreCtx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), sm.log, "restore session")
		m.Restore(restoreCtx)
		cancel()

		ctx := WithNotifier(WithManager(r.Context(), m), toasts)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Guard applies the route policy to the request path.
//   - Render: continue.
//   - Redirect to login: 303 to /login?return=... (HX-Redirect for HTMX,
//     401 for API callers).
//   - Other redirects: 303 (HX-Redirect for HTMX, 403 for API callers).
//   - NotFound: sm.NotFound.
//   - Loading: 503; cannot happen after LoadSession.
func (sm *SessionManager) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := sm.policy.Decide(Snapshot(r), r.URL.Path)
		switch d.Outcome {
		case guard.Render:
			next.ServeHTTP(w, r)
		case guard.NotFound:
			sm.NotFound.ServeHTTP(w, r)
		case guard.Loading:
			w.Header().Set("Retry-After", "1")
			http.Error(w, "session loading", http.StatusServiceUnavailable)
		case guard.Redirect:
			if d.Target == sm.policy.Login {
				redirectToLogin(w, r, d.Target)
				return
			}
			redirect(w, r, d.Target, http.StatusForbidden)
		}
	})
}

// RequireAction lets the request through only if the signed-in user's role
// may perform action on screen. Others are sent to the dashboard.
func (sm *SessionManager) RequireAction(screen, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := Snapshot(r)
			if !snap.IsAuthenticated() {
				redirectToLogin(w, r, sm.policy.Login)
				return
			}
			if !sm.policy.Allows(snap.Role(), screen, action) {
				sm.log.Info("action denied",
					zap.String("screen", screen),
					zap.String("action", action),
					zap.String("role", string(snap.Role())))
				redirect(w, r, sm.policy.Home, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSignedIn ensures there is a signed-in user.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		redirectToLogin(w, r, sm.policy.Login)
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Context helpers                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const (
	managerKey  ctxKey = "sessionManager"
	notifierKey ctxKey = "notifier"
)

// WithManager returns ctx carrying m.
func WithManager(ctx context.Context, m *session.Manager) context.Context {
	return context.WithValue(ctx, managerKey, m)
}

// Manager returns the request's session manager, or nil outside LoadSession.
func Manager(r *http.Request) *session.Manager {
	m, _ := r.Context().Value(managerKey).(*session.Manager)
	return m
}

// WithNotifier returns ctx carrying the toast sink for this request.
func WithNotifier(ctx context.Context, n notify.Notifier) context.Context {
	return context.WithValue(ctx, notifierKey, n)
}

// Notify queues a toast for the visitor. Without a notifier in the context
// the toast is dropped.
func Notify(r *http.Request, kind notify.Kind, msg string) {
	n, ok := r.Context().Value(notifierKey).(notify.Notifier)
	if !ok {
		return
	}
	n.Notify(notify.Notification{Kind: kind, Message: msg})
}

// Snapshot returns the request's session state. Without a manager the
// visitor is treated as anonymous.
func Snapshot(r *http.Request) session.Snapshot {
	if m := Manager(r); m != nil {
		return m.Snapshot()
	}
	return session.Snapshot{State: session.Anonymous}
}

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u := Snapshot(r).User
	return u, u != nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| helpers                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func redirectToLogin(w http.ResponseWriter, r *http.Request, login string) {
	target := login + "?return=" + url.QueryEscape(r.URL.RequestURI())
	redirect(w, r, target, http.StatusUnauthorized)
}

// redirect sends browsers to target; API callers get apiStatus instead.
func redirect(w http.ResponseWriter, r *http.Request, target string, apiStatus int) {
	// HTMX: full-page client redirect (no partial swap)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(apiStatus)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	http.Error(w, strings.ToLower(http.StatusText(apiStatus)), apiStatus)
}

func wantsHTML(r *http.Request) bool {
	// Very light heuristic: treat it as HTML if it's HTMX or Accepts text/html.
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
