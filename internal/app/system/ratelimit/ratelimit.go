// Package ratelimit throttles the login and registration forms before they
// reach the cooperative API.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts events per key in fixed windows. Safe for concurrent use.
// Expired windows are swept lazily, so no background goroutine is needed.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]window
	limit    int
	duration time.Duration
	now      func() time.Time
	lastScan time.Time
}

type window struct {
	count     int
	expiresAt time.Time
}

// New returns a Limiter allowing limit events per key per duration.
func New(limit int, duration time.Duration) *Limiter {
	return &Limiter{
		windows:  make(map[string]window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
	}
}

// Allow records one event for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	l.windows[key] = w
	return true
}

// Reset forgets key, e.g. after a successful sign-in.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// sweep drops expired windows at most once per duration. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastScan) < l.duration {
		return
	}
	l.lastScan = now
	for k, w := range l.windows {
		if now.After(w.expiresAt) {
			delete(l.windows, k)
		}
	}
}

// ClientIP extracts the client IP, preferring the first X-Forwarded-For
// entry, then X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// AuthLimiter guards the credential forms by client IP and by account email.
type AuthLimiter struct {
	ip    *Limiter
	email *Limiter
}

// NewAuthLimiter uses 10 attempts per IP per minute and 5 per email per
// 5 minutes.
func NewAuthLimiter() *AuthLimiter {
	return NewAuthLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewAuthLimiterWithConfig sets custom limits.
func NewAuthLimiterWithConfig(ipLimit int, ipWindow time.Duration, emailLimit int, emailWindow time.Duration) *AuthLimiter {
	return &AuthLimiter{ip: New(ipLimit, ipWindow), email: New(emailLimit, emailWindow)}
}

// Check records an attempt and returns a user-facing reason when it is over
// a limit.
func (a *AuthLimiter) Check(r *http.Request, email string) (bool, string) {
	if !a.ip.Allow(ClientIP(r)) {
		return false, "Too many attempts. Please wait a minute before trying again."
	}
	if key := emailKey(email); key != "" && !a.email.Allow(key) {
		return false, "Too many attempts for this account. Please wait a few minutes."
	}
	return true, ""
}

// ResetEmail clears the per-account counter after a successful sign-in.
func (a *AuthLimiter) ResetEmail(email string) {
	if key := emailKey(email); key != "" {
		a.email.Reset(key)
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
