package notify

import (
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// flashKey namespaces toasts among the cookie session's flashes.
const flashKey = "_toasts"

// SessionSource yields the request's cookie session.
type SessionSource interface {
	Session(r *http.Request) (*sessions.Session, error)
}

// Flash queues notifications in the cookie session so they survive the
// redirect that usually follows a form post.
type Flash struct {
	src SessionSource
	w   http.ResponseWriter
	r   *http.Request
	log *zap.Logger
}

// NewFlash binds a Flash notifier to one request.
func NewFlash(src SessionSource, w http.ResponseWriter, r *http.Request, logger *zap.Logger) *Flash {
	return &Flash{src: src, w: w, r: r, log: logger}
}

func (f *Flash) Notify(n Notification) {
	sess, err := f.src.Session(f.r)
	if err != nil && sess == nil {
		f.log.Warn("flash: no session", zap.Error(err))
		return
	}
	sess.AddFlash(n, flashKey)
	if err := sess.Save(f.r, f.w); err != nil {
		f.log.Warn("flash: save session", zap.Error(err))
	}
}

// Pop removes and returns the queued notifications. It writes a
// Set-Cookie header when anything was queued, so call it before the
// response body is written.
func Pop(src SessionSource, w http.ResponseWriter, r *http.Request) []Notification {
	// A cookie that no longer decodes still yields an empty session.
	sess, _ := src.Session(r)
	if sess == nil {
		return nil
	}
	raw := sess.Flashes(flashKey)
	if len(raw) == 0 {
		return nil
	}
	out := make([]Notification, 0, len(raw))
	for _, v := range raw {
		if n, ok := v.(Notification); ok {
			out = append(out, n)
		}
	}
	_ = sess.Save(r, w)
	return out
}
