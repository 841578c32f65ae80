// Package notify carries short user-facing messages ("toasts") from the
// code that produced them to whatever renders them next.
package notify

import (
	"encoding/gob"
	"fmt"
	"io"
	"sync"
)

// Kind selects how a notification is styled.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Notification is one toast.
type Notification struct {
	Kind    Kind
	Message string
}

func init() {
	// Flashes are stored in the gob-encoded cookie session.
	gob.Register(Notification{})
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to Notifier.
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// Recorder keeps notifications in memory; tests use it to assert on toasts.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// All returns a copy of everything recorded so far.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Writer prints notifications as single lines, e.g. to stderr.
type Writer struct {
	W io.Writer
}

func (w Writer) Notify(n Notification) {
	prefix := "ok"
	if n.Kind == Error {
		prefix = "error"
	}
	fmt.Fprintf(w.W, "%s: %s\n", prefix, n.Message)
}
