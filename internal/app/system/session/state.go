package session

import "github.com/dalemusser/coophub/internal/domain/models"

// State is the session's position in its lifecycle.
type State int

const (
	// Initializing holds until the first Restore finishes.
	Initializing State = iota
	// Anonymous means nobody is signed in.
	Anonymous
	// Authenticated means Snapshot.User is set.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the session at one instant.
type Snapshot struct {
	State State
	User  *models.User
}

// IsLoading is true only while the startup restore is running.
func (s Snapshot) IsLoading() bool { return s.State == Initializing }

// IsAuthenticated is true whenever a user is present.
func (s Snapshot) IsAuthenticated() bool { return s.User != nil }

// Role returns the signed-in user's role, or "" when anonymous.
func (s Snapshot) Role() models.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}
