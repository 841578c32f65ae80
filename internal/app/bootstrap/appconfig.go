// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (COOPHUB_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, logging and CORS; everything below is specific to the
// cooperative UI.
type AppConfig struct {
	// Cooperative API
	APIBaseURL string        // REST API root (e.g., http://localhost:8001)
	APITimeout time.Duration // per-request ceiling for API calls

	// Session cookie (carries the bearer token and pending toasts)
	SessionKey    string // Secret the cookie signing and encryption keys are derived from
	SessionName   string // Cookie name (default: coophub-session)
	SessionDomain string // Cookie domain (blank means current host)
	SessionMaxAge time.Duration

	// CSRF protection for forms
	CSRFKey string // Secret for gorilla/csrf; blank in dev generates a random key per boot

	// Route policy override; blank uses the embedded table
	PolicyFile string

	// Display
	SiteName string
	Footer   string

	BaseURL string // public URL of this UI, used in logs
}
