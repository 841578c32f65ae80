// internal/domain/models/sitesettings.go
package models

// DefaultSiteName is shown in the navigation header when the deployment
// does not configure its own.
const DefaultSiteName = "Rwanda Cooperative System"

// SiteSettings holds deployment-level display settings. They come from
// configuration rather than the API.
type SiteSettings struct {
	SiteName string // Name shown in the navigation header
	Footer   string // Plain-text footer line
}

// Name returns the configured site name or the default.
func (s SiteSettings) Name() string {
	if s.SiteName == "" {
		return DefaultSiteName
	}
	return s.SiteName
}
