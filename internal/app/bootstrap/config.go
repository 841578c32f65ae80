// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// minSecretLen is the shortest session or CSRF secret accepted in prod.
const minSecretLen = 32

// appConfigKeys defines the configuration keys for coophub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: api_base_url, session_name, etc.
//   - Environment variables: COOPHUB_API_BASE_URL, COOPHUB_SESSION_NAME, etc.
//   - Command-line flags: --api_base_url, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "api_base_url", Default: "http://localhost:8001", Desc: "Cooperative REST API base URL"},
	{Name: "api_timeout", Default: "30s", Desc: "Per-request timeout for API calls (e.g., 30s, 1m)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session cookie secret (must be strong in production)"},
	{Name: "session_name", Default: "coophub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	{Name: "csrf_key", Default: "", Desc: "CSRF secret (required in production; random per boot in dev)"},

	{Name: "policy_file", Default: "", Desc: "Optional YAML route policy replacing the built-in one"},

	{Name: "site_name", Default: models.DefaultSiteName, Desc: "Name shown in the navigation header"},
	{Name: "footer", Default: "", Desc: "Footer text"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public URL of this UI"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, COOPHUB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COOPHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		APIBaseURL: appValues.String("api_base_url"),
		APITimeout: appValues.Duration("api_timeout", 30*time.Second),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		CSRFKey:    appValues.String("csrf_key"),
		PolicyFile: appValues.String("policy_file"),

		SiteName: appValues.String("site_name"),
		Footer:   appValues.String("footer"),
		BaseURL:  appValues.String("base_url"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The API URL must be an absolute http(s) URL. Production additionally
// requires full-length session and CSRF secrets; dev only warns.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if _, err := apiclient.ParseBaseURL(appCfg.APIBaseURL); err != nil {
		logger.Error("invalid API base URL", zap.Error(err))
		return err
	}
	if appCfg.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be positive, got %s", appCfg.APITimeout)
	}
	if appCfg.SessionName == "" {
		return fmt.Errorf("session_name must not be empty")
	}
	if appCfg.SessionMaxAge < 0 {
		return fmt.Errorf("session_max_age must not be negative, got %s", appCfg.SessionMaxAge)
	}

	if coreCfg.Env != "prod" {
		return nil
	}
	if len(appCfg.SessionKey) < minSecretLen {
		return fmt.Errorf("session_key must be at least %d characters in production", minSecretLen)
	}
	if len(appCfg.CSRFKey) < minSecretLen {
		return fmt.Errorf("csrf_key must be at least %d characters in production", minSecretLen)
	}
	return nil
}
