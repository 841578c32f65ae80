// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/coophub/internal/app/resources"
	"github.com/dalemusser/coophub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after the API client
// is built but before the HTTP handler is. It registers the shared
// templates and applies timeout overrides from the environment.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		c := timeouts.Current()
		logger.Info("timeouts overridden from environment",
			zap.Int("overrides", n),
			zap.Duration("ping", c.Ping),
			zap.Duration("short", c.Short),
			zap.Duration("medium", c.Medium),
			zap.Duration("long", c.Long))
	}
	return nil
}
