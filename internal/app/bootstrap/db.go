// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/app/system/guard"
	"github.com/dalemusser/coophub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB builds the API client and loads the route policy. An API that
// does not answer its health probe is logged but does not stop startup;
// pages report the failure per request.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	api, err := apiclient.New(apiclient.Config{
		BaseURL: appCfg.APIBaseURL,
		Timeout: appCfg.APITimeout,
	}, logger)
	if err != nil {
		return DBDeps{}, err
	}

	policy, err := loadPolicy(appCfg.PolicyFile)
	if err != nil {
		return DBDeps{}, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if st, err := api.Health(pingCtx); err != nil {
		logger.Warn("cooperative API not reachable at startup",
			zap.String("api", api.BaseURL()), zap.Error(err))
	} else {
		logger.Info("cooperative API reachable",
			zap.String("api", api.BaseURL()), zap.String("status", st.Status))
	}

	return DBDeps{API: api, Policy: policy}, nil
}

func loadPolicy(path string) (*guard.Policy, error) {
	if path == "" {
		return guard.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route policy: %w", err)
	}
	p, err := guard.Load(data)
	if err != nil {
		return nil, fmt.Errorf("route policy %s: %w", path, err)
	}
	return p, nil
}

// EnsureSchema has nothing to migrate: the API owns persistence. It logs
// the screens the route policy exposes so a misconfigured policy file is
// visible at boot.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Policy == nil {
		return fmt.Errorf("route policy not loaded")
	}
	logger.Info("route policy loaded",
		zap.Int("screens", len(deps.Policy.Screens)),
		zap.String("home", deps.Policy.Home),
		zap.String("login", deps.Policy.Login))
	return nil
}
