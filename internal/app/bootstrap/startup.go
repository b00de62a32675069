// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/vidcollab/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeoutConfig(appCfg))
	logger.Debug("timeouts configured",
		zap.Duration("upload", timeouts.Upload()),
		zap.Duration("publish", timeouts.Publish()))
	return nil
}

func timeoutConfig(appCfg AppConfig) timeouts.Config {
	cfg := timeouts.Defaults
	if appCfg.UploadTimeout > 0 {
		cfg.Upload = appCfg.UploadTimeout
	}
	if appCfg.PublishTimeout > 0 {
		cfg.Publish = appCfg.PublishTimeout
	}
	return cfg
}
