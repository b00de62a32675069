// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work, then closes the broker and database.
// In-flight notifications get until ctx expires to drain.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if bg := deps.Background; bg != nil {
		if bg.Scheduler != nil {
			bg.Scheduler.Stop()
		}
		if bg.Pool != nil {
			if err := bg.Pool.ReleaseTimeout(timeLeft(ctx)); err != nil {
				logger.Warn("notification workers did not drain", zap.Error(err))
			}
		}
	}

	if deps.Broker != nil {
		if err := deps.Broker.Close(); err != nil {
			logger.Warn("event bus close failed", zap.Error(err))
		}
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}

// timeLeft returns the time until ctx's deadline, or a short default.
func timeLeft(ctx context.Context) time.Duration {
	if d, ok := ctx.Deadline(); ok {
		if left := time.Until(d); left > 0 {
			return left
		}
		return 0
	}
	return 10 * time.Second
}
