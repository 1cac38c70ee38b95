// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the invitation sweep, waits for in-flight event handlers,
// then disconnects MongoDB.
// Events published after the drain starts are dropped.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Services != nil && deps.Services.Sweep != nil {
		deps.Services.Sweep.Stop()
	}
	if deps.Services != nil && deps.Services.Bus != nil {
		drainCtx, cancel := context.WithTimeout(ctx, appCfg.EventDrainTimeout)
		err := deps.Services.Bus.Drain(drainCtx)
		cancel()
		if err != nil {
			logger.Warn("event drain incomplete",
				zap.Int64("in_flight", deps.Services.Bus.InFlight()),
				zap.Error(err))
		} else {
			logger.Info("event bus drained")
		}
	}

	if deps.TaskHubMongoClient != nil {
		logger.Info("disconnecting TaskHub MongoDB client")
		if err := deps.TaskHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
