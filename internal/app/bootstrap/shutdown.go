// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"go.uber.org/zap"

	"github.com/eliomatters/matterhub/internal/app/system/timeouts"
)

// Shutdown persists operator settings and tears down the store
// connection. Safe to call in any mode; demo runs have nothing remote
// to disconnect.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.Settings.Sync(); err != nil {
		a.Log.Warn("settings sync failed on shutdown", zap.Error(err))
	}
	if a.deps.MongoClient != nil {
		a.Log.Info("disconnecting document store")
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		if err := a.deps.MongoClient.Disconnect(ctx); err != nil {
			a.Log.Error("store disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
