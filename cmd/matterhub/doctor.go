// The doctor command: verify credentials, store connectivity, and write
// access without starting the operator loop.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eliomatters/matterhub/internal/app/bootstrap"
	"github.com/eliomatters/matterhub/internal/domain/models"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check credentials and store connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(logLevel())
		if err != nil {
			return err
		}
		defer logger.Sync()

		cfg, err := bootstrap.LoadConfig(vp, logger)
		if err != nil {
			return err
		}

		ctx := context.Background()
		app, err := bootstrap.Startup(ctx, cfg, nil, logger)
		if err != nil {
			return err
		}
		defer app.Shutdown(context.Background())

		if app.Session.Mode == models.Demo {
			fmt.Println("running in demo mode; nothing remote to check")
			return nil
		}
		if err := app.Engine.ConnectivityCheck(ctx); err != nil {
			return fmt.Errorf("connectivity check failed: %w", err)
		}
		fmt.Println("ok: store reachable, read and write verified")
		return nil
	},
}
