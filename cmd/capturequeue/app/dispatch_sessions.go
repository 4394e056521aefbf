package app

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/shifthive/capturequeue/pkg/db"
	"github.com/shifthive/capturequeue/pkg/dispatcher"
	"github.com/shifthive/capturequeue/pkg/session"
)

func newDispatchSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch-sessions",
		Short: "Run the closed-session claim loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.CoreDisabled() {
				return fmt.Errorf("database-url is not set, refusing to start")
			}

			ctx := cmd.Context()
			if err := db.EnsureSchema(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}

			pool, err := db.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			d := dispatcher.NewSessionDispatcher(
				session.New(pool),
				clockwork.NewRealClock(),
				cfg.DispatcherSessionsEnabled,
				cfg.DispatcherSessionsPollSecs,
				prometheus.DefaultRegisterer,
			)
			d.Run(ctx)
			return nil
		},
	}
}
