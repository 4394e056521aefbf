package app

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/shifthive/capturequeue/pkg/chatclient"
	"github.com/shifthive/capturequeue/pkg/db"
	"github.com/shifthive/capturequeue/pkg/dispatcher"
	"github.com/shifthive/capturequeue/pkg/notification"
)

func newDispatchNotificationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch-notifications",
		Short: "Run the pending schedule notification delivery loop",
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

			sender := chatclient.NewHTTPSender(cfg.ChatClientBaseURL, nil)
			d := dispatcher.NewNotificationDispatcher(
				notification.New(pool),
				dispatcher.SendFuncFromSender(sender),
				clockwork.NewRealClock(),
				cfg.DispatcherNotifEnabled,
				cfg.DispatcherNotifPollSecs,
				cfg.DispatcherNotifBatchSize,
				prometheus.DefaultRegisterer,
			)
			d.Run(ctx)
			return nil
		},
	}
}
