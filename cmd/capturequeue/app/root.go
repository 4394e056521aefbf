// Package app wires capturequeue's subcommands: serve, migrate, and the two
// standalone dispatcher processes.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shifthive/capturequeue/pkg/config"
	"github.com/shifthive/capturequeue/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "capturequeue",
	DisableAutoGenTag: true,
	Short:             "Capture session lifecycle and job coordination for scheduled screenshot uploads",
	Run: func(cmd *cobra.Command, _ []string) {
		if err := cmd.Help(); err != nil {
			logger.Errorf("error displaying help: %v", err)
		}
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize()
	},
}

// NewRootCmd builds the capturequeue root command and its subcommands.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a capturequeue configuration file")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		logger.Errorf("error binding config flag: %v", err)
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newDispatchSessionsCmd())
	rootCmd.AddCommand(newDispatchNotificationsCmd())

	rootCmd.SilenceUsage = true
	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(viper.GetString("config"), cmd.Flags())
}
