package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/hackgods/workshop-scheduler/internal/app"
	"github.com/hackgods/workshop-scheduler/internal/config"
	"github.com/hackgods/workshop-scheduler/internal/logging"
)

type appKey struct{}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "schedctl",
		Short:        "Workshop scheduler maintenance and reports",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if !verbose {
				level = "warn"
			}
			logger := logging.New("schedctl", level, cfg.LogFormat, cmd.ErrOrStderr())

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a, ok := cmd.Context().Value(appKey{}).(*app.App); ok {
				a.Close()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at the configured LOG_LEVEL instead of warn")

	root.AddCommand(
		newMigrateCmd(),
		newTodayCmd(),
		newStatsCmd(),
		newCheckCmd(),
		newStaffCmd(),
	)
	return root
}

func appFrom(cmd *cobra.Command) *app.App {
	return cmd.Context().Value(appKey{}).(*app.App)
}
