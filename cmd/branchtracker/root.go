package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag)
	reportOpts := &reportOptions{}

	rootCmd := &cobra.Command{
		Use:   "branchtracker",
		Short: "Check that every branch event this quarter has a notification email",
		Long: "branchtracker reads this quarter's Google Calendar events, extracts branch IDs " +
			"(B123, B-071, ...) and checks the mailbox for a matching email from an allowed " +
			"sender. Running it without a subcommand generates the report.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, ctx, reportOpts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level override (debug, info, warn, error)")
	reportOpts.bindFlags(rootCmd)

	rootCmd.AddCommand(newReportCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newAuthCommand(ctx))

	return rootCmd
}
