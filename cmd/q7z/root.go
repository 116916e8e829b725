package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"q7z/internal/app"
	"q7z/internal/extract"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevel string
	var input, output, filter string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "q7z [--input ARCHIVE --output DIR --filter WILDCARD]",
		Short: "Single-instance 7-Zip extraction coordinator",
		Long: "q7z extracts archives through 7-Zip. The first q7z process becomes the\n" +
			"Primary and shows progress; later invocations hand their request to it and exit.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := extract.New(input, output, filter)
			if err != nil {
				if errors.Is(err, extract.ErrIncomplete) {
					return fmt.Errorf("%w\n\n%s", err, cmd.UsageString())
				}
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var reqPtr *extract.Request
			if !req.IsZero() {
				reqPtr = &req
			}
			return app.Run(cmd.Context(), cfg, reqPtr, app.Options{LogLevel: logLevel})
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().StringVarP(&input, "input", "i", "", "Archive to extract")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Destination directory")
	rootCmd.Flags().StringVarP(&filter, "filter", "f", "", "Wildcard selecting archive entries, such as *")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
