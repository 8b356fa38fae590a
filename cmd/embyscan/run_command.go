package main

import (
	"strings"

	"github.com/spf13/cobra"

	"embyscan/internal/daemonrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "run [root ...]",
		Short: "Run the watcher daemon in the foreground",
		Long: "Run starts the daemon in the current process: it watches the configured\n" +
			"library roots (or the roots given as arguments), debounces filesystem\n" +
			"activity, and triggers Emby library scans.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if ctx.socketFlag != nil && strings.TrimSpace(*ctx.socketFlag) != "" {
				cfg.Paths.SocketPath = strings.TrimSpace(*ctx.socketFlag)
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel: logLevel,
				Roots:    args,
			})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	return cmd
}
