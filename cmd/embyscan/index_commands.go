package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"embyscan/internal/ipc"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Inspect and manage the file index",
	}

	indexCmd.AddCommand(newIndexStatsCommand(ctx))
	indexCmd.AddCommand(newIndexClearCommand(ctx))
	indexCmd.AddCommand(newIndexHealthCommand(ctx))

	return indexCmd
}

func newIndexStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.IndexStats()
				if err != nil {
					return fmt.Errorf("index stats: %w", err)
				}
				if resp == nil {
					return errors.New("missing index stats response")
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Files", "Pending", "Last trigger"},
					[][]string{{
						strconv.FormatInt(resp.Files, 10),
						strconv.FormatInt(resp.Pending, 10),
						formatTriggerTime(resp.LastTriggeredAt),
					}},
					[]columnAlignment{alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newIndexClearCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all indexed files and pending changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("index clear discards all tracked state; re-run with --yes to confirm")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.IndexClear()
				if err != nil {
					return fmt.Errorf("clear index: %w", err)
				}
				if resp == nil {
					return errors.New("missing index clear response")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d index entries\n", resp.Removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm clearing the index")
	return cmd
}

func newIndexHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run index database diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DatabaseHealth()
				if err != nil {
					return fmt.Errorf("database health: %w", err)
				}
				if resp == nil {
					return errors.New("missing database health response")
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				for _, line := range renderSectionHeader("Index database", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Path", statusInfo, resp.DBPath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Schema", statusInfo, strconv.Itoa(resp.SchemaVersion), colorize))

				integrityKind := statusOK
				if resp.IntegrityCheck != "ok" {
					integrityKind = statusError
				}
				fmt.Fprintln(stdout, renderStatusLine("Integrity", integrityKind, resp.IntegrityCheck, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Files", statusInfo, strconv.FormatInt(resp.Files, 10), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Pending", statusInfo, strconv.FormatInt(resp.Pending, 10), colorize))
				if resp.Error != "" {
					fmt.Fprintln(stdout, renderStatusLine("Error", statusError, resp.Error, colorize))
					return fmt.Errorf("index database unhealthy: %s", resp.Error)
				}
				return nil
			})
		},
	}
}
