package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"embyscan/internal/ipc"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Sweep the library roots and trigger a scan immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ScanNow()
				if err != nil {
					return fmt.Errorf("scan now: %w", err)
				}
				if resp == nil {
					return errors.New("missing scan response")
				}
				if resp.Message != "" {
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scan triggered with %d changes\n", resp.Found)
				return nil
			})
		},
	}
}
