package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"embyscan/internal/daemonctl"
	"embyscan/internal/ipc"
	"embyscan/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and index status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			if jsonOutput {
				encoder := json.NewEncoder(stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(status)
			}
			colorize := shouldColorize(stdout)
			for _, line := range renderStatusReport(status, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Checks", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusWarn
				}
				fmt.Fprintln(stdout, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	return cmd
}

func renderStatusReport(status *ipc.StatusResponse, colorize bool) []string {
	lines := renderSectionHeader("Daemon", colorize)
	if status.Running {
		detail := ""
		if status.PID > 0 {
			detail = fmt.Sprintf("pid %d", status.PID)
		}
		lines = append(lines, renderStatusLine("Running", statusOK, detail, colorize))
	} else {
		lines = append(lines, renderStatusLine("Running", statusWarn, "not running", colorize))
	}
	webhookKind := statusInfo
	webhookDetail := "disabled"
	if status.WebhookEnabled {
		webhookKind = statusOK
		webhookDetail = status.WebhookBind
	}
	lines = append(lines, renderStatusLine("Webhook", webhookKind, webhookDetail, colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Library roots", colorize)...)
	if len(status.Roots) == 0 {
		lines = append(lines, renderStatusLine("Roots", statusWarn, "none configured", colorize))
	}
	for i, root := range status.Roots {
		lines = append(lines, renderStatusLine(fmt.Sprintf("Root %d", i+1), statusInfo, root, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Index", colorize)...)
	lines = append(lines, renderTable(
		[]string{"Database", "Files", "Pending", "Last trigger"},
		[][]string{{
			status.IndexDBPath,
			strconv.FormatInt(status.Files, 10),
			strconv.FormatInt(status.Pending, 10),
			formatTriggerTime(status.LastTriggeredAt),
		}},
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
	))
	return lines
}

func formatTriggerTime(when *time.Time) string {
	if when == nil || when.IsZero() {
		return "never"
	}
	local := when.Local()
	return strings.TrimSpace(local.Format("2006-01-02 15:04:05"))
}
