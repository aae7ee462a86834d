package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelpost/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running daemon over its HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if err != nil {
				if api.IsAPIUnavailable(err) {
					fmt.Fprintln(out, renderSectionHeader("Daemon", colorize))
					fmt.Fprintln(out, renderStatusLine("Daemon", statusError, "not reachable; start it with `reelpost run`", colorize))
					return nil
				}
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}
			fmt.Fprint(out, renderDaemonStatus(status, colorize))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit status as JSON")
	return cmd
}

func renderDaemonStatus(status api.DaemonStatus, colorize bool) string {
	var lines []string
	lines = append(lines, renderSectionHeader("Daemon", colorize))
	if status.Running {
		uptime := (time.Duration(status.UptimeSeconds) * time.Second).String()
		lines = append(lines, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d, up %s)", status.PID, uptime), colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "stopped", colorize))
	}
	lines = append(lines,
		renderStatusLine("Window", statusInfo, fmt.Sprintf("%ds, %d workers", status.WaitSeconds, status.Workers), colorize),
		renderStatusLine("Pending", pendingKind(status.Pending), fmt.Sprintf("%d armed, %d publishing", status.Pending, status.InFlight), colorize),
		renderStatusLine("Poll offset", statusInfo, fmt.Sprintf("%d", status.PollOffset), colorize),
		renderStatusLine("Store", statusInfo, fmt.Sprintf("%s %s", status.StoreDriver, status.StoreTarget), colorize),
	)
	lines = append(lines, renderSectionHeader("Catalog", colorize))
	unposted := status.Catalog.Movies - status.Catalog.Posted
	kind := statusOK
	if unposted > 0 {
		kind = statusWarn
	}
	lines = append(lines,
		renderStatusLine("Movies", statusInfo, fmt.Sprintf("%d (%d files)", status.Catalog.Movies, status.Catalog.Qualities), colorize),
		renderStatusLine("Posted", kind, fmt.Sprintf("%d posted, %d waiting", status.Catalog.Posted, unposted), colorize),
	)
	return strings.Join(lines, "\n") + "\n"
}

func pendingKind(pending int) statusKind {
	if pending > 0 {
		return statusWarn
	}
	return statusOK
}
