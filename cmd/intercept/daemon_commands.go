package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"intercept/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, status)
				}
				printStatus(cmd, status)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	return cmd
}

func printStatus(cmd *cobra.Command, status *ipc.StatusResponse) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Intercept Daemon", colorize) {
		fmt.Fprintln(out, line)
	}

	runningKind := statusError
	runningMsg := "not running"
	if status.Running {
		runningKind = statusOK
		runningMsg = fmt.Sprintf("pid %d", status.PID)
	}
	fmt.Fprintln(out, renderStatusLine("Daemon", runningKind, runningMsg, colorize))

	gpsKind := statusWarn
	gpsMsg := "no fix"
	if status.GPSFix {
		gpsKind = statusOK
		gpsMsg = "fix acquired"
	}
	fmt.Fprintln(out, renderStatusLine("GPS", gpsKind, gpsMsg, colorize))

	fmt.Fprintln(out, renderStatusLine("WiFi networks", statusInfo, fmt.Sprintf("%d", status.WifiNetworks), colorize))
	fmt.Fprintln(out, renderStatusLine("WiFi clients", statusInfo, fmt.Sprintf("%d", status.WifiClients), colorize))
	fmt.Fprintln(out, renderStatusLine("Bluetooth devices", statusInfo, fmt.Sprintf("%d", status.BTDevices), colorize))
	fmt.Fprintln(out, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))

	for _, adapter := range status.Adapters {
		kind := statusOK
		msg := fmt.Sprintf("%s, present", adapter.Subsystem)
		if !adapter.Present {
			kind = statusWarn
			msg = fmt.Sprintf("%s, removed", adapter.Subsystem)
		}
		fmt.Fprintln(out, renderStatusLine("Adapter "+adapter.Name, kind, msg, colorize))
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Daemon stopped: %s\n", yesNo(resp.Stopped))
				return nil
			})
		},
	}
}
