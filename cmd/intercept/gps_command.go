package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"intercept/internal/ipc"
)

func newGPSCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "gps",
		Short: "Show the current GPS fix",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.GPS()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				printGPS(cmd, resp)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit position as JSON")
	return cmd
}

func printGPS(cmd *cobra.Command, resp *ipc.GPSResponse) {
	out := cmd.OutOrStdout()
	if !resp.Fix {
		if resp.Error != "" {
			fmt.Fprintf(out, "No GPS fix (%s)\n", resp.Error)
		} else {
			fmt.Fprintln(out, "No GPS fix")
		}
		return
	}

	pos := resp.Position
	fmt.Fprintf(out, "Latitude:   %.6f\n", pos.Latitude)
	fmt.Fprintf(out, "Longitude:  %.6f\n", pos.Longitude)
	if pos.Altitude != nil {
		fmt.Fprintf(out, "Altitude:   %.1f m\n", *pos.Altitude)
	}
	if pos.Speed != nil {
		fmt.Fprintf(out, "Speed:      %.1f m/s\n", *pos.Speed)
	}
	if pos.Heading != nil {
		fmt.Fprintf(out, "Heading:    %.1f\n", *pos.Heading)
	}
	fmt.Fprintf(out, "Fix:        %dD\n", pos.FixQuality)
	if pos.Device != "" {
		fmt.Fprintf(out, "Device:     %s\n", pos.Device)
	}
	if pos.Timestamp != nil {
		fmt.Fprintf(out, "Timestamp:  %s\n", seenCell(pos.Timestamp))
	}
}
