package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"intercept/internal/correlation"
	"intercept/internal/ipc"
)

func newCorrelationsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var includeHistorical bool
	var minConfidence float64

	cmd := &cobra.Command{
		Use:   "correlations",
		Short: "List WiFi/Bluetooth correlation candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				req := ipc.CorrelationsRequest{IncludeHistorical: &includeHistorical}
				if cmd.Flags().Changed("min-confidence") {
					req.MinConfidence = &minConfidence
				}
				resp, err := client.Correlations(req)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				printCorrelations(cmd, resp)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit correlations as JSON")
	cmd.Flags().BoolVar(&includeHistorical, "historical", true, "Include persisted correlations absent from live caches")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "Confidence floor between 0 and 1")
	return cmd
}

func printCorrelations(cmd *cobra.Command, resp *ipc.CorrelationsResponse) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Inputs: %d wifi, %d bluetooth\n", resp.WifiCount, resp.BTCount)
	for _, warning := range resp.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warning.Message)
	}
	if len(resp.Correlations) == 0 {
		fmt.Fprintln(out, "No correlations found")
		return
	}

	rows := make([][]string, 0, len(resp.Correlations))
	for _, cand := range resp.Correlations {
		rows = append(rows, []string{
			deviceLabel(cand.WifiID, cand.WifiName),
			deviceLabel(cand.BTID, cand.BTName),
			confidenceCell(cand.Confidence),
			cand.Reason,
			seenCell(cand.LastSeen),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]tableColumn{
			{header: "WiFi"},
			{header: "Bluetooth"},
			{header: "Confidence", numeric: true},
			{header: "Reason"},
			{header: "Last Seen"},
		},
		rows,
	))
}

func deviceLabel(id, name string) string {
	if strings.TrimSpace(name) == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", id, name)
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "analyze <wifi-id> <bt-id>",
		Short: "Score one specific WiFi/Bluetooth device pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Analyze(args[0], args[1])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				printAnalysis(cmd, resp)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit analysis as JSON")
	return cmd
}

func printAnalysis(cmd *cobra.Command, resp *ipc.AnalyzeResponse) {
	out := cmd.OutOrStdout()
	for _, warning := range resp.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warning.Message)
	}
	if resp.Correlation == nil {
		fmt.Fprintln(out, resp.Message)
		return
	}
	printCandidate(out, resp.Correlation)
}

func printCandidate(out io.Writer, cand *correlation.Candidate) {
	fmt.Fprintf(out, "WiFi:       %s\n", deviceLabel(cand.WifiID, cand.WifiName))
	fmt.Fprintf(out, "Bluetooth:  %s\n", deviceLabel(cand.BTID, cand.BTName))
	fmt.Fprintf(out, "Confidence: %.2f\n", cand.Confidence)
	fmt.Fprintf(out, "Reason:     %s\n", cand.Reason)
	if cand.FirstSeen != nil {
		fmt.Fprintf(out, "First seen: %s\n", seenCell(cand.FirstSeen))
	}
	if cand.LastSeen != nil {
		fmt.Fprintf(out, "Last seen:  %s\n", seenCell(cand.LastSeen))
	}
}
