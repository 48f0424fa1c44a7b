package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"wheelhouse/internal/bootstrap"
	"wheelhouse/internal/installer"
)

func newBootstrapCommand(ctx *commandContext) *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Install the full Python environment",
		Long: `Run the whole bootstrap: preflight checks, display language, bootstrap
packages, the PyTorch build for this host, Noto fonts, application
requirements, and the ffmpeg check. Artifacts already in the wheel cache
install without touching the network.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnvironment(cmd, func(env *bootstrap.Environment) error {
				seq, err := env.Sequence()
				if err != nil {
					return err
				}
				report, runErr := seq.Run(cmd.Context())
				if summary && report != nil && len(report.Results) > 0 {
					printReportSummary(cmd.OutOrStdout(), report)
				}
				if errors.Is(runErr, bootstrap.ErrPreflight) {
					return fmt.Errorf("%w (run `wheelhouse doctor` for details)", runErr)
				}
				return runErr
			})
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", true, "Print a per-artifact tier summary after the run")
	return cmd
}

func printReportSummary(out io.Writer, report *bootstrap.Report) {
	counts := map[installer.Tier]int{}
	rows := make([][]string, 0, len(report.Results))
	for _, result := range report.Results {
		counts[result.Tier]++
		rows = append(rows, []string{
			result.Artifact.Requirement,
			result.Tier.String(),
			wheelLabel(result.WheelPath),
			result.Duration.Round(time.Millisecond).String(),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Artifact", "Tier", "Wheel", "Duration"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
	fmt.Fprintf(out, "Run %s: %d cached, %d fetched, %d direct, %d skipped, %d failures\n",
		report.RunID,
		counts[installer.TierCache],
		counts[installer.TierFetch],
		counts[installer.TierDirect],
		counts[installer.TierSkipped],
		len(report.Failures))
}
