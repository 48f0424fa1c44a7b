package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wheelhouse/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var runID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the wheelhouse log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogFile()
			opts := logs.Options{Lines: lines, Match: strings.TrimSpace(runID)}

			recent, offset, err := logs.Last(path, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			writeLines(out, recent)
			if !follow {
				if len(recent) == 0 {
					fmt.Fprintf(out, "No log lines in %s\n", path)
				}
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, opts, 250*time.Millisecond, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&runID, "run", "", "Only show lines from this run id")
	return cmd
}
