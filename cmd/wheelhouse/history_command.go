package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"wheelhouse/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent install outcomes from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg.JournalPath())
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []journal.Entry
			if id := strings.TrimSpace(runID); id != "" {
				entries, err = store.ForRun(cmd.Context(), id)
			} else {
				entries, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No installs recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Run", "Artifact", "Tier", "Result", "Duration"},
				historyRows(entries, time.Now()),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Only show entries from this run id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func historyRows(entries []journal.Entry, now time.Time) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		result := "ok"
		if !entry.Success {
			result = "failed"
			if msg := firstLine(entry.Error); msg != "" {
				result = "failed: " + msg
			}
		}
		rows = append(rows, []string{
			humanize.RelTime(entry.CreatedAt, now, "ago", "from now"),
			shortRunID(entry.RunID),
			entry.Artifact,
			entry.Tier,
			result,
			entry.Duration.Round(time.Millisecond).String(),
		})
	}
	return rows
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}

func firstLine(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.IndexByte(value, '\n'); idx >= 0 {
		value = value[:idx]
	}
	const maxLen = 60
	if len(value) > maxLen {
		value = value[:maxLen-3] + "..."
	}
	return value
}
