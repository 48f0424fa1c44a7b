package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wheelhouse/internal/config"
	"wheelhouse/internal/manifest"
)

func newManifestCommand(ctx *commandContext) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Print or scaffold the artifact manifest",
	}
	manifestCmd.AddCommand(newManifestShowCommand(ctx))
	manifestCmd.AddCommand(newManifestInitCommand())
	return manifestCmd
}

func newManifestShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List manifest groups and artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			m, err := manifest.Load(cfg.Paths.Manifest)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, m)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Manifest: %s\n", m.Source)
			var rows [][]string
			for _, group := range m.Groups {
				for _, entry := range group.Entries {
					index := entry.IndexURL
					if index == "" {
						index = group.IndexURL
					}
					rows = append(rows, []string{group.Name, entry.Requirement, entry.Import, index})
				}
			}
			fmt.Fprintln(out, renderTable([]string{"Group", "Requirement", "Import", "Index"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newManifestInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the built-in manifest to a file for editing",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := config.ExpandPath(strings.TrimSpace(targetPath))
			if err != nil {
				return fmt.Errorf("resolve manifest path: %w", err)
			}
			if err := manifest.WriteSample(target); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote manifest to %s\n", target)
			fmt.Fprintln(out, "Point paths.manifest at it to use the edited versions.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "manifest.toml", "Destination for the manifest file")
	return cmd
}
