package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wheelhouse/internal/bootstrap"
	"wheelhouse/internal/gpu"
	"wheelhouse/internal/manifest"
	"wheelhouse/internal/wheelcache"
)

type planRow struct {
	Group       string `json:"group"`
	Requirement string `json:"requirement"`
	IndexURL    string `json:"index_url,omitempty"`
	Cache       string `json:"cache"`
	Wheel       string `json:"wheel,omitempty"`
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the artifacts a bootstrap would install on this host",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnvironment(cmd, func(env *bootstrap.Environment) error {
				cfg := env.Config
				cuda, info := bootstrap.TorchVariant(cmd.Context(), cfg.Torch.Variant, gpu.NewNvidiaDetector(gpu.WithLogger(env.Logger)))
				torch, ok := env.Manifest.TorchGroup(cuda)
				if !ok {
					return fmt.Errorf("manifest %s has no torch group", env.Manifest.Source)
				}

				groups := []string{manifest.GroupBootstrap, torch.Name}
				if cfg.Requirements.File == "" {
					groups = append(groups, manifest.GroupRequirements)
				}
				rows, err := planRows(env.Manifest, env.Cache, groups)
				if err != nil {
					return err
				}

				if jsonOutput {
					return writeJSON(cmd, rows)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Manifest: %s\n", env.Manifest.Source)
				fmt.Fprintf(out, "PyTorch:  %s (%s)\n", torch.Name, gpuSummary(info))
				if cfg.Requirements.File != "" {
					fmt.Fprintf(out, "Requirements file: %s\n", cfg.Requirements.File)
				}
				table := make([][]string, 0, len(rows))
				for _, row := range rows {
					table = append(table, []string{row.Group, row.Requirement, row.Cache, row.Wheel})
				}
				fmt.Fprintln(out, renderTable([]string{"Group", "Artifact", "Cache", "Wheel"}, table, nil))
				return nil
			}, bootstrap.WithoutJournal())
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func planRows(m *manifest.Manifest, cache *wheelcache.Cache, groups []string) ([]planRow, error) {
	var rows []planRow
	for _, name := range groups {
		group, ok := m.Group(name)
		if !ok {
			return nil, fmt.Errorf("manifest group %q not found", name)
		}
		items, err := group.Items()
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			row := planRow{
				Group:       group.Name,
				Requirement: item.Artifact.Requirement,
				IndexURL:    item.Artifact.IndexURL,
			}
			switch {
			case cache == nil:
				row.Cache = "disabled"
			case !item.Artifact.HasCacheName():
				row.Cache = "range"
			default:
				entry, hit, err := cache.Lookup(item.Artifact)
				if err != nil {
					return nil, err
				}
				if hit {
					row.Cache = "hit"
					row.Wheel = entry.Name()
				} else {
					row.Cache = "miss"
				}
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func gpuSummary(info gpu.Info) string {
	if info.Count > 0 {
		return fmt.Sprintf("%d GPU(s)", info.Count)
	}
	if info.Detail != "" {
		return info.Detail
	}
	return "no GPU"
}
