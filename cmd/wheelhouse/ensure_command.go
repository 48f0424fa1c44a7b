package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"wheelhouse/internal/artifact"
	"wheelhouse/internal/bootstrap"
	"wheelhouse/internal/installer"
	"wheelhouse/internal/logging"
)

func newEnsureCommand(ctx *commandContext) *cobra.Command {
	var indexURL string
	var probe string

	cmd := &cobra.Command{
		Use:   "ensure <requirement>",
		Short: "Install one artifact through the wheel cache",
		Example: `  wheelhouse ensure torch==2.1.2
  wheelhouse ensure torch==2.0.0 --index-url https://download.pytorch.org/whl/cu118
  wheelhouse ensure opencv-python==4.8.1.78 --probe cv2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			art, err := artifact.Parse(args[0])
			if err != nil {
				return err
			}
			return ctx.withEnvironment(cmd, func(env *bootstrap.Environment) error {
				runCtx := logging.WithRunID(cmd.Context(), uuid.NewString())
				present := false
				if module := strings.TrimSpace(probe); module != "" {
					if present, err = env.Pip.CanImport(runCtx, module); err != nil {
						return err
					}
				}
				if env.Cache != nil {
					unlock, err := env.Cache.Lock()
					if err != nil {
						return err
					}
					defer unlock()
				}
				result, err := env.Installer.Ensure(runCtx, installer.Request{
					Artifact:       art,
					IndexURL:       strings.TrimSpace(indexURL),
					AlreadyPresent: present,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", art.Requirement, describeResult(result))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&indexURL, "index-url", "", "Package index for this artifact")
	cmd.Flags().StringVar(&probe, "probe", "", "Skip the install when this module already imports")
	return cmd
}

func describeResult(result installer.Result) string {
	switch result.Tier {
	case installer.TierSkipped:
		return "already present"
	case installer.TierCache:
		return "installed from cache (" + wheelLabel(result.WheelPath) + ")"
	case installer.TierFetch:
		return "fetched into cache and installed (" + wheelLabel(result.WheelPath) + ")"
	default:
		return "installed directly from the package index"
	}
}

func wheelLabel(path string) string {
	if path == "" {
		return "-"
	}
	return filepath.Base(path)
}
