package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wheelhouse/internal/bootstrap"
	"wheelhouse/internal/config"
	"wheelhouse/internal/console"
	"wheelhouse/internal/deps"
	"wheelhouse/internal/gpu"
	"wheelhouse/internal/pip"
	"wheelhouse/internal/preflight"
)

type doctorCheck struct {
	label   string
	kind    statusKind
	message string
}

type doctorSection struct {
	title  string
	checks []doctorCheck
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the host before a bootstrap",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			colorize := console.ShouldColorize(cmd.OutOrStdout())
			out := cmd.OutOrStdout()

			configLabel := ctx.configPath
			if configLabel == "" {
				configLabel = "defaults"
			}

			sections := []doctorSection{
				{"Environment", append([]doctorCheck{{label: "Config", kind: statusInfo, message: configLabel}},
					toolChecks(cmd.Context(), cfg)...)},
				{"GPU", []doctorCheck{gpuCheck(cmd.Context(), cfg, gpu.NewNvidiaDetector(gpu.WithLogger(logger)))}},
				{"Storage", storageChecks(cfg)},
			}
			if !offline {
				sections = append(sections, doctorSection{"Package index", []doctorCheck{resultCheck(preflight.CheckIndex(cmd.Context(), cfg.Python.IndexURL), statusWarn)}})
			}

			problems := 0
			for i, section := range sections {
				if i > 0 {
					fmt.Fprintln(out)
				}
				writeLines(out, renderSectionHeader(section.title, colorize))
				for _, check := range section.checks {
					if check.kind == statusError {
						problems++
					}
					fmt.Fprintln(out, renderStatusLine(check.label, check.kind, check.message, colorize))
				}
			}
			if problems > 0 {
				return fmt.Errorf("doctor found %d problem(s)", problems)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the package index reachability check")
	return cmd
}

func toolChecks(ctx context.Context, cfg *config.Config) []doctorCheck {
	python := deps.CheckBinaries([]deps.Requirement{{Name: "Python", Command: cfg.PythonBinary()}})[0]
	checks := []doctorCheck{binaryCheck(python)}
	if python.Available {
		checks = append(checks, pipCheck(ctx, cfg))
	}

	ffmpeg := deps.CheckFFmpeg(cfg.FFmpegBinary())
	check := binaryCheck(ffmpeg)
	if !ffmpeg.Available {
		check.message = ffmpeg.Remediation
	}
	return append(checks, check)
}

func binaryCheck(status deps.Status) doctorCheck {
	if status.Available {
		return doctorCheck{label: status.Name, kind: statusOK, message: status.Command}
	}
	return doctorCheck{label: status.Name, kind: statusError, message: status.Detail}
}

func pipCheck(ctx context.Context, cfg *config.Config) doctorCheck {
	runner, err := pip.New(cfg.PythonBinary(), pip.WithEnv(cfg.Python.ExtraEnv))
	if err != nil {
		return doctorCheck{label: "pip", kind: statusError, message: err.Error()}
	}
	ok, err := runner.CanImport(ctx, "pip")
	switch {
	case err != nil:
		return doctorCheck{label: "pip", kind: statusError, message: err.Error()}
	case !ok:
		return doctorCheck{label: "pip", kind: statusError, message: "pip is not importable by " + cfg.PythonBinary()}
	}
	return doctorCheck{label: "pip", kind: statusOK, message: "importable"}
}

func gpuCheck(ctx context.Context, cfg *config.Config, detector gpu.Detector) doctorCheck {
	cuda, info := bootstrap.TorchVariant(ctx, cfg.Torch.Variant, detector)
	variant := "CPU build"
	if cuda {
		variant = "CUDA build"
	}
	if info.Count > 0 {
		return doctorCheck{label: "NVIDIA", kind: statusOK, message: fmt.Sprintf("%s; PyTorch %s", strings.Join(info.Names, ", "), variant)}
	}
	detail := info.Detail
	if detail == "" {
		detail = "no GPU"
	}
	return doctorCheck{label: "NVIDIA", kind: statusInfo, message: fmt.Sprintf("%s; PyTorch %s", detail, variant)}
}

func storageChecks(cfg *config.Config) []doctorCheck {
	checks := []doctorCheck{resultCheck(preflight.CheckDirectoryAccess("State", cfg.Paths.StateDir), statusError)}
	if cfg.Drive.RequireMount {
		checks = append(checks, resultCheck(preflight.CheckDriveMount(cfg.Drive.MountPoint), statusError))
	} else {
		checks = append(checks, doctorCheck{label: "Drive mount", kind: statusInfo, message: "not required"})
	}
	if cfg.CacheEnabled() {
		checks = append(checks, resultCheck(preflight.CheckDirectoryAccess("Wheel cache", cfg.Paths.CacheDir), statusError))
	} else {
		checks = append(checks, doctorCheck{label: "Wheel cache", kind: statusWarn, message: "disabled; every artifact installs from the index"})
	}
	return checks
}

func resultCheck(result preflight.Result, failure statusKind) doctorCheck {
	kind := statusOK
	if !result.Passed {
		kind = failure
	}
	return doctorCheck{label: result.Name, kind: kind, message: result.Detail}
}
