package gpu

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"wheelhouse/internal/logging"
)

// Info describes the NVIDIA devices visible to the host.
type Info struct {
	Available bool
	Count     int
	Names     []string
	// Detail explains why no GPU was reported.
	Detail string
}

// Detector reports GPU availability.
type Detector interface {
	Detect(ctx context.Context) Info
}

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Option configures the NVIDIA detector.
type Option func(*NvidiaDetector)

// WithRunner injects a command runner (primarily for tests).
func WithRunner(run Runner) Option {
	return func(d *NvidiaDetector) {
		if run != nil {
			d.run = run
		}
	}
}

// WithGOOS overrides the runtime operating system (primarily for tests).
func WithGOOS(goos string) Option {
	return func(d *NvidiaDetector) {
		d.goos = goos
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *NvidiaDetector) {
		d.logger = logging.NewComponentLogger(logger, "gpu")
	}
}

// NvidiaDetector queries nvidia-smi for device names.
type NvidiaDetector struct {
	binary string
	run    Runner
	goos   string
	logger *slog.Logger
}

// NewNvidiaDetector constructs a detector that shells out to nvidia-smi.
func NewNvidiaDetector(opts ...Option) *NvidiaDetector {
	d := &NvidiaDetector{
		binary: "nvidia-smi",
		run:    runCommand,
		goos:   runtime.GOOS,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect never fails; any error means no usable GPU.
func (d *NvidiaDetector) Detect(ctx context.Context) Info {
	if d.goos == "darwin" {
		return Info{Detail: "GPU detection skipped on macOS"}
	}
	out, err := d.run(ctx, d.binary, "--query-gpu=name", "--format=csv,noheader")
	if err != nil {
		detail := fmt.Sprintf("%s unavailable: %v", d.binary, err)
		if errors.Is(err, exec.ErrNotFound) {
			detail = fmt.Sprintf("%s not found; no NVIDIA driver", d.binary)
		}
		d.logger.Debug("gpu query failed", logging.String("detail", detail))
		return Info{Detail: detail}
	}
	names := parseNames(out)
	if len(names) == 0 {
		return Info{Detail: "no NVIDIA devices reported"}
	}
	d.logger.Info("gpu detected",
		logging.String(logging.FieldEventType, "gpu_detected"),
		logging.Int("count", len(names)),
		logging.String("names", strings.Join(names, ", ")))
	return Info{Available: true, Count: len(names), Names: names}
}

func parseNames(out []byte) []string {
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	return names
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

// Static reports a fixed answer, for hosts where the torch variant is pinned.
type Static Info

// Detect implements Detector.
func (s Static) Detect(context.Context) Info {
	return Info(s)
}
