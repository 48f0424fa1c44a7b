package fonts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"wheelhouse/internal/logging"
)

// ErrUnknownDistro reports a Linux host without a recognised package manager.
var ErrUnknownDistro = errors.New("unrecognized Linux distribution")

// Runner executes a package manager command.
type Runner func(ctx context.Context, name string, args ...string) error

// Plan is the package manager command chosen for the host.
type Plan struct {
	Manager string
	Command []string
}

// Option configures the installer.
type Option func(*Installer)

// WithRunner injects a command runner (primarily for tests).
func WithRunner(run Runner) Option {
	return func(i *Installer) {
		if run != nil {
			i.run = run
		}
	}
}

// WithRoot resolves /etc/* release files under root (primarily for tests).
func WithRoot(root string) Option {
	return func(i *Installer) {
		i.root = root
	}
}

// WithGOOS overrides the runtime operating system (primarily for tests).
func WithGOOS(goos string) Option {
	return func(i *Installer) {
		i.goos = goos
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Installer) {
		i.logger = logging.NewComponentLogger(logger, "fonts")
	}
}

// Installer installs Noto fonts through the system package manager.
type Installer struct {
	run    Runner
	root   string
	goos   string
	logger *slog.Logger
}

// New constructs a font installer.
func New(opts ...Option) *Installer {
	i := &Installer{
		run:    runCommand,
		root:   "/",
		goos:   runtime.GOOS,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Applies reports whether font installation is attempted on this OS.
func (i *Installer) Applies() bool {
	return i.goos == "linux"
}

// Plan picks apt-get for Debian derivatives and yum for Red Hat derivatives.
func (i *Installer) Plan() (Plan, error) {
	switch {
	case i.exists("etc/debian_version"):
		return Plan{Manager: "apt-get", Command: []string{"sudo", "apt-get", "install", "-y", "fonts-noto"}}, nil
	case i.exists("etc/redhat-release"):
		return Plan{Manager: "yum", Command: []string{"sudo", "yum", "install", "-y", "google-noto*"}}, nil
	default:
		return Plan{}, ErrUnknownDistro
	}
}

// Install runs the planned command. The returned plan names the package
// manager even when the command fails.
func (i *Installer) Install(ctx context.Context) (Plan, error) {
	plan, err := i.Plan()
	if err != nil {
		logging.WarnWithContext(i.logger, "noto font install skipped", "fonts_skipped",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "install Noto fonts manually"),
			logging.String(logging.FieldImpact, "subtitles may render CJK text with fallback glyphs"),
		)
		return plan, err
	}
	if err := i.run(ctx, plan.Command[0], plan.Command[1:]...); err != nil {
		logging.WarnWithContext(i.logger, "noto font install failed", "fonts_failed",
			logging.String("manager", plan.Manager),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "install Noto fonts manually"),
			logging.String(logging.FieldImpact, "subtitles may render CJK text with fallback glyphs"),
		)
		return plan, fmt.Errorf("install noto fonts with %s: %w", plan.Manager, err)
	}
	i.logger.Info("noto fonts installed",
		logging.String(logging.FieldEventType, "fonts_installed"),
		logging.String("manager", plan.Manager))
	return plan, nil
}

func (i *Installer) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(i.root, rel))
	return err == nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, lastLine(out))
	}
	return nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
