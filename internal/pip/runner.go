package pip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"wheelhouse/internal/logging"
)

const outputTailLines = 20

// Options tune a single pip invocation.
type Options struct {
	// IndexURL replaces the default package index.
	IndexURL string
	// FindLinks adds a local directory of wheels to resolution.
	FindLinks string
	// NoIndex disables every remote index.
	NoIndex bool
	// Env adds variables for this invocation only ("KEY=value").
	Env []string
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, env []string, onOutput func(string)) error
}

// Option configures the runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithLogger attaches a logger; pip output is logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logging.NewComponentLogger(logger, "pip")
	}
}

// WithOutput streams pip output lines to w.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.output = w
	}
}

// WithEnv sets variables applied to every invocation.
func WithEnv(env map[string]string) Option {
	return func(r *Runner) {
		keys := make([]string, 0, len(env))
		for key := range env {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			r.env = append(r.env, key+"="+env[key])
		}
	}
}

// Runner drives "python -m pip" for one interpreter.
type Runner struct {
	python string
	exec   Executor
	env    []string
	logger *slog.Logger
	output io.Writer
}

// New constructs a runner for the given interpreter.
func New(python string, opts ...Option) (*Runner, error) {
	python = strings.TrimSpace(python)
	if python == "" {
		return nil, errors.New("python interpreter required")
	}
	runner := &Runner{
		python: python,
		exec:   commandExecutor{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner, nil
}

// Python returns the interpreter the runner invokes.
func (r *Runner) Python() string {
	return r.python
}

// Download fetches a requirement and its dependencies as files into dest.
func (r *Runner) Download(ctx context.Context, requirement, dest string, opts Options) error {
	if strings.TrimSpace(dest) == "" {
		return errors.New("download destination required")
	}
	args := []string{"-m", "pip", "download", "-d", dest}
	args = append(args, indexArgs(opts)...)
	args = append(args, requirement)
	return r.run(ctx, "download", requirement, args, opts.Env)
}

// Install installs a requirement string or a local wheel path.
func (r *Runner) Install(ctx context.Context, target string, opts Options) error {
	args := []string{"-m", "pip", "install"}
	args = append(args, indexArgs(opts)...)
	args = append(args, target)
	return r.run(ctx, "install", target, args, opts.Env)
}

// InstallRequirements installs every line of a requirements file.
func (r *Runner) InstallRequirements(ctx context.Context, file string, opts Options) error {
	if strings.TrimSpace(file) == "" {
		return errors.New("requirements file required")
	}
	args := []string{"-m", "pip", "install", "-r", file}
	args = append(args, indexArgs(opts)...)
	env := append([]string{"PIP_NO_CACHE_DIR=0", "PYTHONIOENCODING=utf-8"}, opts.Env...)
	return r.run(ctx, "install", file, args, env)
}

// CanImport reports whether the interpreter can import module. A failed
// import is not an error; failing to start the interpreter is.
func (r *Runner) CanImport(ctx context.Context, module string) (bool, error) {
	module = strings.TrimSpace(module)
	if module == "" {
		return false, errors.New("module name required")
	}
	err := r.exec.Run(ctx, r.python, []string{"-c", "import " + module}, r.env, nil)
	if err == nil {
		return true, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if _, ok := ExitCode(err); ok {
		return false, nil
	}
	return false, fmt.Errorf("probe import %s: %w", module, err)
}

func (r *Runner) run(ctx context.Context, op, target string, args, extraEnv []string) error {
	env := append(append([]string(nil), r.env...), extraEnv...)
	tail := newTail(outputTailLines)
	r.logger.Debug("pip invocation",
		logging.String("op", op),
		logging.String("target", target),
		logging.String("command", r.python+" "+strings.Join(args, " ")))

	err := r.exec.Run(ctx, r.python, args, env, func(line string) {
		tail.add(line)
		r.logger.Debug(line, logging.String("op", op))
		if r.output != nil {
			fmt.Fprintln(r.output, line)
		}
	})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &Error{Op: op, Target: target, Output: tail.lines(), Err: err}
}

func indexArgs(opts Options) []string {
	var args []string
	if opts.NoIndex {
		args = append(args, "--no-index")
	} else if url := strings.TrimSpace(opts.IndexURL); url != "" {
		args = append(args, "--index-url", url)
	}
	if dir := strings.TrimSpace(opts.FindLinks); dir != "" {
		args = append(args, "--find-links", dir)
	}
	return args
}

type tailBuffer struct {
	mu    sync.Mutex
	max   int
	items []string
}

func newTail(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, line)
	if len(t.items) > t.max {
		t.items = t.items[len(t.items)-t.max:]
	}
}

func (t *tailBuffer) lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.items...)
}

// ExitCode extracts the process exit status from err when it wraps an
// *exec.ExitError.
func ExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}
