package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"wheelhouse/internal/config"
	"wheelhouse/internal/console"
	"wheelhouse/internal/fonts"
	"wheelhouse/internal/gpu"
	"wheelhouse/internal/i18n"
	"wheelhouse/internal/installer"
	"wheelhouse/internal/journal"
	"wheelhouse/internal/kvstore"
	"wheelhouse/internal/logging"
	"wheelhouse/internal/manifest"
	"wheelhouse/internal/pip"
	"wheelhouse/internal/preflight"
	"wheelhouse/internal/wheelcache"
)

// Environment is the set of collaborators built from a config.
type Environment struct {
	Config    *config.Config
	Pip       *pip.Runner
	Cache     *wheelcache.Cache
	Journal   *journal.Store
	Installer *installer.Installer
	Manifest  *manifest.Manifest
	Console   *console.Console
	Logger    *slog.Logger
}

// EnvironmentOption configures NewEnvironment.
type EnvironmentOption func(*envOptions)

type envOptions struct {
	pipOutput io.Writer
	pipOpts   []pip.Option
	noJournal bool
}

// WithPipOutput streams pip output to w.
func WithPipOutput(w io.Writer) EnvironmentOption {
	return func(o *envOptions) {
		o.pipOutput = w
	}
}

// WithPipOptions passes extra options to the pip runner (primarily for tests).
func WithPipOptions(opts ...pip.Option) EnvironmentOption {
	return func(o *envOptions) {
		o.pipOpts = append(o.pipOpts, opts...)
	}
}

// WithoutJournal skips opening the install journal.
func WithoutJournal() EnvironmentOption {
	return func(o *envOptions) {
		o.noJournal = true
	}
}

// NewEnvironment wires the pip runner, wheel cache, journal, installer,
// manifest, and console from cfg. Close releases the journal.
func NewEnvironment(cfg *config.Config, logger *slog.Logger, out io.Writer, opts ...EnvironmentOption) (*Environment, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	var o envOptions
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	tr, err := i18n.New(cfg.Display.Language)
	if err != nil {
		return nil, err
	}

	pipOpts := []pip.Option{pip.WithLogger(logger), pip.WithEnv(cfg.Python.ExtraEnv)}
	if o.pipOutput != nil {
		pipOpts = append(pipOpts, pip.WithOutput(o.pipOutput))
	}
	pipOpts = append(pipOpts, o.pipOpts...)
	runner, err := pip.New(cfg.PythonBinary(), pipOpts...)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Load(cfg.Paths.Manifest)
	if err != nil {
		return nil, err
	}

	env := &Environment{
		Config:   cfg,
		Pip:      runner,
		Manifest: m,
		Console:  console.New(out, console.WithTranslator(tr)),
		Logger:   logger,
	}

	instOpts := []installer.Option{
		installer.WithLogger(logger),
		installer.WithIndexURL(cfg.Python.IndexURL),
		installer.WithStrictOffline(cfg.Python.StrictOffline),
	}
	if cfg.CacheEnabled() {
		cache, err := OpenCache(cfg, logger)
		if err != nil {
			return nil, err
		}
		env.Cache = cache
		instOpts = append(instOpts, installer.WithCache(cache))
	}
	if !o.noJournal {
		store, err := journal.Open(cfg.JournalPath())
		if err != nil {
			return nil, fmt.Errorf("open install journal: %w", err)
		}
		env.Journal = store
		instOpts = append(instOpts, installer.WithRecorder(store))
	}

	inst, err := installer.New(runner, instOpts...)
	if err != nil {
		_ = env.Close()
		return nil, err
	}
	env.Installer = inst
	return env, nil
}

// OpenCache opens the configured wheel cache. When the drive mount is
// required the mount is verified first, so an unmounted drive never gets a
// local cache folder created under its mount point.
func OpenCache(cfg *config.Config, logger *slog.Logger) (*wheelcache.Cache, error) {
	if !cfg.CacheEnabled() {
		return nil, errors.New("no wheel cache configured")
	}
	if cfg.Drive.RequireMount {
		if result := preflight.CheckDriveMount(cfg.Drive.MountPoint); !result.Passed {
			logging.ErrorWithContext(logger, "drive not mounted", "preflight_failed",
				logging.String("detail", result.Detail),
				logging.String(logging.FieldErrorHint, "mount the drive, then rerun"))
			return nil, fmt.Errorf("%w: %s: %s", ErrPreflight, result.Name, result.Detail)
		}
	}
	cache, err := wheelcache.Open(cfg.Paths.CacheDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open wheel cache: %w", err)
	}
	return cache, nil
}

// Sequence returns a bootstrap sequence using the environment's collaborators
// and the host's GPU, fonts, and kv store.
func (e *Environment) Sequence() (*Sequence, error) {
	kv, err := kvstore.Open(e.Config.Paths.KVStore)
	if err != nil {
		return nil, err
	}
	seq := &Sequence{
		Config:    e.Config,
		Manifest:  e.Manifest,
		Installer: e.Installer,
		Pip:       e.Pip,
		GPU:       gpu.NewNvidiaDetector(gpu.WithLogger(e.Logger)),
		Fonts:     fonts.New(fonts.WithLogger(e.Logger)),
		KV:        kv,
		Console:   e.Console,
		Logger:    e.Logger,
	}
	if e.Cache != nil {
		seq.Lock = e.Cache
	}
	return seq, nil
}

// Close releases the journal.
func (e *Environment) Close() error {
	if e == nil || e.Journal == nil {
		return nil
	}
	return e.Journal.Close()
}
