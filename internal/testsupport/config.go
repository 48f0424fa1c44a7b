package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"wheelhouse/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The wheel cache is enabled and fonts are disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheDir = filepath.Join(base, "wheels")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "state", "logs")
	cfgVal.Paths.KVStore = filepath.Join(base, "app", "config.yaml")
	cfgVal.Python.Interpreter = "python3"
	cfgVal.Fonts.Enabled = false

	builder := &configBuilder{t: t, cfg: &cfgVal}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithoutCache clears the cache directory so every artifact installs directly.
func WithoutCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.CacheDir = ""
	}
}

// WithTorchVariant overrides the torch variant selection.
func WithTorchVariant(variant string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Torch.Variant = variant
	}
}

// WithStubbedBinaries writes executables that exit 0 for the provided names
// into <base>/bin and puts that directory first on PATH for the test. If
// names is empty, ffmpeg is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg"}
		}
		binDir := StubDir(b.cfg)
		for _, name := range names {
			WriteStub(b.t, binDir, name, "exit 0\n")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WriteStub writes an executable shell script named name into dir.
func WriteStub(t testing.TB, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// StubDir returns the directory WithStubbedBinaries places executables in.
func StubDir(cfg *config.Config) string {
	return filepath.Join(BaseDir(cfg), "bin")
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
