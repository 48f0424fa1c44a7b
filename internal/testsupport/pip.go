package testsupport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"wheelhouse/internal/pip"
)

// PipCall records one FakePip invocation.
type PipCall struct {
	Op     string
	Target string
	Dest   string
	Opts   pip.Options
}

// FakePip stands in for the pip runner. Downloads materialize the configured
// wheel files in the destination directory; installs only record the call.
type FakePip struct {
	mu sync.Mutex

	// Wheels maps a requirement string to the filenames a download produces.
	Wheels map[string][]string
	// DownloadErr maps a requirement string to a download failure.
	DownloadErr map[string]error
	// InstallErr maps an install target (requirement, wheel path, or
	// requirements file) to a failure.
	InstallErr map[string]error
	// Importable lists modules CanImport reports as present.
	Importable map[string]bool

	calls []PipCall
}

// NewFakePip returns an empty fake.
func NewFakePip() *FakePip {
	return &FakePip{
		Wheels:      map[string][]string{},
		DownloadErr: map[string]error{},
		InstallErr:  map[string]error{},
		Importable:  map[string]bool{},
	}
}

// Download implements installer.PackageManager.
func (f *FakePip) Download(ctx context.Context, requirement, dest string, opts pip.Options) error {
	f.record(PipCall{Op: "download", Target: requirement, Dest: dest, Opts: opts})
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	err := f.DownloadErr[requirement]
	names := append([]string(nil), f.Wheels[requirement]...)
	f.mu.Unlock()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dest, name), []byte(name), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Install implements installer.PackageManager.
func (f *FakePip) Install(ctx context.Context, target string, opts pip.Options) error {
	f.record(PipCall{Op: "install", Target: target, Opts: opts})
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.InstallErr[target]
}

// InstallRequirements records a requirements file install.
func (f *FakePip) InstallRequirements(ctx context.Context, file string, opts pip.Options) error {
	f.record(PipCall{Op: "install-requirements", Target: file, Opts: opts})
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.InstallErr[file]
}

// CanImport reports the configured importability of module.
func (f *FakePip) CanImport(ctx context.Context, module string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if strings.TrimSpace(module) == "" {
		return false, errors.New("module name required")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Importable[module], nil
}

// Calls returns a copy of every recorded invocation.
func (f *FakePip) Calls() []PipCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PipCall(nil), f.calls...)
}

// CallsFor returns the recorded invocations of op.
func (f *FakePip) CallsFor(op string) []PipCall {
	var out []PipCall
	for _, call := range f.Calls() {
		if call.Op == op {
			out = append(out, call)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (f *FakePip) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakePip) record(call PipCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}
