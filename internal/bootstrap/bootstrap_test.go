package bootstrap_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheelhouse/internal/bootstrap"
	"wheelhouse/internal/config"
	"wheelhouse/internal/console"
	"wheelhouse/internal/deps"
	"wheelhouse/internal/fonts"
	"wheelhouse/internal/gpu"
	"wheelhouse/internal/installer"
	"wheelhouse/internal/kvstore"
	"wheelhouse/internal/manifest"
	"wheelhouse/internal/preflight"
	"wheelhouse/internal/testsupport"
	"wheelhouse/internal/wheelcache"
)

const testManifest = `
[[group]]
name = "bootstrap"
  [[group.artifact]]
  requirement = "rich"
[[group]]
name = "torch-cuda"
index_url = "https://download.pytorch.org/whl/cu118"
import_check = "torch"
  [[group.artifact]]
  requirement = "torch==2.0.0"
[[group]]
name = "torch-cpu"
import_check = "torch"
  [[group.artifact]]
  requirement = "torch==2.1.2"
[[group]]
name = "requirements"
  [[group.artifact]]
  requirement = "numpy==1.26.4"
  [[group.artifact]]
  requirement = "jieba"
`

var testWheels = map[string][]string{
	"rich":          {"rich-13.7.1-py3-none-any.whl"},
	"torch==2.0.0":  {"torch-2.0.0+cu118-cp310-cp310-linux_x86_64.whl"},
	"torch==2.1.2":  {"torch-2.1.2-cp310-cp310-manylinux1_x86_64.whl"},
	"numpy==1.26.4": {"numpy-1.26.4-cp310-cp310-manylinux_2_17_x86_64.whl"},
	"jieba":         {"jieba-0.42.1.tar.gz"},
}

type fakeFonts struct {
	applies bool
	err     error
	calls   int
}

func (f *fakeFonts) Applies() bool { return f.applies }

func (f *fakeFonts) Install(context.Context) (fonts.Plan, error) {
	f.calls++
	return fonts.Plan{Manager: "apt-get"}, f.err
}

type harness struct {
	cfg   *config.Config
	pip   *testsupport.FakePip
	cache *wheelcache.Cache
	fonts *fakeFonts
	out   *bytes.Buffer
	seq   *bootstrap.Sequence
}

func newHarness(t *testing.T, gpuInfo gpu.Info, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	require.NoError(t, cfg.EnsureDirectories())

	manifestPath := filepath.Join(testsupport.BaseDir(cfg), "manifest.toml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(testManifest), 0o644))
	m, err := manifest.Load(manifestPath)
	require.NoError(t, err)

	fake := testsupport.NewFakePip()
	for req, files := range testWheels {
		fake.Wheels[req] = files
	}

	h := &harness{cfg: cfg, pip: fake, fonts: &fakeFonts{applies: true}, out: &bytes.Buffer{}}
	instOpts := []installer.Option{installer.WithStrictOffline(true)}
	if cfg.CacheEnabled() {
		h.cache, err = wheelcache.Open(cfg.Paths.CacheDir, nil)
		require.NoError(t, err)
		instOpts = append(instOpts, installer.WithCache(h.cache))
	}
	inst, err := installer.New(fake, instOpts...)
	require.NoError(t, err)

	kv, err := kvstore.Open(cfg.Paths.KVStore)
	require.NoError(t, err)

	h.seq = &bootstrap.Sequence{
		Config:    cfg,
		Manifest:  m,
		Installer: inst,
		Pip:       fake,
		GPU:       gpu.Static(gpuInfo),
		Fonts:     h.fonts,
		KV:        kv,
		Console:   console.New(h.out),
		FFmpeg:    func() deps.Status { return deps.Status{Name: "FFmpeg", Available: true} },
		GOOS:      "linux",
	}
	if h.cache != nil {
		h.seq.Lock = h.cache
	}
	return h
}

func targets(calls []testsupport.PipCall) []string {
	out := make([]string, 0, len(calls))
	for _, call := range calls {
		out = append(out, filepath.Base(call.Target))
	}
	return out
}

func TestNoGPUNeverRequestsCUDA(t *testing.T) {
	h := newHarness(t, gpu.Info{})
	report, err := h.seq.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, manifest.GroupTorchCPU, report.Torch)

	for _, call := range h.pip.Calls() {
		assert.NotContains(t, call.Target, "2.0.0", "CUDA build must not be requested")
		assert.NotContains(t, call.Opts.IndexURL, "cu118")
	}
	assert.Contains(t, targets(h.pip.CallsFor("download")), "torch==2.1.2")
}

func TestGPURequestsCUDA(t *testing.T) {
	h := newHarness(t, gpu.Info{Available: true, Count: 1, Names: []string{"Tesla T4"}})
	report, err := h.seq.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, manifest.GroupTorchCUDA, report.Torch)

	var sawCUDA bool
	for _, call := range h.pip.CallsFor("download") {
		assert.NotEqual(t, "torch==2.1.2", call.Target, "CPU build must not be requested")
		if call.Target == "torch==2.0.0" {
			sawCUDA = true
			assert.Equal(t, "https://download.pytorch.org/whl/cu118", call.Opts.IndexURL)
		}
	}
	assert.True(t, sawCUDA)
	assert.Contains(t, h.out.String(), "GPU 0: Tesla T4")
}

func TestSecondRunHitsCache(t *testing.T) {
	h := newHarness(t, gpu.Info{})
	first, err := h.seq.Run(context.Background())
	require.NoError(t, err)
	firstDownloads := len(h.pip.CallsFor("download"))
	assert.Equal(t, 4, firstDownloads)

	h.pip.Reset()
	second, err := h.seq.Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)

	downloads := targets(h.pip.CallsFor("download"))
	assert.Equal(t, []string{"jieba"}, downloads, "only the source-only artifact goes back to the network")

	tiers := map[string]installer.Tier{}
	for _, result := range second.Results {
		tiers[result.Artifact.Requirement] = result.Tier
	}
	assert.Equal(t, installer.TierCache, tiers["rich"])
	assert.Equal(t, installer.TierCache, tiers["torch==2.1.2"])
	assert.Equal(t, installer.TierCache, tiers["numpy==1.26.4"])
	assert.Equal(t, installer.TierDirect, tiers["jieba"])

	entries, err := h.cache.List()
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestWithoutCacheInstallsDirectly(t *testing.T) {
	h := newHarness(t, gpu.Info{}, testsupport.WithoutCache())
	report, err := h.seq.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, h.pip.CallsFor("download"))
	for _, result := range report.Results {
		assert.Equal(t, installer.TierDirect, result.Tier)
	}
}

func TestRequirementsFailureContinuesToFFmpeg(t *testing.T) {
	h := newHarness(t, gpu.Info{})
	h.pip.InstallErr["jieba"] = errors.New("exit status 1")
	ffmpegChecked := false
	h.seq.FFmpeg = func() deps.Status {
		ffmpegChecked = true
		return deps.Status{Available: true}
	}

	report, err := h.seq.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, ffmpegChecked)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "requirements", report.Failures[0].Step)
	assert.Contains(t, h.out.String(), "Failed to install requirements")
}

func TestRequirementsFailureStopsWhenConfigured(t *testing.T) {
	h := newHarness(t, gpu.Info{})
	h.cfg.Requirements.ContinueOnError = false
	h.pip.InstallErr["jieba"] = errors.New("exit status 1")

	_, err := h.seq.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "install jieba")
}

func TestTorchFailureIsFatal(t *testing.T) {
	h := newHarness(t, gpu.Info{})
	h.pip.InstallErr[filepath.Join(h.cfg.Paths.CacheDir, "torch-2.1.2-cp310-cp310-manylinux1_x86_64.whl")] = errors.New("exit status 1")

	_, err := h.seq.Run(context.Background())
	require.Error(t, err)
	for _, call := range h.pip.Calls() {
		assert.NotEqual(t, "numpy==1.26.4", call.Target, "requirements must not run after a torch failure")
	}
	assert.Contains(t, h.out.String(), "PyTorch installation failed")
}

func TestTorchAlreadyImportableSkipsGroup(t *testing.T) {
	h := newHarness(t, gpu.Info{})
	h.pip.Importable["torch"] = true

	_, err := h.seq.Run(context.Background())
	require.NoError(t, err)
	for _, call := range h.pip.Calls() {
		assert.False(t, strings.HasPrefix(filepath.Base(call.Target), "torch"), "unexpected torch call %v", call)
	}
	assert.Contains(t, h.out.String(), "PyTorch is already installed")
}

func TestFFmpegMissing(t *testing.T) {
	h := newHarness(t, gpu.Info{})
	h.seq.FFmpeg = func() deps.Status {
		return deps.Status{Name: "FFmpeg", Remediation: deps.FFmpegRemediation("linux")}
	}

	report, err := h.seq.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, deps.ErrFFmpegMissing))
	assert.False(t, report.FFmpeg.Available)
	out := h.out.String()
	assert.Contains(t, out, "FFmpeg not found")
	assert.Contains(t, out, "sudo apt install ffmpeg")
	assert.NotContains(t, out, "Installation completed")
}

func TestDisplayLanguageWrittenToKVStore(t *testing.T) {
	h := newHarness(t, gpu.Info{})
	_, err := h.seq.Run(context.Background())
	require.NoError(t, err)

	kv, err := kvstore.Open(h.cfg.Paths.KVStore)
	require.NoError(t, err)
	value, err := kv.Get("display_language")
	require.NoError(t, err)
	assert.Equal(t, "zh-CN", value)
}

func TestFontsOnlyWhenEnabled(t *testing.T) {
	h := newHarness(t, gpu.Info{})
	_, err := h.seq.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, h.fonts.calls)

	h.cfg.Fonts.Enabled = true
	h.fonts.err = errors.New("exit status 100")
	_, err = h.seq.Run(context.Background())
	require.NoError(t, err, "font failures are never fatal")
	assert.Equal(t, 1, h.fonts.calls)
	assert.Contains(t, h.out.String(), "Failed to install Noto fonts")
}

func TestRequirementsFile(t *testing.T) {
	h := newHarness(t, gpu.Info{})
	h.cfg.Requirements.File = "requirements.txt"
	h.cfg.Python.IndexURL = "https://mirror.example/simple"

	_, err := h.seq.Run(context.Background())
	require.NoError(t, err)
	calls := h.pip.CallsFor("install-requirements")
	require.Len(t, calls, 1)
	assert.Equal(t, "requirements.txt", calls[0].Target)
	assert.Equal(t, "https://mirror.example/simple", calls[0].Opts.IndexURL)
	for _, call := range h.pip.Calls() {
		assert.NotEqual(t, "jieba", call.Target)
	}
}

func TestPreflightFailureStopsBeforeInstalls(t *testing.T) {
	h := newHarness(t, gpu.Info{})
	h.seq.Preflight = func(context.Context, *config.Config) []preflight.Result {
		return []preflight.Result{{Name: "Drive mount", Detail: "/content/drive (error: not mounted)"}}
	}

	_, err := h.seq.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, bootstrap.ErrPreflight))
	assert.Empty(t, h.pip.Calls())
}

func TestConcurrentRunFailsFast(t *testing.T) {
	h := newHarness(t, gpu.Info{})
	other, err := wheelcache.Open(h.cfg.Paths.CacheDir, nil)
	require.NoError(t, err)
	unlock, err := other.Lock()
	require.NoError(t, err)
	defer unlock()

	_, err = h.seq.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, wheelcache.ErrLocked))
	assert.Empty(t, h.pip.Calls())
}

func TestTorchVariant(t *testing.T) {
	ctx := context.Background()
	detector := gpu.Static{Available: true, Count: 2}

	cuda, _ := bootstrap.TorchVariant(ctx, "auto", detector)
	assert.True(t, cuda)
	cuda, _ = bootstrap.TorchVariant(ctx, "auto", gpu.Static{})
	assert.False(t, cuda)
	cuda, _ = bootstrap.TorchVariant(ctx, "cpu", detector)
	assert.False(t, cuda)
	cuda, info := bootstrap.TorchVariant(ctx, "cuda", gpu.Static{})
	assert.True(t, cuda)
	assert.Zero(t, info.Count)
	cuda, info = bootstrap.TorchVariant(ctx, "cuda", detector)
	assert.True(t, cuda)
	assert.Equal(t, 2, info.Count)
}

func TestForcedCUDAWithoutGPUWarns(t *testing.T) {
	h := newHarness(t, gpu.Info{}, testsupport.WithTorchVariant("cuda"))
	report, err := h.seq.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "torch-cuda", report.Torch)
	assert.Contains(t, h.out.String(), "no NVIDIA GPU was detected")
}

func TestForcedCUDAWithGPUDoesNotWarn(t *testing.T) {
	h := newHarness(t, gpu.Info{Available: true, Count: 1, Names: []string{"Tesla T4"}}, testsupport.WithTorchVariant("cuda"))
	report, err := h.seq.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "torch-cuda", report.Torch)
	assert.NotContains(t, h.out.String(), "no NVIDIA GPU was detected")
}

func TestCancelledRunReportsCancellation(t *testing.T) {
	h := newHarness(t, gpu.Info{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.seq.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, bootstrap.ErrPreflight))
	assert.Empty(t, h.pip.Calls())
}
