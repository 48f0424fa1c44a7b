package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"wheelhouse/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("WHEELHOUSE_CACHE_DIR", "")
	t.Setenv("PIP_INDEX_URL", "")
	t.Setenv("WHEELHOUSE_PYTHON", "")
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(home, ".local", "share", "wheelhouse")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.LogDir != filepath.Join(wantState, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.CacheEnabled() {
		t.Fatalf("expected cache disabled by default, got %q", cfg.Paths.CacheDir)
	}
	if cfg.PythonBinary() != "python3" {
		t.Fatalf("unexpected interpreter: %q", cfg.PythonBinary())
	}
	if cfg.Torch.Variant != "auto" {
		t.Fatalf("unexpected torch variant: %q", cfg.Torch.Variant)
	}
	if cfg.Display.Language != "zh-CN" {
		t.Fatalf("unexpected display language: %q", cfg.Display.Language)
	}
	if !filepath.IsAbs(cfg.Paths.KVStore) {
		t.Fatalf("expected kv store path to be absolute, got %q", cfg.Paths.KVStore)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolateEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "wheelhouse.toml")
	cacheDir := filepath.Join(tempDir, "wheels")

	type payload struct {
		Paths struct {
			CacheDir string `toml:"cache_dir"`
		} `toml:"paths"`
		Python struct {
			IndexURL string `toml:"index_url"`
		} `toml:"python"`
		Torch struct {
			Variant string `toml:"variant"`
		} `toml:"torch"`
	}
	custom := payload{}
	custom.Paths.CacheDir = cacheDir
	custom.Python.IndexURL = "https://mirror.example.com/simple"
	custom.Torch.Variant = "CPU"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.CacheDir != cacheDir {
		t.Fatalf("expected cache dir from file, got %q", cfg.Paths.CacheDir)
	}
	if cfg.Python.IndexURL != "https://mirror.example.com/simple" {
		t.Fatalf("expected index url from file, got %q", cfg.Python.IndexURL)
	}
	if cfg.Torch.Variant != "cpu" {
		t.Fatalf("expected variant to be lowercased, got %q", cfg.Torch.Variant)
	}
}

func TestEnvFallbacks(t *testing.T) {
	isolateEnv(t)
	cacheDir := filepath.Join(t.TempDir(), "env-cache")
	t.Setenv("WHEELHOUSE_CACHE_DIR", cacheDir)
	t.Setenv("PIP_INDEX_URL", "https://pypi.example.org/simple")
	t.Setenv("WHEELHOUSE_PYTHON", "/opt/python/bin/python")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.CacheDir != cacheDir {
		t.Errorf("expected cache dir from env, got %q", cfg.Paths.CacheDir)
	}
	if cfg.Python.IndexURL != "https://pypi.example.org/simple" {
		t.Errorf("expected index url from env, got %q", cfg.Python.IndexURL)
	}
	if cfg.PythonBinary() != "/opt/python/bin/python" {
		t.Errorf("expected interpreter from env, got %q", cfg.PythonBinary())
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "Colab_dependencies") {
		t.Fatalf("sample config missing drive cache hint: %s", contents)
	}
	if !strings.Contains(string(contents), "build backend") {
		t.Fatalf("sample config missing strict_offline build backend note: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Torch.Variant != "auto" {
		t.Fatalf("expected sample variant auto, got %q", cfg.Torch.Variant)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Torch.Variant = "rocm"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown torch variant")
	}

	cfg = config.Default()
	cfg.Python.IndexURL = "ftp://mirror.example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http index url")
	}

	cfg = config.Default()
	cfg.Drive.RequireMount = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when drive mount required without cache dir")
	}

	cfg = config.Default()
	cfg.Drive.RequireMount = true
	cfg.Drive.MountPoint = "/content/drive"
	cfg.Paths.CacheDir = "/tmp/wheels"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when cache dir is outside the mount point")
	}

	cfg = config.Default()
	cfg.Drive.RequireMount = true
	cfg.Drive.MountPoint = "/content/drive"
	cfg.Paths.CacheDir = "/content/drive/MyDrive/Colab_dependencies"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected cache dir under mount point to validate, got %v", err)
	}

	cfg = config.Default()
	cfg.Display.Language = "not a tag!"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid language tag")
	}

	cfg = config.Default()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}
