package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains filesystem locations used by the bootstrap.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	KVStore  string `toml:"kv_store"`
	Manifest string `toml:"manifest"`
}

// Python contains settings for the interpreter and its package manager.
type Python struct {
	Interpreter   string            `toml:"interpreter"`
	IndexURL      string            `toml:"index_url"`
	StrictOffline bool              `toml:"strict_offline"`
	ExtraEnv      map[string]string `toml:"extra_env"`
}

// Torch controls PyTorch variant selection.
type Torch struct {
	// Variant is "auto", "cuda", or "cpu". Auto queries the GPU.
	Variant string `toml:"variant"`
}

// Drive contains settings for notebook-mounted persistent storage.
type Drive struct {
	RequireMount bool   `toml:"require_mount"`
	MountPoint   string `toml:"mount_point"`
}

// Fonts controls system font installation.
type Fonts struct {
	Enabled bool `toml:"enabled"`
}

// Requirements controls the application requirements step.
type Requirements struct {
	// File installs via `pip install -r` instead of the manifest group when set.
	File            string `toml:"file"`
	ContinueOnError bool   `toml:"continue_on_error"`
}

// Display contains user-facing language settings.
type Display struct {
	Language string `toml:"language"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Config encapsulates all configuration values for wheelhouse.
//
// Configuration sections by subsystem:
//   - Paths: wheel cache, state, logs, kv store, manifest override
//   - Python: interpreter, package index mirror, offline cache hits
//   - Torch: CUDA/CPU variant selection
//   - Drive: notebook drive mount enforcement
//   - Fonts: Noto font installation on Linux
//   - Requirements: application dependency step
//   - Display: UI language written to the application kv store
//   - Logging: log format, level, and rotation
type Config struct {
	Paths        Paths        `toml:"paths"`
	Python       Python       `toml:"python"`
	Torch        Torch        `toml:"torch"`
	Drive        Drive        `toml:"drive"`
	Fonts        Fonts        `toml:"fonts"`
	Requirements Requirements `toml:"requirements"`
	Display      Display      `toml:"display"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/wheelhouse/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file in the working directory is
// loaded first so environment fallbacks can be kept next to a notebook.
func Load(path string) (*Config, string, bool, error) {
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("wheelhouse.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The cache directory
// is created only when configured and the drive mount is not required; a
// missing mount must surface as a preflight failure rather than a silently
// created local folder.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.CacheEnabled() && !c.Drive.RequireMount {
		if err := os.MkdirAll(c.Paths.CacheDir, 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", c.Paths.CacheDir, err)
		}
	}
	return nil
}

// CacheEnabled reports whether a wheel cache directory is configured.
func (c *Config) CacheEnabled() bool {
	return strings.TrimSpace(c.Paths.CacheDir) != ""
}

// JournalPath returns the install journal database location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// LogFile returns the rotated log file location.
func (c *Config) LogFile() string {
	return filepath.Join(c.Paths.LogDir, "wheelhouse.log")
}

// PythonBinary returns the interpreter used to drive pip.
func (c *Config) PythonBinary() string {
	if strings.TrimSpace(c.Python.Interpreter) == "" {
		return defaultInterpreter
	}
	return c.Python.Interpreter
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "wheelhouse")
	}
	return "~/.local/share/wheelhouse"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
