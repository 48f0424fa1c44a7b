package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnvFallbacks()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePython()
	c.Torch.Variant = strings.ToLower(strings.TrimSpace(c.Torch.Variant))
	if c.Torch.Variant == "" {
		c.Torch.Variant = defaultTorchVariant
	}
	c.Display.Language = strings.TrimSpace(c.Display.Language)
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnvFallbacks() {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		if value, ok := os.LookupEnv("WHEELHOUSE_CACHE_DIR"); ok {
			c.Paths.CacheDir = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Python.IndexURL) == "" {
		if value, ok := os.LookupEnv("PIP_INDEX_URL"); ok {
			c.Python.IndexURL = strings.TrimSpace(value)
		}
	}
	if value, ok := os.LookupEnv("WHEELHOUSE_PYTHON"); ok && strings.TrimSpace(value) != "" {
		c.Python.Interpreter = strings.TrimSpace(value)
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CacheDir, err = expandOptional(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.KVStore) == "" {
		c.Paths.KVStore = defaultKVStorePath
	}
	if c.Paths.KVStore, err = expandPath(c.Paths.KVStore); err != nil {
		return fmt.Errorf("paths.kv_store: %w", err)
	}
	if c.Paths.Manifest, err = expandOptional(c.Paths.Manifest); err != nil {
		return fmt.Errorf("paths.manifest: %w", err)
	}
	if c.Requirements.File, err = expandOptional(c.Requirements.File); err != nil {
		return fmt.Errorf("requirements.file: %w", err)
	}
	if strings.TrimSpace(c.Drive.MountPoint) == "" {
		c.Drive.MountPoint = defaultDriveMountPoint
	}
	if c.Drive.MountPoint, err = expandPath(c.Drive.MountPoint); err != nil {
		return fmt.Errorf("drive.mount_point: %w", err)
	}
	return nil
}

func (c *Config) normalizePython() {
	c.Python.Interpreter = strings.TrimSpace(c.Python.Interpreter)
	if c.Python.Interpreter == "" {
		c.Python.Interpreter = defaultInterpreter
	}
	c.Python.IndexURL = strings.TrimSpace(c.Python.IndexURL)
	if len(c.Python.ExtraEnv) > 0 {
		env := make(map[string]string, len(c.Python.ExtraEnv))
		for key, value := range c.Python.ExtraEnv {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			env[key] = value
		}
		c.Python.ExtraEnv = env
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func expandOptional(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return expandPath(strings.TrimSpace(value))
}
