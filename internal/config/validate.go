package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePython(); err != nil {
		return err
	}
	if err := c.validateTorch(); err != nil {
		return err
	}
	if err := c.validateDrive(); err != nil {
		return err
	}
	if err := c.validateDisplay(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePython() error {
	if strings.TrimSpace(c.Python.Interpreter) == "" {
		return errors.New("python.interpreter must be set")
	}
	if c.Python.IndexURL != "" {
		if err := validateURL(c.Python.IndexURL); err != nil {
			return fmt.Errorf("python.index_url: %w", err)
		}
	}
	return nil
}

func (c *Config) validateTorch() error {
	switch c.Torch.Variant {
	case "auto", "cuda", "cpu":
		return nil
	default:
		return fmt.Errorf("torch.variant must be one of auto, cuda, cpu (got %q)", c.Torch.Variant)
	}
}

func (c *Config) validateDrive() error {
	if !c.Drive.RequireMount {
		return nil
	}
	if !c.CacheEnabled() {
		return errors.New("paths.cache_dir must be set when drive.require_mount is true")
	}
	rel, err := filepath.Rel(c.Drive.MountPoint, c.Paths.CacheDir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("paths.cache_dir %q must live under drive.mount_point %q", c.Paths.CacheDir, c.Drive.MountPoint)
	}
	return nil
}

func (c *Config) validateDisplay() error {
	if c.Display.Language == "" {
		return nil
	}
	if _, err := language.Parse(c.Display.Language); err != nil {
		return fmt.Errorf("display.language %q is not a valid language tag: %w", c.Display.Language, err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	if c.Logging.MaxSizeMB < 0 {
		return errors.New("logging.max_size_mb must be >= 0")
	}
	if c.Logging.MaxBackups < 0 {
		return errors.New("logging.max_backups must be >= 0")
	}
	return nil
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
