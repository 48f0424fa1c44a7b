package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"wheelhouse/internal/bootstrap"
	"wheelhouse/internal/config"
	"wheelhouse/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := c.flagPath()
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) flagPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// withEnvironment builds the collaborators for one command and closes them
// when fn returns. Pip output streams to the command's stderr.
func (c *commandContext) withEnvironment(cmd *cobra.Command, fn func(*bootstrap.Environment) error, opts ...bootstrap.EnvironmentOption) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if cfg == nil {
		return errors.New("configuration unavailable")
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	opts = append([]bootstrap.EnvironmentOption{bootstrap.WithPipOutput(cmd.ErrOrStderr())}, opts...)
	env, err := bootstrap.NewEnvironment(cfg, logger, cmd.OutOrStdout(), opts...)
	if err != nil {
		if errors.Is(err, bootstrap.ErrPreflight) {
			return fmt.Errorf("%w (run `wheelhouse doctor` for details)", err)
		}
		return err
	}
	defer env.Close()
	return fn(env)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func writeLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
