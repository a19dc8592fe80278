package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// envOverrides lists settings the environment may override.
type envOverrides struct {
	BaseURL string `env:"DATACITE_BASE_URL"`
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDataCite(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDirPath()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDataCite() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if strings.TrimSpace(overrides.BaseURL) != "" {
		c.DataCite.BaseURL = overrides.BaseURL
	}
	c.DataCite.BaseURL = strings.TrimRight(strings.TrimSpace(c.DataCite.BaseURL), "/")
	if c.DataCite.BaseURL == "" {
		c.DataCite.BaseURL = defaultBaseURL
	}
	c.DataCite.UserAgent = strings.TrimSpace(c.DataCite.UserAgent)
	if c.DataCite.UserAgent == "" {
		c.DataCite.UserAgent = defaultUserAgent
	}
	return nil
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
