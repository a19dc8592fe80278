package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDataCite(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDataCite() error {
	parsed, err := url.Parse(c.DataCite.BaseURL)
	if err != nil {
		return fmt.Errorf("datacite.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("datacite.base_url must be an http(s) URL, got %q", c.DataCite.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("datacite.base_url must include a host, got %q", c.DataCite.BaseURL)
	}
	if c.DataCite.TimeoutSeconds <= 0 {
		return errors.New("datacite.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
