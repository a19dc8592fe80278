package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultConfigPath     = "~/.config/doiupdate/config.toml"
	projectConfigName     = "doiupdate.toml"
	defaultStateDir       = "~/.local/state/doiupdate"
	defaultBaseURL        = "https://api.datacite.org"
	defaultTimeoutSeconds = 30
	defaultUserAgent      = "doiupdate/dev"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDirPath(),
		},
		DataCite: DataCite{
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: defaultTimeoutSeconds,
			UserAgent:      defaultUserAgent,
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultStateDirPath() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "doiupdate")
	}
	return defaultStateDir
}
