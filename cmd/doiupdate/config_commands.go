package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"doiupdate/internal/config"
	"doiupdate/internal/datacite"
)

type configJSON struct {
	Path           string `json:"path"`
	Exists         bool   `json:"exists"`
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	StateDir       string `json:"state_dir"`
	Journal        bool   `json:"journal"`
	KeepGoing      bool   `json:"keep_going"`
	LogFormat      string `json:"log_format"`
	LogLevel       string `json:"log_level"`
}

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the doiupdate configuration",
		// Subcommands load the file themselves so a broken config can be
		// replaced or diagnosed.
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the sample configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := configInitTarget(targetPath)
			if err != nil {
				return err
			}
			if err := config.CreateSample(target, overwrite); err != nil {
				return fmt.Errorf("%w (pass --overwrite to replace it)", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			fmt.Fprintf(cmd.OutOrStdout(), "Credentials are never read from it; use --credentials or %s/%s.\n",
				datacite.EnvUsername, datacite.EnvPassword)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Where to write the file (default ~/.config/doiupdate/config.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func configInitTarget(flagValue string) (string, error) {
	if value := strings.TrimSpace(flagValue); value != "" {
		path, err := config.ExpandPath(value)
		if err != nil {
			return "", fmt.Errorf("--path: %w", err)
		}
		return path, nil
	}
	path, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("default config path: %w", err)
	}
	return path, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, configJSON{
					Path:           path,
					Exists:         exists,
					BaseURL:        cfg.DataCite.BaseURL,
					TimeoutSeconds: cfg.DataCite.TimeoutSeconds,
					StateDir:       cfg.Paths.StateDir,
					Journal:        cfg.Journal.Enabled,
					KeepGoing:      cfg.Batch.KeepGoing,
					LogFormat:      cfg.Logging.Format,
					LogLevel:       cfg.Logging.Level,
				})
			}

			source := path
			if !exists {
				source = path + " (not found, using defaults)"
			}
			rows := [][]string{
				{"config", source},
				{"datacite.base_url", cfg.DataCite.BaseURL},
				{"datacite.timeout_seconds", strconv.Itoa(cfg.DataCite.TimeoutSeconds)},
				{"paths.state_dir", cfg.Paths.StateDir},
				{"journal.enabled", strconv.FormatBool(cfg.Journal.Enabled)},
				{"batch.keep_going", strconv.FormatBool(cfg.Batch.KeepGoing)},
				{"logging", cfg.Logging.Format + "/" + cfg.Logging.Level},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, nil))
			fmt.Fprintln(out, renderStatusLine("configuration", statusOK, "valid", shouldColorize(out)))
			return nil
		},
	}
}
