package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"doiupdate/internal/config"
	"doiupdate/internal/datacite"
	"doiupdate/internal/journal"
	"doiupdate/internal/logging"
	"doiupdate/internal/updater"
)

type commandContext struct {
	configFlag   *string
	jsonFlag     *bool
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		jsonFlag:     jsonFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if level := c.logLevelOverride(); level != "" {
			cfg.Logging.Level = level
			if err := cfg.Validate(); err != nil {
				c.configErr = fmt.Errorf("--log-level: %w", err)
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) logLevelOverride() string {
	if c.logLevelFlag == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// logger writes to the command's stderr so stdout stays parseable.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
}

// session bundles what a DataCite-facing command needs and releases it on
// close.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	updater *updater.Updater
	journal *journal.Store
}

func (s *session) close() {
	if s.journal != nil {
		_ = s.journal.Close()
	}
}

func (c *commandContext) openSession(cmd *cobra.Command, credentialValues []string) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger(cmd)
	if err != nil {
		return nil, err
	}
	creds, err := resolveCredentials(credentialValues)
	if err != nil {
		return nil, err
	}
	client, err := datacite.New(cfg.DataCite.BaseURL, creds,
		datacite.WithTimeout(cfg.RequestTimeout()),
		datacite.WithUserAgent(cfg.DataCite.UserAgent),
	)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, logger: logger}
	opts := []updater.Option{updater.WithLogger(logger)}
	if cfg.Journal.Enabled {
		store, err := journal.Open(commandCtx(cmd), cfg.JournalPath())
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		s.journal = store
		opts = append(opts, updater.WithJournal(store))
	}
	s.updater = updater.New(client, opts...)
	return s, nil
}

func (c *commandContext) withSession(cmd *cobra.Command, credentialValues []string, fn func(*session) error) error {
	s, err := c.openSession(cmd, credentialValues)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(s)
}

var errMissingCredentials = fmt.Errorf("datacite credentials required: pass --credentials USER,PASSWORD or set %s and %s", datacite.EnvUsername, datacite.EnvPassword)

func resolveCredentials(values []string) (datacite.Credentials, error) {
	if len(values) == 1 {
		values = strings.SplitN(values[0], ",", 2)
	}
	if len(values) > 0 {
		return datacite.ParseCredentials(values)
	}
	if creds, ok := datacite.CredentialsFromEnv(); ok {
		return creds, nil
	}
	return datacite.Credentials{}, errMissingCredentials
}

// addCredentialsFlag accepts either the flag twice (user, then password) or
// once as USER,PASSWORD split at the first comma, so passwords may contain
// commas in both forms.
func addCredentialsFlag(cmd *cobra.Command, values *[]string) {
	cmd.Flags().StringArrayVar(values, "credentials", nil,
		"DataCite credentials: --credentials USER --credentials PASSWORD, or --credentials USER,PASSWORD")
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func isRemoteNotFound(err error) bool {
	var remote *datacite.RemoteError
	return errors.As(err, &remote) && remote.ErrorKind() == "not_found"
}
