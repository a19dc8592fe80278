package datacite

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"doiupdate/internal/doi"
)

// Environment variables consulted when no credentials flag is given.
const (
	EnvUsername = "DATACITE_USERNAME"
	EnvPassword = "DATACITE_PASSWORD"
)

// Credentials authenticate requests with HTTP Basic auth.
type Credentials struct {
	Username string
	Password string
}

// ParseCredentials builds credentials from a two-element list: username then
// password.
func ParseCredentials(values []string) (Credentials, error) {
	if len(values) != 2 {
		return Credentials{}, fmt.Errorf("%w: credentials need exactly a username and a password, got %d values", doi.ErrInvalidValue, len(values))
	}
	creds := Credentials{Username: strings.TrimSpace(values[0]), Password: values[1]}
	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, fmt.Errorf("%w: credentials must not be empty", doi.ErrInvalidValue)
	}
	return creds, nil
}

// CredentialsFromEnv reads DATACITE_USERNAME and DATACITE_PASSWORD.
// The boolean is false when either variable is unset or empty.
func CredentialsFromEnv() (Credentials, bool) {
	var fromEnv struct {
		Username string `env:"DATACITE_USERNAME"`
		Password string `env:"DATACITE_PASSWORD"`
	}
	if err := env.Parse(&fromEnv); err != nil {
		return Credentials{}, false
	}
	creds := Credentials{Username: strings.TrimSpace(fromEnv.Username), Password: fromEnv.Password}
	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, false
	}
	return creds, true
}
