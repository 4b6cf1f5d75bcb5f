// Package config holds the configuration of folio.
package config

import (
	"fmt"
	"io"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gitlab.com/folio-vcs/folio/internal/errors/cfgerror"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/log"
)

// EnvPrefix is the prefix of environment variables overriding configuration values, like
// FOLIO_LOGGING_LEVEL.
const EnvPrefix = "folio"

const (
	minAbbrevLength = 4
	maxAbbrevLength = 40
)

// Cfg is the folio configuration.
type Cfg struct {
	Logging      Logging  `toml:"logging,omitempty" json:"logging" envconfig:"logging"`
	Identity     Identity `toml:"identity,omitempty" json:"identity" envconfig:"identity"`
	Signing      Signing  `toml:"signing,omitempty" json:"signing" envconfig:"signing"`
	Metrics      Metrics  `toml:"metrics,omitempty" json:"metrics" envconfig:"metrics"`
	AbbrevLength int      `toml:"abbrev_length,omitempty" json:"abbrev_length" envconfig:"abbrev_length"`
}

// Logging configures the log output.
type Logging struct {
	// Format is either "json" or "text".
	Format string `toml:"format,omitempty" json:"format" envconfig:"format"`
	// Level is a logrus level like "info" or "debug".
	Level string `toml:"level,omitempty" json:"level" envconfig:"level"`
}

// Identity is the operator creating commits. If unset, the repository's user.name and
// user.email are used.
type Identity struct {
	Name  string `toml:"name,omitempty" json:"name" envconfig:"name"`
	Email string `toml:"email,omitempty" json:"email" envconfig:"email"`
}

// IsSet returns whether any part of the identity has been configured.
func (i Identity) IsSet() bool {
	return i.Name != "" || i.Email != ""
}

// Signing configures commit signing.
type Signing struct {
	// KeyPath is the path of an OpenPGP or SSH private key. Commits are not signed if it is
	// empty.
	KeyPath string `toml:"key_path,omitempty" json:"key_path" envconfig:"key_path"`
}

// Metrics configures how metrics are exported.
type Metrics struct {
	// Textfile is the path of a file the metrics are written to in the Prometheus text format
	// once the command has finished.
	Textfile string `toml:"textfile,omitempty" json:"textfile" envconfig:"textfile"`
}

// Default returns the configuration used when no configuration file is given.
func Default() Cfg {
	return Cfg{
		Logging: Logging{
			Format: log.FormatText,
			Level:  logrus.InfoLevel.String(),
		},
		AbbrevLength: git.DefaultAbbrevLength,
	}
}

// Load initializes the configuration from the TOML file and applies defaults for values that
// are not set. Environment variables are not taken into account, see ApplyEnv.
func Load(file io.Reader) (Cfg, error) {
	cfg := Default()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return Cfg{}, fmt.Errorf("load toml: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides configuration values with environment variables prefixed with EnvPrefix.
// Variables that are not set leave the corresponding values untouched.
func (cfg *Cfg) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("applying environment: %w", err)
	}
	return nil
}

// Validate checks the configuration. All problems are reported together as
// cfgerror.ValidationErrors.
func (cfg *Cfg) Validate() error {
	var errs cfgerror.ValidationErrors
	for _, check := range []struct {
		field    string
		validate func() error
	}{
		{field: "logging", validate: cfg.Logging.Validate},
		{field: "identity", validate: cfg.Identity.Validate},
		{field: "signing", validate: cfg.Signing.Validate},
		{field: "abbrev_length", validate: func() error {
			return cfgerror.InRange(cfg.AbbrevLength, minAbbrevLength, maxAbbrevLength)
		}},
	} {
		errs = errs.Append(check.validate(), check.field)
	}

	return errs.AsError()
}

// Validate checks the logging configuration.
func (l Logging) Validate() error {
	var errs cfgerror.ValidationErrors

	if l.Format != "" {
		errs = errs.Append(cfgerror.IsSupportedValue(l.Format, log.SupportedFormats...), "format")
	}

	if l.Level != "" {
		if _, err := logrus.ParseLevel(l.Level); err != nil {
			errs = errs.Append(cfgerror.NewValidationError(fmt.Errorf("%w: %q", cfgerror.ErrUnsupportedValue, l.Level)), "level")
		}
	}

	return errs.AsError()
}

// Validate checks that the identity is either unset or complete.
func (i Identity) Validate() error {
	if !i.IsSet() {
		return nil
	}

	var errs cfgerror.ValidationErrors
	errs = errs.Append(cfgerror.NotBlank(i.Name), "name")
	errs = errs.Append(cfgerror.NotBlank(i.Email), "email")
	return errs.AsError()
}

// Validate checks that the signing key exists.
func (s Signing) Validate() error {
	if s.KeyPath == "" {
		return nil
	}

	var errs cfgerror.ValidationErrors
	return errs.Append(cfgerror.FileExists(s.KeyPath), "key_path").AsError()
}
