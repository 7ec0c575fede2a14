// Package config loads pyclean's optional configuration file.
//
// The file lives at $XDG_CONFIG_HOME/pyclean/config.toml (falling back to
// ~/.config/pyclean/config.toml). TOML and YAML are both accepted; the
// format is chosen by file extension. A missing default file is not an
// error, command-line flags override file values.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/nikromen/pyclean/pkg/errors"
	"github.com/nikromen/pyclean/pkg/manager"
)

const (
	appName = "pyclean"

	// DefaultWorkers is the per-package metadata fan-out of native sources.
	DefaultWorkers = 8

	// DefaultPython is the interpreter used to drive pip.
	DefaultPython = "python3"

	// DefaultSudo is the privilege escalation command for native removals.
	DefaultSudo = "sudo"

	// DefaultConfirmDelay is the pause after confirming a cross-scope
	// pip or pipx removal, giving the operator a last chance to interrupt.
	DefaultConfirmDelay = 3 * time.Second
)

// Config holds pyclean configuration.
type Config struct {
	SystemClean  bool     `toml:"system_clean" yaml:"system_clean"`
	Debug        bool     `toml:"debug" yaml:"debug"`
	Workers      int      `toml:"workers" yaml:"workers"`
	Python       string   `toml:"python" yaml:"python"`
	Sudo         string   `toml:"sudo" yaml:"sudo"`
	Managers     []string `toml:"managers" yaml:"managers"`
	ConfirmDelay string   `toml:"confirm_delay" yaml:"confirm_delay"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Workers:      DefaultWorkers,
		Python:       DefaultPython,
		Sudo:         DefaultSudo,
		Managers:     manager.KindNames(),
		ConfirmDelay: DefaultConfirmDelay.String(),
	}
}

// DefaultPath returns the configuration file path using the XDG standard.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// LoadDefault loads the file at DefaultPath, returning defaults when it
// does not exist.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	cfg, err := Load(path)
	if err != nil && stderrors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Load reads and validates the configuration file at path. A leading "~"
// is expanded. Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config path %q", path)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot read config %s", expanded)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(expanded)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml", "":
		_, err = toml.Decode(string(data), cfg)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (use .toml or .yaml)", ext)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot parse config %s", expanded)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes the configuration and reports invalid values.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		c.Workers = DefaultWorkers
	}
	if c.Python == "" {
		c.Python = DefaultPython
	}
	if c.Sudo == "" {
		c.Sudo = DefaultSudo
	}
	if python, err := homedir.Expand(c.Python); err == nil {
		c.Python = python
	}
	if _, err := c.Kinds(); err != nil {
		return err
	}
	if c.ConfirmDelay != "" {
		d, err := time.ParseDuration(c.ConfirmDelay)
		if err != nil || d < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "invalid confirm_delay %q", c.ConfirmDelay)
		}
	}
	return nil
}

// Kinds returns the enabled manager kinds in adapter enumeration order.
// An empty list enables every manager.
func (c *Config) Kinds() ([]manager.Kind, error) {
	if len(c.Managers) == 0 {
		return manager.Kinds(), nil
	}
	enabled := make(map[manager.Kind]bool)
	for _, name := range c.Managers {
		k, err := manager.ParseKind(name)
		if err != nil {
			return nil, err
		}
		enabled[k] = true
	}
	var kinds []manager.Kind
	for _, k := range manager.Kinds() {
		if enabled[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

// Enabled reports whether kind is enabled.
func (c *Config) Enabled(kind manager.Kind) bool {
	kinds, err := c.Kinds()
	if err != nil {
		return false
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Delay returns the parsed confirmation delay.
func (c *Config) Delay() time.Duration {
	if c.ConfirmDelay == "" {
		return 0
	}
	d, err := time.ParseDuration(c.ConfirmDelay)
	if err != nil {
		return DefaultConfirmDelay
	}
	return d
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("%+v", *c)
	}
	return b.String()
}
