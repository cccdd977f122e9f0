// Package config loads driftd's process configuration.
//
// Config is stored at $XDG_CONFIG_HOME/driftd/config.yaml (defaults to
// ~/.config/driftd/config.yaml). Values are fixed at process start; CLI
// flags override them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultInterval       = 5 * time.Minute
	DefaultManifest       = "docker-compose.yml"
	DefaultComposeCommand = "docker compose"
	DefaultRemote         = "origin"
)

// Config holds every setting of a driftd process.
type Config struct {
	// Interval between reconciliation cycles.
	Interval Duration `yaml:"interval"`
	Manifest string   `yaml:"manifest"`
	// Checkout is the git work tree to sync. Defaults to the manifest's directory.
	Checkout string `yaml:"checkout,omitempty"`
	// Project overrides the name derived from the manifest directory.
	Project        string `yaml:"project,omitempty"`
	ComposeCommand string `yaml:"compose_command"`
	GitSync        bool   `yaml:"git_sync"`
	Remote         string `yaml:"remote"`
	StateDB        string `yaml:"state_db"`
	LogLevel       string `yaml:"log_level,omitempty"`
	LogFormat      string `yaml:"log_format,omitempty"`
}

// Duration is a time.Duration written as a Go duration string in YAML.
type Duration time.Duration

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func Default() Config {
	return Config{
		Interval:       Duration(DefaultInterval),
		Manifest:       DefaultManifest,
		ComposeCommand: DefaultComposeCommand,
		GitSync:        true,
		Remote:         DefaultRemote,
		StateDB:        DefaultStateDB(),
	}
}

// Path returns the config file location. It respects XDG_CONFIG_HOME,
// falling back to ~/.config/driftd/config.yaml.
func Path() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "driftd", "config.yaml")
}

// DefaultStateDB returns $XDG_STATE_HOME/driftd/history.db.
func DefaultStateDB() string {
	return filepath.Join(xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state")), "driftd", "history.db")
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fallback
	}
	return filepath.Join(home, fallback)
}

// Load reads the config file at path, or Path() when path is empty. A
// missing file yields Default() (not an error).
func Load(path string) (Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to path, creating directories as needed.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// CheckoutDir returns Checkout, or the manifest's directory when unset.
func (c Config) CheckoutDir() string {
	if c.Checkout != "" {
		return c.Checkout
	}
	return filepath.Dir(c.Manifest)
}

func (c Config) Validate() error {
	var errs []error
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", time.Duration(c.Interval)))
	}
	if strings.TrimSpace(c.Manifest) == "" {
		errs = append(errs, errors.New("manifest path is required"))
	}
	if strings.TrimSpace(c.ComposeCommand) == "" {
		errs = append(errs, errors.New("compose command is required"))
	}
	if strings.TrimSpace(c.StateDB) == "" {
		errs = append(errs, errors.New("state db path is required"))
	}
	return errors.Join(errs...)
}
