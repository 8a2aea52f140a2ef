// Package config loads the optional mjc.yaml compiler configuration:
// optimization pass toggles and diagnostics options.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/go-mjc/internal/dataflow"
	"github.com/cwbudde/go-mjc/internal/errors"
)

// DefaultFileName is the configuration file looked up next to the
// compiled source when no --config flag is given.
const DefaultFileName = "mjc.yaml"

// Config is the top-level mjc.yaml document.
type Config struct {
	Optimizations Optimizations `yaml:"optimizations"`
	Diagnostics   Diagnostics   `yaml:"diagnostics"`
}

// Optimizations toggles individual dataflow passes. Absent entries
// leave the pass enabled.
type Optimizations struct {
	ConstProp  *bool `yaml:"const_prop,omitempty"`
	DeadCode   *bool `yaml:"dead_code,omitempty"`
	Simplify   *bool `yaml:"cfg_simplify,omitempty"`
	DeadAllocs *bool `yaml:"dead_allocs,omitempty"`
}

// Diagnostics configures error output.
type Diagnostics struct {
	// Color is "auto" (default), "always" or "never".
	Color string `yaml:"color,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{}
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadIfPresent loads path when it exists, the defaults otherwise.
func LoadIfPresent(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) validate() error {
	switch c.Diagnostics.Color {
	case "", "auto", "always", "never":
		return nil
	}
	return fmt.Errorf("diagnostics.color must be auto, always or never, not %q", c.Diagnostics.Color)
}

// Options maps the pass toggles onto optimizer options.
func (c *Config) Options() []dataflow.Option {
	var opts []dataflow.Option
	if c.Optimizations.ConstProp != nil {
		opts = append(opts, dataflow.WithPass(dataflow.PassConstProp, *c.Optimizations.ConstProp))
	}
	if c.Optimizations.DeadCode != nil {
		opts = append(opts, dataflow.WithPass(dataflow.PassDeadCode, *c.Optimizations.DeadCode))
	}
	if c.Optimizations.Simplify != nil {
		opts = append(opts, dataflow.WithPass(dataflow.PassSimplify, *c.Optimizations.Simplify))
	}
	if c.Optimizations.DeadAllocs != nil {
		opts = append(opts, dataflow.WithPass(dataflow.PassDeadAllocs, *c.Optimizations.DeadAllocs))
	}
	return opts
}

// UseColor decides whether diagnostics should be colored.
func (c *Config) UseColor() bool {
	switch c.Diagnostics.Color {
	case "always":
		return true
	case "never":
		return false
	}
	return errors.ColorEnabled()
}
