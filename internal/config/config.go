// Package config loads and saves burnline's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/Rhymond/go-money"
)

// Config holds all burnline configuration.
type Config struct {
	Input    InputConfig    `toml:"input"`
	Analysis AnalysisConfig `toml:"analysis"`
	Display  DisplayConfig  `toml:"display"`
}

// InputConfig describes how snapshot files are read.
type InputConfig struct {
	DateLayout string  `toml:"date_layout"`
	Delimiter  string  `toml:"delimiter"`
	Columns    Columns `toml:"columns"`
}

// AnalysisConfig holds pipeline settings.
type AnalysisConfig struct {
	Aggregate      bool    `toml:"aggregate"`
	ResamplePoints int     `toml:"resample_points"`
	ThicknessMin   float64 `toml:"thickness_min"`
	ThicknessMax   float64 `toml:"thickness_max"`
}

// DisplayConfig holds terminal output settings.
type DisplayConfig struct {
	Currency string `toml:"currency"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Input: InputConfig{
			DateLayout: "2006-01-02",
			Delimiter:  "/",
			Columns:    DefaultColumns(),
		},
		Analysis: AnalysisConfig{
			Aggregate:      true,
			ResamplePoints: 100,
			ThicknessMin:   1,
			ThicknessMax:   6,
		},
		Display: DisplayConfig{
			Currency: "USD",
		},
	}
}

// Validate checks values that would break the pipeline.
func (c Config) Validate() error {
	var errs []error
	if c.Input.DateLayout == "" {
		errs = append(errs, errors.New("input.date_layout is empty"))
	}
	if c.Analysis.ResamplePoints < 2 {
		errs = append(errs, fmt.Errorf("analysis.resample_points = %d, need at least 2", c.Analysis.ResamplePoints))
	}
	if c.Analysis.ThicknessMin < 0 || c.Analysis.ThicknessMax < c.Analysis.ThicknessMin {
		errs = append(errs, fmt.Errorf("analysis thickness range [%g, %g] is invalid",
			c.Analysis.ThicknessMin, c.Analysis.ThicknessMax))
	}
	if money.GetCurrency(c.Display.Currency) == nil {
		errs = append(errs, fmt.Errorf("display.currency %q is not a known currency code", c.Display.Currency))
	}
	if err := c.Input.Columns.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "burnline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "burnline")
}

// ConfigPath returns the full path to the default config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the default config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads the config at path, returning defaults if it doesn't exist.
// Keys absent from the file keep their default values.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // user-selected config path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the config to the default path.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes the config to path, creating its directory.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user-selected config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
