package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Hotkeys holds the global key bindings. Format is xgbutil keybind
// syntax, e.g. "Mod1-tab" or "Mod4-grave".
type Hotkeys struct {
	// Switcher opens the MRU switcher (or advances it when open).
	Switcher string `yaml:"switcher"`
	// SwitcherBackward retreats through the open switcher.
	SwitcherBackward string `yaml:"switcher_backward"`
	// CycleGroup steps through the selected group item's windows while
	// the switcher is open.
	CycleGroup string `yaml:"cycle_group"`
	// GroupNextTab cycles the focused window's group by recency.
	GroupNextTab string `yaml:"group_next_tab"`
	// GroupPrevTab switches to the previous tab in the focused window's
	// group.
	GroupPrevTab string `yaml:"group_prev_tab"`
}

// Switcher holds switcher presentation and segmentation options.
type Switcher struct {
	// Style selects the presentation shape: "overlay" or "list".
	Style string `yaml:"style"`
	// SplitByPinned presents a group's pinned and unpinned tabs as
	// separate switcher entries.
	SplitByPinned bool `yaml:"split_by_pinned"`
	// SplitBySeparator presents each separator-delimited run as its own
	// switcher entry.
	SplitBySeparator bool `yaml:"split_by_separator"`
}

// Config is the tabgroupd configuration.
type Config struct {
	Hotkeys  Hotkeys  `yaml:"hotkeys"`
	Switcher Switcher `yaml:"switcher"`

	// ReconcileIntervalSec is how often the daemon prunes records for
	// windows that no longer exist. 0 disables the reconciler.
	ReconcileIntervalSec int `yaml:"reconcile_interval_sec"`

	// LogLevel controls daemon logging: debug, info, warning, error.
	LogLevel string `yaml:"log_level"`
}

// ValidationError reports an invalid configuration value with its YAML
// path.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Hotkeys: Hotkeys{
			Switcher:         "Mod1-tab",
			SwitcherBackward: "Mod1-Shift-tab",
			CycleGroup:       "Mod1-grave",
			GroupNextTab:     "Mod4-tab",
			GroupPrevTab:     "Mod4-Shift-tab",
		},
		Switcher: Switcher{
			Style:            "overlay",
			SplitByPinned:    false,
			SplitBySeparator: true,
		},
		ReconcileIntervalSec: 30,
		LogLevel:             "info",
	}
}

// DefaultConfigPath returns the config file location under the XDG config
// directory, creating parent directories as needed.
func DefaultConfigPath() (string, error) {
	path, err := xdg.ConfigFile("tabgroupd/config.yaml")
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	return path, nil
}

// Load reads the config from the standard location. A missing file yields
// the defaults.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the config from an explicit path. A missing file
// yields the defaults; a malformed or invalid file is an error.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the standard location.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.Hotkeys.Switcher == "" {
		return &ValidationError{Path: "hotkeys.switcher", Err: fmt.Errorf("switcher hotkey is required")}
	}
	switch c.Switcher.Style {
	case "overlay", "list":
	default:
		return &ValidationError{Path: "switcher.style", Err: fmt.Errorf("style must be one of: overlay, list")}
	}
	if c.ReconcileIntervalSec < 0 {
		return &ValidationError{Path: "reconcile_interval_sec", Err: fmt.Errorf("reconcile_interval_sec must be >= 0")}
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	return nil
}
