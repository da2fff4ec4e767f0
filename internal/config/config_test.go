package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestLoadFromPath_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath error: %v", err)
	}
	want := DefaultConfig()
	if cfg.Hotkeys.Switcher != want.Hotkeys.Switcher {
		t.Errorf("switcher hotkey = %q, want default %q", cfg.Hotkeys.Switcher, want.Hotkeys.Switcher)
	}
}

func TestLoadFromPath_OverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
hotkeys:
  switcher: Mod4-tab
switcher:
  style: list
  split_by_pinned: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath error: %v", err)
	}
	if cfg.Hotkeys.Switcher != "Mod4-tab" {
		t.Errorf("switcher hotkey = %q, want Mod4-tab", cfg.Hotkeys.Switcher)
	}
	if cfg.Switcher.Style != "list" || !cfg.Switcher.SplitByPinned {
		t.Errorf("switcher options = %+v, want list/split_by_pinned", cfg.Switcher)
	}
	// Unspecified fields keep defaults.
	if cfg.LogLevel != "info" {
		t.Errorf("log_level = %q, want default info", cfg.LogLevel)
	}
	if cfg.ReconcileIntervalSec != 30 {
		t.Errorf("reconcile_interval_sec = %d, want default 30", cfg.ReconcileIntervalSec)
	}
}

func TestLoadFromPath_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("hotkeys: ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Error("malformed YAML should be an error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantPath string
	}{
		{"missing switcher hotkey", func(c *Config) { c.Hotkeys.Switcher = "" }, "hotkeys.switcher"},
		{"bad style", func(c *Config) { c.Switcher.Style = "popup" }, "switcher.style"},
		{"negative interval", func(c *Config) { c.ReconcileIntervalSec = -1 }, "reconcile_interval_sec"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %T, want *ValidationError", err)
			}
			if verr.Path != tt.wantPath {
				t.Errorf("error path = %q, want %q", verr.Path, tt.wantPath)
			}
		})
	}
}
