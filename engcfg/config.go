// Package engcfg reads the engine's own TOML configuration file
// (hlasm.toml): knobs the external analysis contract leaves to the
// implementation, such as statement count ceilings, default ACTR
// counters, and the cooperative scheduler's yield interval.
//
// This is distinct from the processor-group/program JSON configuration
// a workspace supplies (.hlasmplugin/proc_grps.json, pgm_conf.json,
// read by the library package): that format is mandated by the
// external contract, while hlasm.toml is this engine's own.
package engcfg

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds every engine knob the external contract leaves
// unspecified.
type Config struct {
	Limits struct {
		MaxOpenStatements int `toml:"max_open_statements"`
		MaxNestedMacros   int `toml:"max_nested_macros"`
		MaxSysndx         int `toml:"max_sysndx"`
		DefaultActr       int `toml:"default_actr"`
		YieldEvery        int `toml:"yield_every_statements"`
	} `toml:"limits"`

	Logging struct {
		Verbose    bool   `toml:"verbose"`
		TraceFile  string `toml:"trace_file"`
		StatsFile  string `toml:"stats_file"`
		JSONFormat bool   `toml:"json_format"`
	} `toml:"logging"`

	Debugger struct {
		HistorySize   int  `toml:"history_size"`
		ShowSource    bool `toml:"show_source"`
		StopOnEntry   bool `toml:"stop_on_entry"`
	} `toml:"debugger"`

	Library struct {
		SearchPaths []string `toml:"search_paths"`
	} `toml:"library"`
}

// DefaultConfig mirrors the defaults the engine runs with when no
// hlasm.toml is found.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Limits.MaxOpenStatements = 10000000
	cfg.Limits.MaxNestedMacros = 100
	cfg.Limits.MaxSysndx = 9999
	cfg.Limits.DefaultActr = 4096
	cfg.Limits.YieldEvery = 2000

	cfg.Logging.Verbose = false
	cfg.Logging.TraceFile = ""
	cfg.Logging.StatsFile = ""
	cfg.Logging.JSONFormat = false

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowSource = true
	cfg.Debugger.StopOnEntry = false

	cfg.Library.SearchPaths = nil

	return cfg
}

// ConfigPath returns the platform-specific default hlasm.toml location.
func ConfigPath() string {
	var dir string

	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		dir = filepath.Join(dir, "hlasm-analyzer")

	case "darwin", "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "hlasm.toml"
		}
		dir = filepath.Join(home, ".config", "hlasm-analyzer")

	default:
		return "hlasm.toml"
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return "hlasm.toml"
	}
	return filepath.Join(dir, "hlasm.toml")
}

// Load reads the default hlasm.toml, falling back to DefaultConfig if
// it does not exist.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads and merges path's TOML contents over DefaultConfig.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse engine config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveTo writes cfg to path as TOML, creating parent directories as
// needed.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create engine config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return fmt.Errorf("create engine config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode engine config: %w", err)
	}
	return nil
}
