// Package config loads romakan settings from TOML, YAML or JSON.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dictionary source selectors.
const (
	SourceAuto   = "auto"
	SourceTSV    = "tsv"
	SourceSQLite = "sqlite"
)

// Config is the root configuration.
type Config struct {
	Dictionary DictionaryConfig `toml:"dictionary" json:"dictionary" yaml:"dictionary"`
	IME        IMEConfig        `toml:"ime" json:"ime" yaml:"ime"`
	UI         UIConfig         `toml:"ui" json:"ui" yaml:"ui"`
	Log        LogConfig        `toml:"log" json:"log" yaml:"log"`
	Server     ServerConfig     `toml:"server" json:"server" yaml:"server"`
}

// DictionaryConfig says where the conversion dictionary comes from.
type DictionaryConfig struct {
	// Path is a TSV file of "reading\tcand1,cand2" lines.
	Path string `toml:"path" json:"path" yaml:"path"`

	// Database is a SQLite store written by "romakan import".
	Database string `toml:"database" json:"database" yaml:"database"`

	// Source is one of auto, tsv or sqlite.
	Source string `toml:"source" json:"source" yaml:"source"`
}

// IMEConfig holds session defaults.
type IMEConfig struct {
	StartEnabled bool `toml:"start_enabled" json:"start_enabled" yaml:"start_enabled"`
}

// UIConfig holds TUI settings. These are applied live on reload.
type UIConfig struct {
	MaxCandidates    int  `toml:"max_candidates" json:"max_candidates" yaml:"max_candidates"`
	ShowRomajiStatus bool `toml:"show_romaji_status" json:"show_romaji_status" yaml:"show_romaji_status"`
}

// LogConfig selects log verbosity and destination.
type LogConfig struct {
	Level string `toml:"level" json:"level" yaml:"level"`
	File  string `toml:"file" json:"file" yaml:"file"`
}

// ServerConfig configures the session socket.
type ServerConfig struct {
	Socket string `toml:"socket" json:"socket" yaml:"socket"`
}

// Dir returns the romakan configuration directory.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "romakan")
}

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		Dictionary: DictionaryConfig{
			Path:     filepath.Join(dir, "dictionary.tsv"),
			Database: filepath.Join(dir, "dictionary.sqlite"),
			Source:   SourceAuto,
		},
		IME: IMEConfig{
			StartEnabled: true,
		},
		UI: UIConfig{
			MaxCandidates:    9,
			ShowRomajiStatus: true,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "romakan.log"),
		},
		Server: ServerConfig{
			Socket: filepath.Join(dir, "romakan.sock"),
		},
	}
}

// ApplyEnvOverrides replaces settings from ROMAKAN_* variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ROMAKAN_DICTIONARY"); v != "" {
		c.Dictionary.Path = v
	}
	if v := os.Getenv("ROMAKAN_DATABASE"); v != "" {
		c.Dictionary.Database = v
	}
	if v := os.Getenv("ROMAKAN_SOCKET"); v != "" {
		c.Server.Socket = v
	}
	if v := os.Getenv("ROMAKAN_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration for values the program cannot use.
func (c *Config) Validate() error {
	var errs []error

	switch c.Dictionary.Source {
	case SourceAuto, SourceTSV, SourceSQLite:
	default:
		errs = append(errs, fmt.Errorf("dictionary.source: unknown source %q", c.Dictionary.Source))
	}
	if c.Dictionary.Source == SourceTSV && c.Dictionary.Path == "" {
		errs = append(errs, errors.New("dictionary.path: required when source is tsv"))
	}
	if c.Dictionary.Source == SourceSQLite && c.Dictionary.Database == "" {
		errs = append(errs, errors.New("dictionary.database: required when source is sqlite"))
	}

	if c.UI.MaxCandidates < 1 || c.UI.MaxCandidates > 9 {
		errs = append(errs, fmt.Errorf("ui.max_candidates: %d is outside 1..9", c.UI.MaxCandidates))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}

	return errors.Join(errs...)
}

// Load reads path, falling back to defaults when it does not exist, then
// applies environment overrides and validates.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}
