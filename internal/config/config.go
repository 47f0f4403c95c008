// Package config handles configuration loading and defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ldi/todo/internal/logging"
	"github.com/ldi/todo/pkg/models"
)

// Default values.
const (
	DefaultDataFile    = "~/.todo/tasks.todo"
	DefaultFilter      = "All"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultWebPort     = "8000"
	ProjectConfigFile  = ".todo.toml"
	UserConfigDirName  = "todo"
	UserConfigFileName = "config.toml"
	EnvConfigFile      = "TODO_CONFIG"
	EnvDataFile        = "TODO_DATA_FILE"
	EnvDefaultFilter   = "TODO_DEFAULT_FILTER"
	EnvLogLevel        = "TODO_LOG_LEVEL"
	EnvAutosave        = "TODO_AUTOSAVE"
)

// Config holds the full configuration for todo.
type Config struct {
	// Path of the task file opened at startup. The extension picks the
	// storage format: .db/.sqlite for SQLite, anything else for JSON lines.
	DataFile string `toml:"data_file"`

	// Status filter the TUI starts with (All, Active, Completed).
	DefaultFilter string `toml:"default_filter"`

	// Save the data file after every change.
	Autosave bool `toml:"autosave"`

	// Seed the three sample tasks when the data file does not exist yet.
	SeedSamples bool `toml:"seed_samples"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	WebPort string `toml:"web_port"`

	// Files that contributed to this config, in load order.
	Sources []string `toml:"-"`
}

func setDefaults(cfg *Config) {
	cfg.DataFile = DefaultDataFile
	cfg.DefaultFilter = DefaultFilter
	cfg.Autosave = true
	cfg.SeedSamples = true
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.WebPort = DefaultWebPort
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file ($XDG_CONFIG_HOME/todo/config.toml or ~/.todo/config.toml)
// 3. Project config file (.todo.toml in the current directory)
// 4. Explicit config file (-config flag or TODO_CONFIG)
// 5. Environment variables
// 6. CLI flags
//
// Global flags are registered on fs and parsed from args; the remaining
// arguments (the subcommand and its flags) are returned.
func Load(fs *flag.FlagSet, args []string) (*Config, []string, error) {
	cfg := Default()

	configFile := fs.String("config", "", "Path to a TOML config file")
	dataFile := fs.String("data", "", "Path to the task file (.todo, .jsonl, .db)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	noAutosave := fs.Bool("no-autosave", false, "Do not save after every change")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if path := findUserConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, nil, fmt.Errorf("loading user config file %s: %w", path, err)
		}
	}

	if path := findProjectConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, nil, fmt.Errorf("loading project config file %s: %w", path, err)
		}
	}

	explicit := *configFile
	if explicit == "" {
		explicit = os.Getenv(EnvConfigFile)
	}
	if explicit != "" {
		if err := loadConfigFile(cfg, expandPath(explicit)); err != nil {
			return nil, nil, fmt.Errorf("loading config file %s: %w", explicit, err)
		}
	}

	loadFromEnv(cfg)

	if *dataFile != "" {
		cfg.DataFile = *dataFile
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if *noAutosave {
		cfg.Autosave = false
	}

	if err := finalizeConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("finalizing config: %w", err)
	}

	return cfg, fs.Args(), nil
}

// LoadFile reads a single TOML file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := loadConfigFile(cfg, path); err != nil {
		return nil, err
	}
	if err := finalizeConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	cfg.Sources = append(cfg.Sources, path)
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv(EnvDataFile); v != "" {
		cfg.DataFile = v
	}
	if v := os.Getenv(EnvDefaultFilter); v != "" {
		cfg.DefaultFilter = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvAutosave); v != "" {
		cfg.Autosave = boolFromString(v)
	}
}

// finalizeConfig expands paths and validates enumerated values.
func finalizeConfig(cfg *Config) error {
	cfg.DataFile = expandPath(cfg.DataFile)
	if cfg.DataFile == "" {
		return fmt.Errorf("data_file must not be empty")
	}
	return cfg.Validate()
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, err := models.ParseStatusFilter(c.DefaultFilter); err != nil {
		return fmt.Errorf("default_filter %q: %w", c.DefaultFilter, err)
	}
	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("log_level %q: expected debug, info, warn or error", c.LogLevel)
	}
	if !logging.ValidFormat(c.LogFormat) {
		return fmt.Errorf("log_format %q: expected text, json or logfmt", c.LogFormat)
	}
	return nil
}

// StatusFilter returns the parsed default filter. Validate has already
// rejected bad values.
func (c *Config) StatusFilter() models.StatusFilter {
	f, err := models.ParseStatusFilter(c.DefaultFilter)
	if err != nil {
		return models.FilterAll
	}
	return f
}

// LogOptions returns the logging options derived from the config.
func (c *Config) LogOptions() logging.Options {
	return logging.Options{Level: c.LogLevel, Format: c.LogFormat}
}

func findProjectConfigFile() string {
	if _, err := os.Stat(ProjectConfigFile); err == nil {
		return ProjectConfigFile
	}
	return ""
}

func findUserConfigFile() string {
	if cfgDir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(cfgDir, UserConfigDirName, UserConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".todo", UserConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func boolFromString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func expandPath(p string) string {
	if p == "" {
		return p
	}

	expanded := os.ExpandEnv(p)
	if expanded == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		return home
	}
	if strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		return filepath.Join(home, expanded[2:])
	}
	return expanded
}
