// Package config loads and writes the taskflow configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/taskflow/internal/store"
)

// Config is the root configuration.
type Config struct {
	Data     DataConfig     `mapstructure:"data" yaml:"data"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Planning PlanningConfig `mapstructure:"planning" yaml:"planning"`
	Export   ExportConfig   `mapstructure:"export" yaml:"export"`
}

type DataConfig struct {
	Path string `mapstructure:"path" yaml:"path"` // SQLite database file
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
	File   string `mapstructure:"file" yaml:"file"`     // empty logs to stderr
}

type PlanningConfig struct {
	DailyMinutes int `mapstructure:"daily_minutes" yaml:"daily_minutes"` // budget before a day is planned
	Suggestions  int `mapstructure:"suggestions" yaml:"suggestions"`     // tasks offered when planning
}

type ExportConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// Dir returns ~/.config/taskflow, or ./.taskflow when the home directory
// cannot be resolved.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskflow"
	}
	return filepath.Join(home, ".config", "taskflow")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	dir := Dir()
	exportDir, err := os.UserHomeDir()
	if err != nil {
		exportDir = "."
	}
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		dbPath = filepath.Join(dir, "taskflow.db")
	}
	return &Config{
		Data: DataConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   filepath.Join(dir, "taskflow.log"),
		},
		Planning: PlanningConfig{
			DailyMinutes: 480,
			Suggestions:  5,
		},
		Export: ExportConfig{
			Dir: exportDir,
		},
	}
}

// Load reads path (Path() when empty) over the defaults. A missing file is
// not an error; it is reported as a warning. TASKFLOW_* environment
// variables override file values, e.g. TASKFLOW_PLANNING_DAILY_MINUTES.
func Load(path string) (*Config, []string, error) {
	if path == "" {
		path = Path()
	}
	cfg := DefaultConfig()
	warnings := []string{}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TASKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		warnings = append(warnings, "No config file found, using defaults")
	} else {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Data.Path = expandHome(cfg.Data.Path)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	cfg.Export.Dir = expandHome(cfg.Export.Dir)

	if cfg.Data.Path == "" {
		cfg.Data.Path = DefaultConfig().Data.Path
		warnings = append(warnings, "Empty data.path, using default database location")
	}
	if cfg.Planning.Suggestions <= 0 {
		cfg.Planning.Suggestions = 5
	}

	return cfg, warnings, nil
}

// setDefaults registers every key so environment overrides apply even when
// the file omits them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data.path", cfg.Data.Path)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("planning.daily_minutes", cfg.Planning.DailyMinutes)
	v.SetDefault("planning.suggestions", cfg.Planning.Suggestions)
	v.SetDefault("export.dir", cfg.Export.Dir)
}

// Save writes cfg as YAML, creating parent directories.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// Validate reports every invalid setting.
func Validate(cfg *Config) []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Errorf("invalid logging level: %s (valid: debug, info, warn, error)", cfg.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Errorf("invalid logging format: %s (valid: text, json)", cfg.Logging.Format))
	}

	if cfg.Planning.DailyMinutes < 0 || cfg.Planning.DailyMinutes > 24*60 {
		errs = append(errs, fmt.Errorf("invalid planning.daily_minutes: %d (must be 0-1440)", cfg.Planning.DailyMinutes))
	}
	if cfg.Planning.Suggestions < 0 {
		errs = append(errs, fmt.Errorf("invalid planning.suggestions: %d", cfg.Planning.Suggestions))
	}
	if cfg.Data.Path == "" {
		errs = append(errs, errors.New("data.path is required"))
	}

	return errs
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
