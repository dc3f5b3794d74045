// Package settings loads runtime settings from ~/.labelsel/config.yaml,
// LABELSEL_* environment variables and command-line flags, in increasing
// order of precedence.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ppiankov/labelsel/internal/notify"
	"github.com/ppiankov/labelsel/internal/sink"
)

// EnvPrefix prefixes environment overrides, e.g. LABELSEL_OUTPUT.
const EnvPrefix = "LABELSEL"

// Settings holds runtime configuration.
type Settings struct {
	Layout  string          `mapstructure:"layout"`
	Output  string          `mapstructure:"output"`
	Audit   AuditSettings   `mapstructure:"audit"`
	History HistorySettings `mapstructure:"history"`
	Log     LogSettings     `mapstructure:"log"`

	// Webhooks receive every submission whose label they subscribe to.
	Webhooks []notify.WebhookConfig `mapstructure:"webhooks"`
}

// AuditSettings controls the hash-chained submission log.
type AuditSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// HistorySettings controls the SQLite annotation history.
type HistorySettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogSettings controls diagnostic logging.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FlagBindings maps setting keys to the flag names that override them.
var FlagBindings = map[string]string{
	"layout":       "layout",
	"output":       "output",
	"audit.path":   "audit-log",
	"history.path": "history-db",
	"log.level":    "log-level",
	"log.format":   "log-format",
}

// Dir returns ~/.labelsel, or "" when home is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".labelsel")
}

// DefaultPath returns ~/.labelsel/config.yaml, or "" when home is unknown.
func DefaultPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

func setDefaults(v *viper.Viper) {
	dir := Dir()
	v.SetDefault("layout", "")
	v.SetDefault("output", sink.DefaultPath)
	v.SetDefault("audit.enabled", true)
	v.SetDefault("history.enabled", true)
	if dir != "" {
		v.SetDefault("audit.path", filepath.Join(dir, "audit.jsonl"))
		v.SetDefault("history.path", filepath.Join(dir, "history.db"))
	} else {
		v.SetDefault("audit.path", "")
		v.SetDefault("history.path", "")
	}
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads settings. An empty configPath uses DefaultPath, which may be
// absent; an explicit configPath must exist. flags may be nil.
func Load(configPath string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range FlagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultPath()
	}
	if configPath != "" {
		_, err := os.Stat(configPath)
		switch {
		case err == nil:
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config failed: %w", err)
			}
		case explicit || !os.IsNotExist(err):
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the settings are usable.
func (s *Settings) Validate() error {
	if s.Output == "" {
		return fmt.Errorf("output is required")
	}
	if s.Audit.Enabled && s.Audit.Path == "" {
		return fmt.Errorf("audit.path is required when audit is enabled")
	}
	if s.History.Enabled && s.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	switch s.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", s.Log.Format)
	}
	for i, w := range s.Webhooks {
		if w.URL == "" {
			return fmt.Errorf("webhooks[%d]: url is required", i)
		}
		switch w.Format {
		case "", "generic", "slack":
		default:
			return fmt.Errorf("webhooks[%d]: format must be generic or slack, got %q", i, w.Format)
		}
	}
	return nil
}
