// Package config loads server settings from defaults, an optional YAML file,
// GRANTFORMS_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. GRANTFORMS_STORAGE_DRIVER.
const EnvPrefix = "GRANTFORMS"

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the resolved server configuration.
type Config struct {
	Addr           string        `mapstructure:"addr"`
	Title          string        `mapstructure:"title"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	DefinitionsDir string        `mapstructure:"definitions_dir"`
	PresetsFile    string        `mapstructure:"presets_file"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace"`
	Storage        StorageConfig `mapstructure:"storage"`
	Session        SessionConfig `mapstructure:"session"`
	Theme          ThemeConfig   `mapstructure:"theme"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

// StorageConfig selects the persistence backend. Every PruneEvery, visitor
// namespaces with no write for RetainFor are dropped.
type StorageConfig struct {
	Driver     string        `mapstructure:"driver"`
	Path       string        `mapstructure:"path"`
	RetainFor  time.Duration `mapstructure:"retain_for"`
	PruneEvery time.Duration `mapstructure:"prune_every"`
}

// SessionConfig controls the visitor cookie.
type SessionConfig struct {
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
}

// ThemeConfig picks the go-theme manifest and variant.
type ThemeConfig struct {
	Name    string `mapstructure:"name"`
	Variant string `mapstructure:"variant"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SetDefaults registers every known key so env and flag overrides resolve.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("title", "UK Energy Grants")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("definitions_dir", "")
	v.SetDefault("presets_file", "")
	v.SetDefault("shutdown_grace", 10*time.Second)
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.path", "grantforms.db")
	v.SetDefault("storage.retain_for", 30*24*time.Hour)
	v.SetDefault("storage.prune_every", time.Hour)
	v.SetDefault("session.cookie_name", "grantforms_session")
	v.SetDefault("session.ttl", 30*24*time.Hour)
	v.SetDefault("session.secure", false)
	v.SetDefault("theme.name", "")
	v.SetDefault("theme.variant", "")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load resolves the configuration. path may be empty; flags may be nil. A flag
// binds to the key of the same name with dashes and dots read as underscores
// and section separators respectively, e.g. --log-level or --storage.driver.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if flags != nil {
		known := make(map[string]struct{})
		for _, key := range v.AllKeys() {
			known[key] = struct{}{}
		}
		var bindErr error
		flags.VisitAll(func(flag *pflag.Flag) {
			key := strings.ReplaceAll(flag.Name, "-", "_")
			if _, ok := known[key]; !ok {
				return
			}
			if err := v.BindPFlag(key, flag); err != nil && bindErr == nil {
				bindErr = fmt.Errorf("config: bind flag %s: %w", flag.Name, err)
			}
		})
		if bindErr != nil {
			return Config{}, bindErr
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			errs = append(errs, errors.New("storage.path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	if c.ShutdownGrace < 0 {
		errs = append(errs, errors.New("shutdown_grace must not be negative"))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
