// Package config loads the facets tool configuration from YAML, a .env file
// and FACETS_ prefixed environment variables, in that order of precedence.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

// CurrentVersion is the only configuration format version understood.
const CurrentVersion = "1.0"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FACETS_"

// Config is the tool configuration.
type Config struct {
	Version    string           `yaml:"version" validate:"required,eq=1.0"`
	Project    ProjectConfig    `yaml:"project" envPrefix:"PROJECT_"`
	Catalog    CatalogConfig    `yaml:"catalog" envPrefix:"CATALOG_"`
	History    HistoryConfig    `yaml:"history" envPrefix:"HISTORY_"`
	Watch      WatchConfig      `yaml:"watch" envPrefix:"WATCH_"`
	Notify     NotifyConfig     `yaml:"notify" envPrefix:"NOTIFY_"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// ProjectConfig locates the faceted project.
type ProjectConfig struct {
	Root         string `yaml:"root" env:"ROOT" validate:"required"`
	Name         string `yaml:"name,omitempty" env:"NAME"`
	MetadataPath string `yaml:"metadata_path,omitempty" env:"METADATA_PATH"`
}

// CatalogConfig locates the facet catalog descriptor.
type CatalogConfig struct {
	Path string `yaml:"path" env:"PATH" validate:"required"`
}

// HistoryConfig controls the SQLite transition history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path,omitempty" env:"PATH" validate:"required_if=Enabled true"`
}

// WatchConfig controls how an open project follows external edits.
type WatchConfig struct {
	Debounce     time.Duration `yaml:"debounce,omitempty" env:"DEBOUNCE" validate:"gte=0"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty" env:"POLL_INTERVAL" validate:"gte=0"`
}

// NotifyConfig controls NATS change notifications.
type NotifyConfig struct {
	Enabled       bool   `yaml:"enabled" env:"ENABLED"`
	URL           string `yaml:"url,omitempty" env:"URL" validate:"required_if=Enabled true"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty" env:"SUBJECT_PREFIX"`
}

// MonitoringConfig groups metrics and logging.
type MonitoringConfig struct {
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
}

// MetricsConfig controls the Prometheus endpoint served by watch.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Address string `yaml:"address,omitempty" env:"ADDRESS" validate:"required_if=Enabled true"`
	Path    string `yaml:"path,omitempty" env:"PATH" validate:"omitempty,startswith=/"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty" env:"LEVEL"`
	Format LogFormat `yaml:"format,omitempty" env:"FORMAT"`
}

// Default returns a configuration with every default applied, rooted at the
// working directory.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration file at path. An empty path starts from
// Default. Environment overrides, normalization, defaults and validation are
// applied in that order.
func Load(path string) (*Config, error) {
	loadEnvFile()

	cfg := &Config{}
	if path == "" {
		cfg.Version = CurrentVersion
	} else {
		// #nosec G304 -- configuration path is operator supplied
		data, err := os.ReadFile(path)
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.ConfigError("configuration file not found").WithContext("path", path).Build()
		}
		if err != nil {
			return nil, errors.ConfigError("failed to read configuration file").WithCause(err).WithContext("path", path).Build()
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, errors.ConfigError("failed to parse configuration file").WithCause(err).WithContext("path", path).Build()
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.ConfigError("failed to apply environment overrides").WithCause(err).Build()
	}

	warnings, err := normalize(cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
	}
	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFile loads .env then .env.local without overriding variables that
// are already set. Missing files are ignored.
func loadEnvFile() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			fmt.Fprintf(os.Stderr, "Note: %s could not be loaded: %v\n", name, err)
		}
	}
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	example := Default()
	example.Project.Name = "my-project"
	example.History = HistoryConfig{Enabled: true, Path: ".settings/facets-history.db"}
	example.Notify = NotifyConfig{Enabled: false, URL: "${NATS_URL}", SubjectPrefix: "facets.changed"}

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.InternalError("failed to marshal example configuration").WithCause(err).Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.FileSystemError("failed to write configuration file").WithCause(err).WithContext("path", path).Build()
	}
	return nil
}
