package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "facets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CATALOG_DIR", "/srv/catalogs")
	path := writeConfig(t, `version: "1.0"
project:
  root: ./app
  name: shop
catalog:
  path: ${CATALOG_DIR}/java.yaml
history:
  enabled: true
watch:
  debounce: 500ms
  poll_interval: 30s
monitoring:
  logging:
    level: DEBUG
    format: Json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./app", cfg.Project.Root)
	assert.Equal(t, "shop", cfg.Project.Name)
	assert.Equal(t, "/srv/catalogs/java.yaml", cfg.Catalog.Path)
	assert.Equal(t, defaultHistoryPath, cfg.History.Path)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, 30*time.Second, cfg.Watch.PollInterval)
	assert.Equal(t, LogLevelDebug, cfg.Monitoring.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Monitoring.Logging.Format)
	assert.Equal(t, slog.LevelDebug, cfg.Monitoring.Logging.Level.Slog())
	assert.Equal(t, defaultMetricsPath, cfg.Monitoring.Metrics.Path)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("FACETS_NOTIFY_URL=nats://from-dotenv:4222\n"), 0o600))
	t.Setenv("FACETS_PROJECT_ROOT", "/work/app")
	t.Setenv("FACETS_NOTIFY_ENABLED", "true")
	t.Setenv("FACETS_METRICS_ENABLED", "true")
	t.Setenv("FACETS_LOG_LEVEL", "warn")
	t.Cleanup(func() { _ = os.Unsetenv("FACETS_NOTIFY_URL") })

	cfg, err := Load(writeConfig(t, "version: \"1.0\"\nproject:\n  root: ./ignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "/work/app", cfg.Project.Root, "environment wins over the file")
	assert.True(t, cfg.Notify.Enabled)
	assert.Equal(t, "nats://from-dotenv:4222", cfg.Notify.URL)
	assert.True(t, cfg.Monitoring.Metrics.Enabled)
	assert.Equal(t, LogLevelWarn, cfg.Monitoring.Logging.Level)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	cases := map[string]string{
		"bad version":      "version: \"2.0\"\n",
		"bad yaml":         "version: [\n",
		"notify needs url": "version: \"1.0\"\nnotify:\n  enabled: true\n",
		"negative poll":    "version: \"1.0\"\nwatch:\n  poll_interval: -1s\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestNormalizeWarnsOnUnknownEnums(t *testing.T) {
	cfg := &Config{Monitoring: MonitoringConfig{
		Logging: LoggingConfig{Level: "verbose", Format: "xml"},
		Metrics: MetricsConfig{Path: "metrics"},
	}}
	warnings, err := normalize(cfg)
	require.NoError(t, err)
	assert.Len(t, warnings, 3)
	assert.Equal(t, LogLevelInfo, cfg.Monitoring.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Monitoring.Logging.Format)
	assert.Equal(t, "/metrics", cfg.Monitoring.Metrics.Path)
}

func TestInitWritesLoadableExample(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "facets.yaml")
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.NoError(t, Init(path, true))

	t.Setenv("NATS_URL", "nats://localhost:4222")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "my-project", cfg.Project.Name)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "nats://localhost:4222", cfg.Notify.URL)
}
