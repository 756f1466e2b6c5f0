package config

import "git.home.luguber.info/inful/facets/internal/watch"

const (
	defaultCatalogPath    = "facets-catalog.yaml"
	defaultMetricsAddress = ":9464"
	defaultMetricsPath    = "/metrics"
	defaultSubjectPrefix  = "facets.changed"
	defaultHistoryPath    = ".settings/facets-history.db"
)

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Project.Root == "" {
		cfg.Project.Root = "."
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = defaultCatalogPath
	}
	if cfg.History.Enabled && cfg.History.Path == "" {
		cfg.History.Path = defaultHistoryPath
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = watch.DefaultDebounce
	}
	if cfg.Notify.SubjectPrefix == "" {
		cfg.Notify.SubjectPrefix = defaultSubjectPrefix
	}
	m := &cfg.Monitoring.Metrics
	if m.Address == "" {
		m.Address = defaultMetricsAddress
	}
	if m.Path == "" {
		m.Path = defaultMetricsPath
	}
	l := &cfg.Monitoring.Logging
	if l.Level == "" {
		l.Level = LogLevelInfo
	}
	if l.Format == "" {
		l.Format = LogFormatText
	}
}
