package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

// normalize case-folds enumerations and trims paths. Unknown enumeration
// values fall back to their default and are reported as warnings.
func normalize(cfg *Config) ([]string, error) {
	if cfg == nil {
		return nil, errors.ConfigError("configuration is nil").Build()
	}
	var warnings []string

	log := &cfg.Monitoring.Logging
	if raw := string(log.Level); raw != "" {
		lvl, err := logLevelNormalizer.NormalizeWithError(raw)
		if err != nil {
			warnings = append(warnings, err.Error())
			lvl = NormalizeLogLevel(raw)
		}
		log.Level = lvl
	}
	if raw := string(log.Format); raw != "" {
		f, err := logFormatNormalizer.NormalizeWithError(raw)
		if err != nil {
			warnings = append(warnings, err.Error())
			f = NormalizeLogFormat(raw)
		}
		log.Format = f
	}

	cfg.Version = strings.TrimSpace(cfg.Version)
	cfg.Project.Root = strings.TrimSpace(cfg.Project.Root)
	cfg.Catalog.Path = strings.TrimSpace(cfg.Catalog.Path)
	if p := cfg.Monitoring.Metrics.Path; p != "" && !strings.HasPrefix(p, "/") {
		warnings = append(warnings, fmt.Sprintf("metrics path %q does not start with '/', prefixed", p))
		cfg.Monitoring.Metrics.Path = "/" + p
	}
	return warnings, nil
}
