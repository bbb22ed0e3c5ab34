package config

import "time"

type TelemetryCfg struct {
	// LogsEnabled turns on the periodic counter log lines.
	LogsEnabled bool `yaml:"logs_enabled"`

	// LogsInterval is the period between counter log lines.
	// Example: "5s".
	LogsInterval time.Duration `yaml:"logs_interval"`

	// MetricsNamespace prefixes the prometheus metric names.
	// Example: "fetchcache".
	MetricsNamespace string `yaml:"metrics_namespace"`
}

func (cfg *TelemetryCfg) Enabled() bool {
	return cfg != nil
}
