package spool

import (
	"github.com/openadapt/telemetry/core/factory"
	"github.com/openadapt/telemetry/core/monitoring"
)

// init registers the spool backends as gateway sinks.
func init() {
	_ = monitoring.RegisterSink("jsonl", func(conf map[string]any) (monitoring.Sink, error) {
		var c struct {
			Path       string `json:"path"`
			MaxSizeMB  int    `json:"max_size_mb"`
			MaxBackups int    `json:"max_backups"`
			MaxAgeDays int    `json:"max_age_days"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.MaxSizeMB <= 0 {
			c.MaxSizeMB = 10
		}
		return NewJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	})

	_ = monitoring.RegisterSink("sqlite", func(conf map[string]any) (monitoring.Sink, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
}
