package config

import "fmt"

// Spool backends.
const (
	SpoolNone   = "none"
	SpoolJSONL  = "jsonl"
	SpoolSQLite = "sqlite"
)

// SpoolConfig defines the local copy of sanitized events.
type SpoolConfig struct {
	// Backend selects the spool type: "none", "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the spool.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the JSONL file exceeds this size.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *SpoolConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = SpoolNone
	}
	if c.Path == "" {
		switch c.Backend {
		case SpoolJSONL:
			c.Path = "telemetry-spool.jsonl"
		case SpoolSQLite:
			c.Path = "telemetry-spool.db"
		}
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
}

// Enabled reports whether a spool is configured.
func (c SpoolConfig) Enabled() bool { return c.Backend != SpoolNone && c.Backend != "" }

// Validate checks mandatory fields.
func (c SpoolConfig) Validate() error {
	switch c.Backend {
	case SpoolNone, "":
		return nil
	case SpoolJSONL, SpoolSQLite:
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}
