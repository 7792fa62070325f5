package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/openadapt/telemetry/core/factory"
)

// GatewayEnvPrefix prefixes gateway overrides; "__" separates nested keys,
// e.g. OPENADAPT_GATEWAY_SPOOL__BACKEND=sqlite.
const GatewayEnvPrefix = "OPENADAPT_GATEWAY_"

// GatewayConfig describes where events go. It is separate from the persisted
// telemetry settings, which only decide whether and how much to send.
type GatewayConfig struct {
	// Store is the persisted telemetry settings file; empty means DefaultPath.
	Store   string                 `json:"store"`
	Watch   bool                   `json:"watch"`
	Package PackageConfig          `json:"package"`
	Sentry  SentryConfig           `json:"sentry"`
	Spool   SpoolConfig            `json:"spool"`
	Sinks   []factory.ModuleConfig `json:"sinks"`
	Metrics MetricsConfig          `json:"metrics"`
}

// PackageConfig identifies the instrumented package in default tags.
type PackageConfig struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// SentryConfig holds transport options that are not part of the persisted
// settings. The DSN and rates come from Config.
type SentryConfig struct {
	Release      string        `json:"release"`
	Debug        bool          `json:"debug"`
	FlushTimeout time.Duration `json:"flush_timeout"`
}

// MetricsConfig selects pipeline metrics recorders.
type MetricsConfig struct {
	Recorders []factory.ModuleConfig `json:"recorders"`
	// PrometheusAddr serves /metrics when set, e.g. ":9464".
	PrometheusAddr string `json:"prometheus_addr"`
}

// SetDefaults fills unset fields.
func (c *GatewayConfig) SetDefaults() {
	if c.Package.Name == "" {
		c.Package.Name = "openadapt"
	}
	if c.Package.Version == "" {
		c.Package.Version = "unknown"
	}
	if c.Sentry.FlushTimeout <= 0 {
		c.Sentry.FlushTimeout = 2 * time.Second
	}
	c.Spool.SetDefaults()
}

// Validate checks mandatory fields.
func (c GatewayConfig) Validate() error {
	if err := c.Spool.Validate(); err != nil {
		return fmt.Errorf("spool: %w", err)
	}
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("sinks[%d]: type is required", i)
		}
	}
	for i, r := range c.Metrics.Recorders {
		if r.Type == "" {
			return fmt.Errorf("metrics.recorders[%d]: type is required", i)
		}
	}
	return nil
}

// StorePath returns the persisted settings path.
func (c GatewayConfig) StorePath() (string, error) {
	if c.Store != "" {
		return c.Store, nil
	}
	return DefaultPath()
}

// LoadGateway reads the gateway file at path, applies environment overrides
// and defaults. An empty path yields the defaults plus overrides.
func LoadGateway(path string) (*GatewayConfig, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".json" && !isYAML(path) {
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, fmt.Errorf("load gateway config: %w", err)
		}
	}
	if err := k.Load(env.Provider(GatewayEnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, GatewayEnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load gateway env: %w", err)
	}
	var cfg GatewayConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode gateway config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
