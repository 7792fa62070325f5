// Package config resolves telemetry settings from defaults, a persisted
// store and the environment, and loads the gateway's sink configuration.
package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidSampleRate is returned when a sample rate lies outside [0,1].
	ErrInvalidSampleRate = errors.New("sample rate must be within [0,1]")
	// ErrUnknownKey is returned by Set for names outside Keys.
	ErrUnknownKey = errors.New("unknown config key")
)

// Config is one snapshot of the telemetry settings. Snapshots are values and
// are replaced as a whole, never mutated in place.
type Config struct {
	Enabled             bool    `json:"enabled"`
	Internal            bool    `json:"internal"`
	DSN                 string  `json:"dsn"`
	Environment         string  `json:"environment"`
	SampleRate          float64 `json:"sample_rate"`
	TracesSampleRate    float64 `json:"traces_sample_rate"`
	ErrorTracking       bool    `json:"error_tracking"`
	PerformanceTracking bool    `json:"performance_tracking"`
	FeatureUsage        bool    `json:"feature_usage"`
	SendDefaultPII      bool    `json:"send_default_pii"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		Enabled:             true,
		Environment:         "production",
		SampleRate:          1.0,
		TracesSampleRate:    0.01,
		ErrorTracking:       true,
		PerformanceTracking: true,
		FeatureUsage:        true,
	}
}

// Validate checks that both rates are probabilities.
func (c Config) Validate() error {
	if !isRate(c.SampleRate) {
		return fmt.Errorf("sample_rate %v: %w", c.SampleRate, ErrInvalidSampleRate)
	}
	if !isRate(c.TracesSampleRate) {
		return fmt.Errorf("traces_sample_rate %v: %w", c.TracesSampleRate, ErrInvalidSampleRate)
	}
	return nil
}

func isRate(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// ToMap returns the flat mapping persisted by Save.
func (c Config) ToMap() map[string]any {
	return map[string]any{
		"enabled":              c.Enabled,
		"internal":             c.Internal,
		"dsn":                  c.DSN,
		"environment":          c.Environment,
		"sample_rate":          c.SampleRate,
		"traces_sample_rate":   c.TracesSampleRate,
		"error_tracking":       c.ErrorTracking,
		"performance_tracking": c.PerformanceTracking,
		"feature_usage":        c.FeatureUsage,
		"send_default_pii":     c.SendDefaultPII,
	}
}

// Keys lists the persisted field names in a stable order.
func Keys() []string {
	return []string{
		"enabled", "internal", "dsn", "environment", "sample_rate",
		"traces_sample_rate", "error_tracking", "performance_tracking",
		"feature_usage", "send_default_pii",
	}
}

// Set returns a copy of c with the named field parsed from value. Booleans
// accept the same spellings as the environment.
func (c Config) Set(key, value string) (Config, error) {
	switch key {
	case "enabled":
		c.Enabled = ParseBool(value)
	case "internal":
		c.Internal = ParseBool(value)
	case "error_tracking":
		c.ErrorTracking = ParseBool(value)
	case "performance_tracking":
		c.PerformanceTracking = ParseBool(value)
	case "feature_usage":
		c.FeatureUsage = ParseBool(value)
	case "send_default_pii":
		c.SendDefaultPII = ParseBool(value)
	case "dsn":
		c.DSN = value
	case "environment":
		c.Environment = value
	case "sample_rate", "traces_sample_rate":
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return c, fmt.Errorf("%s %q: %w", key, value, ErrInvalidSampleRate)
		}
		if key == "sample_rate" {
			c.SampleRate = f
		} else {
			c.TracesSampleRate = f
		}
	default:
		return c, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return c, c.Validate()
}
