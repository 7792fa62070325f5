package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/openadapt/telemetry/core/gate"
	"github.com/openadapt/telemetry/core/logger"
)

// EnvPrefix prefixes the per-field environment overrides.
const EnvPrefix = "OPENADAPT_TELEMETRY_"

// Loader resolves the effective configuration.
type Loader struct {
	// Path of the persisted store; empty skips the store.
	Path string
	// Log receives notices about ignored store content; nil discards them.
	Log logger.Logger
	// StoreOnly skips the environment layers, yielding what is persisted.
	StoreOnly bool
}

// NewLoader returns a Loader reading the store at path.
func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

// Load resolves defaults, then the persisted store, then the environment.
// Nothing is cached between calls. An unreadable or malformed store and
// malformed numeric variables are ignored; out of range rates are returned
// as errors wrapping ErrInvalidSampleRate.
func (l *Loader) Load() (Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults().ToMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if fk := l.store(); fk != nil {
		if err := k.Merge(fk); err != nil {
			return Config{}, fmt.Errorf("merge store: %w", err)
		}
	}
	if !l.StoreOnly {
		if err := k.Load(confmap.Provider(envFlags(gate.OSLookup), "."), nil); err != nil {
			return Config{}, fmt.Errorf("load env flags: %w", err)
		}
		if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
			return Config{}, fmt.Errorf("load env: %w", err)
		}
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (l *Loader) logger() logger.Logger {
	if l.Log == nil {
		return logger.NopLogger{}
	}
	return l.Log
}

// store reads the persisted file into its own koanf instance so that a
// malformed file contributes nothing.
func (l *Loader) store() *koanf.Koanf {
	if l.Path == "" {
		return nil
	}
	if _, err := os.Stat(l.Path); err != nil {
		return nil
	}
	fk := koanf.New(".")
	if err := fk.Load(file.Provider(l.Path), parserFor(l.Path)); err != nil {
		l.logger().Warnf("ignoring telemetry store %s: %v", l.Path, err)
		return nil
	}
	fk = withoutNulls(fk)
	probe := koanf.New(".")
	_ = probe.Load(confmap.Provider(Defaults().ToMap(), "."), nil)
	if err := probe.Merge(fk); err != nil {
		return nil
	}
	var cfg Config
	if err := probe.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		l.logger().Warnf("ignoring telemetry store %s: %v", l.Path, err)
		return nil
	}
	return fk
}

// withoutNulls drops null store values so the defaults underneath survive.
// A null dsn is kept as an explicit empty DSN.
func withoutNulls(fk *koanf.Koanf) *koanf.Koanf {
	kept := map[string]any{}
	for key, v := range fk.All() {
		switch {
		case v != nil:
			kept[key] = v
		case key == "dsn":
			kept[key] = ""
		}
	}
	out := koanf.New(".")
	_ = out.Load(confmap.Provider(kept, "."), nil)
	return out
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func parserFor(path string) koanf.Parser {
	if isYAML(path) {
		return yaml.Parser()
	}
	return json.Parser()
}

// envFlags maps the opt-out and internal-use variables onto fields.
func envFlags(lookup gate.LookupFunc) map[string]any {
	flags := map[string]any{}
	if gate.DoNotTrack(lookup) {
		flags["enabled"] = false
	}
	if gate.InternalFlag(lookup) {
		flags["internal"] = true
	}
	return flags
}

// envValue maps OPENADAPT_TELEMETRY_* variables onto fields. Returning an
// empty key makes koanf skip the variable.
func envValue(key, value string) (string, any) {
	if value == "" {
		return "", nil
	}
	switch strings.TrimPrefix(key, EnvPrefix) {
	case "ENABLED":
		return "enabled", ParseBool(value)
	case "DSN":
		return "dsn", value
	case "ENVIRONMENT":
		return "environment", value
	case "SAMPLE_RATE":
		return floatValue("sample_rate", value)
	case "TRACES_SAMPLE_RATE":
		return floatValue("traces_sample_rate", value)
	}
	return "", nil
}

func floatValue(field, value string) (string, any) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return "", nil
	}
	return field, f
}

// ParseBool reports whether value is one of true, 1, yes or on, ignoring case.
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
