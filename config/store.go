package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/knadh/koanf/parsers/yaml"
)

// DefaultPath returns ~/.config/openadapt/telemetry.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", "openadapt", "telemetry.json"), nil
}

// Save writes cfg as a flat mapping to path, creating parent directories.
// A .yaml or .yml extension selects YAML, anything else indented JSON. The
// file is replaced atomically.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Parser().Marshal(cfg.ToMap())
	} else {
		data, err = json.MarshalIndent(cfg.ToMap(), "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".telemetry-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// Store holds the current snapshot. Readers never observe a partially
// updated configuration.
type Store struct {
	current atomic.Pointer[Config]
}

// NewStore returns a Store holding cfg.
func NewStore(cfg Config) *Store {
	s := &Store{}
	s.Set(cfg)
	return s
}

// Get returns the current snapshot.
func (s *Store) Get() Config {
	if c := s.current.Load(); c != nil {
		return *c
	}
	return Defaults()
}

// Set replaces the snapshot and returns the previous one.
func (s *Store) Set(cfg Config) Config {
	old := s.current.Swap(&cfg)
	if old == nil {
		return Defaults()
	}
	return *old
}
