package telemetry

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/openadapt/telemetry/config"
	"github.com/openadapt/telemetry/core/event"
	"github.com/openadapt/telemetry/core/gate"
	"github.com/openadapt/telemetry/core/logger"
	"github.com/openadapt/telemetry/core/metrics"
	"github.com/openadapt/telemetry/core/monitoring"
	"github.com/openadapt/telemetry/core/privacy"
)

var (
	// ErrDisabled is returned by capture calls when telemetry is turned off.
	ErrDisabled = errors.New("telemetry disabled")
	// ErrNotInitialized is returned by capture calls before Initialize.
	ErrNotInitialized = errors.New("telemetry client not initialized")
)

// MaxBreadcrumbs bounds the breadcrumb ring.
const MaxBreadcrumbs = 100

// ConfigSource resolves the effective configuration. *config.Loader
// implements it.
type ConfigSource interface {
	Load() (config.Config, error)
}

// SinkFactory builds the remote transport for a resolved configuration with
// a DSN. It is not called when the DSN is empty.
type SinkFactory func(cfg config.Config, opts InitOptions) (monitoring.Sink, error)

// Options configures a Client.
type Options struct {
	Source ConfigSource
	// NewSink builds the remote transport; nil disables remote delivery.
	NewSink SinkFactory
	// Local receives every event in addition to the remote transport, e.g.
	// a spool. A Client with a local sink initializes without a DSN.
	Local    monitoring.Sink
	Recorder metrics.Recorder
	Log      logger.Logger
	// Lookup reads environment variables; nil uses the process environment.
	Lookup gate.LookupFunc
	// Probe detects internal usage; nil probes the running process.
	Probe *gate.Probe
	Now   func() time.Time
}

// InitOptions are the per-package settings passed to Initialize. Explicit DSN
// and Environment values override the resolved configuration.
type InitOptions struct {
	DSN            string
	PackageName    string
	PackageVersion string
	Environment    string
	// Force re-initializes an already configured client.
	Force bool
}

func (o InitOptions) withDefaults() InitOptions {
	if o.PackageName == "" {
		o.PackageName = "openadapt"
	}
	if o.PackageVersion == "" {
		o.PackageVersion = "unknown"
	}
	return o
}

// Client is the telemetry handle. It is safe for concurrent use.
type Client struct {
	source   ConfigSource
	newSink  SinkFactory
	local    monitoring.Sink
	recorder metrics.Recorder
	log      logger.Logger
	lookup   gate.LookupFunc
	now      func() time.Time

	enabled  bool
	internal bool

	mu          sync.RWMutex
	initialized bool
	cfg         *config.Config
	initOpts    InitOptions
	remote      monitoring.Sink
	sink        monitoring.Sink
	sampler     gate.Sampler
	tags        map[string]string
	contexts    map[string]privacy.Mapping
	user        privacy.Mapping
	breadcrumbs []event.Breadcrumb
}

// New returns an unconfigured Client. The opt-out gate and the internal-use
// heuristics are evaluated once here.
func New(opts Options) *Client {
	if opts.Source == nil {
		path, _ := config.DefaultPath()
		opts.Source = &config.Loader{Path: path, Log: opts.Log}
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NopRecorder{}
	}
	if opts.Log == nil {
		opts.Log = logger.NopLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	probe := gate.Probe{Lookup: opts.Lookup}
	if opts.Probe != nil {
		probe = *opts.Probe
	}
	return &Client{
		source:   opts.Source,
		newSink:  opts.NewSink,
		local:    opts.Local,
		recorder: opts.Recorder,
		log:      opts.Log,
		lookup:   opts.Lookup,
		now:      opts.Now,
		enabled:  gate.Enabled(opts.Lookup),
		internal: probe.IsInternal(),
		tags:     map[string]string{},
		contexts: map[string]privacy.Mapping{},
	}
}

// NewForTest returns an enabled, initialized Client delivering to sink with
// the default configuration. It ignores the process environment.
func NewForTest(sink monitoring.Sink) *Client {
	empty := gate.LookupFunc(func(string) (string, bool) { return "", false })
	c := New(Options{
		Source: staticSource(config.Defaults()),
		Local:  sink,
		Lookup: empty,
		Probe:  &gate.Probe{Lookup: empty, DevBuild: func() bool { return false }, Dir: os.TempDir()},
	})
	if _, err := c.Initialize(InitOptions{PackageName: "test", PackageVersion: "0.0.0"}); err != nil {
		panic(err)
	}
	return c
}

type staticSource config.Config

func (s staticSource) Load() (config.Config, error) { return config.Config(s), nil }

// Enabled reports the opt-out gate evaluated at construction.
func (c *Client) Enabled() bool { return c.enabled }

// Internal reports whether usage looked internal at construction.
func (c *Client) Internal() bool { return c.internal }

// Initialized reports whether Initialize succeeded.
func (c *Client) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// Config returns the configuration resolved by the last Initialize call, or
// false when none was resolved yet.
func (c *Client) Config() (config.Config, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cfg == nil {
		return config.Config{}, false
	}
	return *c.cfg, true
}

// Initialize resolves the configuration and builds the transport. It reports
// false without error when telemetry is disabled or no transport applies.
// Once configured, further calls are no-ops unless Force is set.
func (c *Client) Initialize(opts InitOptions) (bool, error) {
	if !c.enabled {
		return false, nil
	}
	opts = opts.withDefaults()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized && !opts.Force {
		return true, nil
	}

	cfg, err := c.source.Load()
	if err != nil {
		return false, fmt.Errorf("resolve telemetry config: %w", err)
	}
	if opts.DSN != "" {
		cfg.DSN = opts.DSN
	}
	if opts.Environment != "" {
		cfg.Environment = opts.Environment
	}
	c.cfg = &cfg
	if !cfg.Enabled {
		c.log.Infof("telemetry disabled by configuration")
		return false, nil
	}

	var remote monitoring.Sink
	if cfg.DSN != "" && c.newSink != nil {
		remote, err = c.newSink(cfg, opts)
		if err != nil {
			return false, fmt.Errorf("create telemetry sink: %w", err)
		}
	}
	sink := combine(remote, c.local)
	if sink == nil {
		c.log.Debugf("no DSN and no local sink configured; telemetry stays off")
		return false, nil
	}
	if c.remote != nil {
		c.remote.Flush(time.Second)
		if err := c.remote.Close(); err != nil {
			c.log.Warnf("close previous sink: %v", err)
		}
	}

	c.remote = remote
	c.sink = sink
	c.initOpts = opts
	c.sampler = gate.NewSampler(cfg.SampleRate)
	c.tags["internal"] = strconv.FormatBool(c.internal)
	c.tags["package"] = opts.PackageName
	c.tags["package_version"] = opts.PackageVersion
	c.tags["go_version"] = runtime.Version()
	c.tags["os"] = runtime.GOOS
	c.tags["arch"] = runtime.GOARCH
	c.tags["ci"] = strconv.FormatBool(gate.IsCI(c.lookup))
	c.initialized = true
	c.log.Infof("telemetry initialized (package=%s environment=%s sink=%s)",
		opts.PackageName, cfg.Environment, monitoring.NameOf(sink))
	return true, nil
}

func combine(remote, local monitoring.Sink) monitoring.Sink {
	switch {
	case remote != nil && local != nil:
		return monitoring.NewMultiSink(remote, local)
	case remote != nil:
		return remote
	default:
		return local
	}
}

// UpdateConfig swaps in a reloaded configuration without rebuilding the
// transport. Explicit Initialize overrides are kept.
func (c *Client) UpdateConfig(cfg config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initOpts.DSN != "" {
		cfg.DSN = c.initOpts.DSN
	}
	if c.initOpts.Environment != "" {
		cfg.Environment = c.initOpts.Environment
	}
	c.cfg = &cfg
	c.sampler = gate.NewSampler(cfg.SampleRate)
}

// Flush waits for the transport to deliver buffered events.
func (c *Client) Flush(timeout time.Duration) bool {
	c.mu.RLock()
	sink, ok := c.sink, c.enabled && c.initialized
	c.mu.RUnlock()
	if !ok {
		return true
	}
	return sink.Flush(timeout)
}

// Close flushes and releases the transport built by Initialize. Local sinks
// passed through Options stay owned by the caller.
func (c *Client) Close() error {
	c.mu.Lock()
	remote := c.remote
	c.remote, c.sink, c.initialized = nil, nil, false
	c.mu.Unlock()
	if remote == nil {
		return nil
	}
	remote.Flush(2 * time.Second)
	return remote.Close()
}
