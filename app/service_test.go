package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openadapt/telemetry/config"
	"github.com/openadapt/telemetry/core/event"
	"github.com/openadapt/telemetry/core/factory"
	"github.com/openadapt/telemetry/core/gate"
	"github.com/openadapt/telemetry/infra/spool"
)

type fakeTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (f *fakeTransport) Configure(sentry.ClientOptions)         {}
func (f *fakeTransport) Flush(time.Duration) bool               { return true }
func (f *fakeTransport) FlushWithContext(context.Context) bool { return true }
func (f *fakeTransport) Close()                                 {}
func (f *fakeTransport) SendEvent(e *sentry.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		gate.EnvDoNotTrack, gate.EnvTelemetryEnabled, gate.EnvInternal, gate.EnvDev,
		"OPENADAPT_TELEMETRY_DSN", "OPENADAPT_TELEMETRY_ENVIRONMENT",
		"OPENADAPT_TELEMETRY_SAMPLE_RATE", "OPENADAPT_TELEMETRY_TRACES_SAMPLE_RATE",
	} {
		t.Setenv(k, "")
	}
}

func testOptions(t *testing.T, gw *config.GatewayConfig) Options {
	empty := gate.LookupFunc(func(string) (string, bool) { return "", false })
	return Options{
		Gateway: gw,
		Lookup:  empty,
		Probe:   &gate.Probe{Lookup: empty, DevBuild: func() bool { return false }, Dir: t.TempDir()},
	}
}

func TestService_SpoolOnly(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	gw := &config.GatewayConfig{
		Store: filepath.Join(dir, "telemetry.json"),
		Spool: config.SpoolConfig{Backend: config.SpoolJSONL, Path: filepath.Join(dir, "spool.jsonl")},
	}
	svc, err := New(testOptions(t, gw))
	require.NoError(t, err)
	defer func() { require.NoError(t, svc.Close()) }()

	require.True(t, svc.Client.Initialized())
	require.NotNil(t, svc.Spool)
	_, err = svc.Client.CaptureMessage(context.Background(), "contact jane@example.com", event.LevelInfo)
	require.NoError(t, err)

	recs, err := svc.Spool.Query(context.Background(), spool.Query{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.NotContains(t, recs[0].Message, "jane@example.com")
	assert.Equal(t, "info", recs[0].Level)
}

func TestService_NoTransportStaysOff(t *testing.T) {
	clearEnv(t)
	gw := &config.GatewayConfig{Store: filepath.Join(t.TempDir(), "telemetry.json")}
	svc, err := New(testOptions(t, gw))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	assert.False(t, svc.Client.Initialized())
	assert.Nil(t, svc.Spool)
	assert.Equal(t, config.Defaults(), svc.Store.Get())
}

func TestService_SentryAndSpool(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	store := filepath.Join(dir, "telemetry.json")
	cfg := config.Defaults()
	cfg.DSN = "https://public@sentry.example.com/42"
	require.NoError(t, config.Save(store, cfg))

	gw := &config.GatewayConfig{
		Store:   store,
		Package: config.PackageConfig{Name: "openadapt-capture", Version: "1.2.3"},
		Spool:   config.SpoolConfig{Backend: config.SpoolSQLite, Path: filepath.Join(dir, "spool.db")},
	}
	opts := testOptions(t, gw)
	tr := &fakeTransport{}
	opts.Transport = tr
	svc, err := New(opts)
	require.NoError(t, err)
	defer func() { require.NoError(t, svc.Close()) }()

	_, err = svc.Client.CaptureEvent(context.Background(), "recording_started", map[string]any{"frames": 3})
	require.NoError(t, err)
	assert.Equal(t, 1, tr.count())
	recs, err := svc.Spool.Query(context.Background(), spool.Query{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "event:recording_started", recs[0].Message)
	assert.Equal(t, cfg.DSN, svc.Store.Get().DSN)
}

func TestService_ExtraSinks(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	jsonl := filepath.Join(dir, "extra.jsonl")
	gw := &config.GatewayConfig{
		Store: filepath.Join(dir, "telemetry.json"),
		Sinks: []factory.ModuleConfig{{Type: "jsonl", Conf: map[string]any{"path": jsonl}}},
	}
	svc, err := New(testOptions(t, gw))
	require.NoError(t, err)
	_, err = svc.Client.CaptureMessage(context.Background(), "hello", event.LevelWarning)
	require.NoError(t, err)
	require.NoError(t, svc.Close())
	data, err := os.ReadFile(jsonl)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"warning"`)
}

func TestService_InvalidSink(t *testing.T) {
	clearEnv(t)
	gw := &config.GatewayConfig{
		Store: filepath.Join(t.TempDir(), "telemetry.json"),
		Sinks: []factory.ModuleConfig{{Type: "bogus"}},
	}
	_, err := New(testOptions(t, gw))
	assert.Error(t, err)
}

func TestService_WatchReload(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	store := filepath.Join(dir, "telemetry.json")
	require.NoError(t, config.Save(store, config.Defaults()))
	gw := &config.GatewayConfig{
		Store: store,
		Watch: true,
		Spool: config.SpoolConfig{Backend: config.SpoolJSONL, Path: filepath.Join(dir, "spool.jsonl")},
	}
	svc, err := New(testOptions(t, gw))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	updated := config.Defaults()
	updated.FeatureUsage = false
	require.NoError(t, config.Save(store, updated))
	require.Eventually(t, func() bool {
		cfg, _ := svc.Client.Config()
		return !cfg.FeatureUsage && !svc.Store.Get().FeatureUsage
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
