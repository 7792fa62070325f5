package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/openadapt/telemetry/config"
	"github.com/openadapt/telemetry/core/event"
	coremon "github.com/openadapt/telemetry/core/monitoring"
	"github.com/openadapt/telemetry/core/telemetry"
)

// ErrDropped is returned when the SDK discarded an event, e.g. because a
// BeforeSend hook returned nil.
var ErrDropped = errors.New("event dropped by sentry client")

// SentryOptions configures a SentrySink.
type SentryOptions struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
	SendDefaultPII   bool
	Debug            bool
	FlushTimeout     time.Duration
	// Transport replaces the HTTP transport; tests use it to observe events.
	Transport sentry.Transport
}

// SentrySink delivers events to a Sentry or GlitchTip backend.
type SentrySink struct {
	client       *sentry.Client
	hub          *sentry.Hub
	flushTimeout time.Duration
}

// NewSentrySink creates a client bound to its own hub, leaving the SDK's
// global hub untouched. Sampling happens before the sink, so the SDK keeps
// every event it is given.
func NewSentrySink(opts SentryOptions) (*SentrySink, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("sentry sink requires a DSN")
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		SampleRate:       1.0,
		TracesSampleRate: opts.TracesSampleRate,
		SendDefaultPII:   opts.SendDefaultPII,
		Debug:            opts.Debug,
		BeforeSend:       ScrubEvent,
		Transport:        opts.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry initialization failed: %w", err)
	}
	timeout := opts.FlushTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &SentrySink{
		client:       client,
		hub:          sentry.NewHub(client, sentry.NewScope()),
		flushTimeout: timeout,
	}, nil
}

// Send translates ev and hands it to the SDK.
func (s *SentrySink) Send(_ context.Context, ev event.Event) (string, error) {
	id := s.hub.CaptureEvent(toSentryEvent(ev))
	if id == nil {
		return "", ErrDropped
	}
	return string(*id), nil
}

// Flush waits for queued events.
func (s *SentrySink) Flush(timeout time.Duration) bool { return s.client.Flush(timeout) }

// Close flushes with the configured timeout.
func (s *SentrySink) Close() error {
	if !s.client.Flush(s.flushTimeout) {
		return fmt.Errorf("sentry flush timed out after %s", s.flushTimeout)
	}
	return nil
}

// Name identifies the sink in logs and metrics.
func (s *SentrySink) Name() string { return "sentry" }

// NewSinkFactory returns the remote transport factory used by
// telemetry.Client. The release defaults to package@version and traces are
// off unless performance tracking is enabled.
func NewSinkFactory(sc config.SentryConfig, transport sentry.Transport) telemetry.SinkFactory {
	return func(cfg config.Config, opts telemetry.InitOptions) (coremon.Sink, error) {
		release := sc.Release
		if release == "" {
			release = opts.PackageName + "@" + opts.PackageVersion
		}
		traces := 0.0
		if cfg.PerformanceTracking {
			traces = cfg.TracesSampleRate
		}
		return NewSentrySink(SentryOptions{
			DSN:              cfg.DSN,
			Environment:      cfg.Environment,
			Release:          release,
			TracesSampleRate: traces,
			SendDefaultPII:   cfg.SendDefaultPII,
			Debug:            sc.Debug,
			FlushTimeout:     sc.FlushTimeout,
			Transport:        transport,
		})
	}
}
