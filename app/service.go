// Package app wires the telemetry client to its configured sinks, recorders
// and config watcher.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/getsentry/sentry-go"

	"github.com/openadapt/telemetry/config"
	"github.com/openadapt/telemetry/core/factory"
	"github.com/openadapt/telemetry/core/gate"
	coremetrics "github.com/openadapt/telemetry/core/metrics"
	"github.com/openadapt/telemetry/core/monitoring"
	"github.com/openadapt/telemetry/core/telemetry"
	"github.com/openadapt/telemetry/infra/logger"
	"github.com/openadapt/telemetry/infra/metrics"
	inframon "github.com/openadapt/telemetry/infra/monitoring"
	_ "github.com/openadapt/telemetry/infra/mqtt"
	"github.com/openadapt/telemetry/infra/spool"
)

// Options configures a Service.
type Options struct {
	// Gateway is the gateway configuration; nil uses the defaults.
	Gateway *config.GatewayConfig
	// Transport replaces the Sentry HTTP transport, mainly in tests.
	Transport sentry.Transport
	// Lookup and Probe are forwarded to the telemetry client.
	Lookup gate.LookupFunc
	Probe  *gate.Probe
}

// Service owns the telemetry client and everything it delivers to.
type Service struct {
	Client *telemetry.Client
	Store  *config.Store
	// Spool is the local copy of sent events; nil when disabled.
	Spool spool.Store

	gw       config.GatewayConfig
	local    monitoring.Sink
	recorder coremetrics.Recorder
	watcher  *config.Watcher
	log      logger.Logger
}

// New builds the sinks and recorders described by the gateway configuration
// and initializes the client. A client that stays off is not an error.
func New(opts Options) (*Service, error) {
	log := logger.New("service")
	gw := config.GatewayConfig{}
	if opts.Gateway != nil {
		gw = *opts.Gateway
	}
	gw.SetDefaults()
	if err := gw.Validate(); err != nil {
		return nil, fmt.Errorf("gateway config: %w", err)
	}
	path, err := gw.StorePath()
	if err != nil {
		return nil, fmt.Errorf("store path: %w", err)
	}

	recorders := gw.Metrics.Recorders
	if gw.Metrics.PrometheusAddr != "" && !hasType(recorders, "prometheus") {
		recorders = append(recorders, factory.ModuleConfig{Type: "prometheus"})
	}
	recorder, err := coremetrics.NewRecorder(recorders)
	if err != nil {
		return nil, fmt.Errorf("metrics recorder: %w", err)
	}

	svc := &Service{gw: gw, recorder: recorder, log: log}
	var locals []monitoring.Sink
	if gw.Spool.Enabled() {
		sp, err := spool.Open(gw.Spool)
		if err != nil {
			return nil, fmt.Errorf("spool: %w", err)
		}
		svc.Spool = sp
		locals = append(locals, sp)
	}
	extra, err := monitoring.NewSink(gw.Sinks)
	if err != nil {
		svc.closeLocals(locals)
		return nil, fmt.Errorf("sinks: %w", err)
	}
	if extra != nil {
		locals = append(locals, extra)
	}
	switch len(locals) {
	case 0:
	case 1:
		svc.local = locals[0]
	default:
		svc.local = monitoring.NewMultiSink(locals...)
	}

	loader := &config.Loader{Path: path, Log: logger.New("config")}
	svc.Client = telemetry.New(telemetry.Options{
		Source:   loader,
		NewSink:  inframon.NewSinkFactory(gw.Sentry, opts.Transport),
		Local:    svc.local,
		Recorder: recorder,
		Log:      logger.New("telemetry"),
		Lookup:   opts.Lookup,
		Probe:    opts.Probe,
	})
	ok, err := svc.Client.Initialize(telemetry.InitOptions{
		PackageName:    gw.Package.Name,
		PackageVersion: gw.Package.Version,
	})
	if err != nil {
		svc.closeLocals(locals)
		return nil, err
	}
	if !ok {
		log.Infof("telemetry is off")
	}

	cfg, resolved := svc.Client.Config()
	if !resolved {
		cfg = config.Defaults()
	}
	svc.Store = config.NewStore(cfg)
	if gw.Watch {
		w := config.NewWatcher(loader, svc.Store, logger.New("config-watcher"))
		w.Recorder = recorder
		w.OnChange = svc.Client.UpdateConfig
		svc.watcher = w
	}
	return svc, nil
}

func hasType(cfgs []factory.ModuleConfig, typ string) bool {
	for _, c := range cfgs {
		if c.Type == typ {
			return true
		}
	}
	return false
}

func (s *Service) closeLocals(sinks []monitoring.Sink) {
	for _, sk := range sinks {
		if err := sk.Close(); err != nil {
			s.log.Warnf("close sink: %v", err)
		}
	}
}

// Run serves /metrics and watches the persisted settings until ctx is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	if s.gw.Metrics.PrometheusAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metrics.StartPromServer(ctx, s.gw.Metrics.PrometheusAddr, nil); err != nil {
				s.log.Errorf("prom server: %v", err)
				errs <- fmt.Errorf("prom server: %w", err)
			}
		}()
	}
	if s.watcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.watcher.Run(ctx); err != nil {
				s.log.Errorf("config watcher: %v", err)
				errs <- fmt.Errorf("config watcher: %w", err)
			}
		}()
	}
	<-ctx.Done()
	wg.Wait()
	close(errs)
	var all []error
	for err := range errs {
		all = append(all, err)
	}
	return errors.Join(all...)
}

// Close flushes pending events and releases every sink.
func (s *Service) Close() error {
	s.Client.Flush(s.gw.Sentry.FlushTimeout)
	var errs []error
	if err := s.Client.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.local != nil {
		if err := s.local.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
