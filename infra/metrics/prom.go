// Package metrics provides Prometheus and InfluxDB recorders for the
// capture pipeline.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/openadapt/telemetry/core/metrics"
)

// PromRecorder records pipeline outcomes in Prometheus metrics.
type PromRecorder struct {
	events  *prometheus.CounterVec
	latency *prometheus.HistogramVec
	reloads *prometheus.CounterVec
}

// NewPromRecorder registers pipeline metrics on the default Prometheus registerer.
// The HTTP endpoint is served separately by StartPromServer.
func NewPromRecorder() (*PromRecorder, error) {
	return NewPromRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromRecorderWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromRecorderWithRegistry(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_events_total",
		Help: "Total number of capture attempts by outcome",
	}, []string{"kind", "level", "outcome", "sink"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "telemetry_send_latency_seconds",
		Help:    "Time spent sanitizing and sending an event",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind", "sink"})
	reloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_config_reloads_total",
		Help: "Reloads of the persisted telemetry configuration",
	}, []string{"ok"})

	if err := reg.Register(events); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			events = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(reloads); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			reloads = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	return &PromRecorder{events: events, latency: latency, reloads: reloads}, nil
}

// RecordPipeline increments the outcome counter and observes latency for
// events that reached a sink.
func (r *PromRecorder) RecordPipeline(ev coremetrics.PipelineEvent) error {
	r.events.WithLabelValues(string(ev.Kind), ev.Level, string(ev.Outcome), ev.Sink).Inc()
	if ev.Latency > 0 {
		r.latency.WithLabelValues(string(ev.Kind), ev.Sink).Observe(ev.Latency.Seconds())
	}
	return nil
}

// RecordConfigReload counts reload attempts.
func (r *PromRecorder) RecordConfigReload(ok bool) error {
	r.reloads.WithLabelValues(strconv.FormatBool(ok)).Inc()
	return nil
}
