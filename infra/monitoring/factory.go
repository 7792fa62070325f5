package monitoring

import (
	"time"

	"github.com/openadapt/telemetry/core/factory"
	coremon "github.com/openadapt/telemetry/core/monitoring"
)

// init registers the sentry sink for gateway configs that list it
// explicitly, e.g. to mirror events into a second project.
func init() {
	_ = coremon.RegisterSink("sentry", func(conf map[string]any) (coremon.Sink, error) {
		var c struct {
			DSN              string        `json:"dsn"`
			Environment      string        `json:"environment"`
			Release          string        `json:"release"`
			TracesSampleRate float64       `json:"traces_sample_rate"`
			Debug            bool          `json:"debug"`
			FlushTimeout     time.Duration `json:"flush_timeout"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSentrySink(SentryOptions{
			DSN:              c.DSN,
			Environment:      c.Environment,
			Release:          c.Release,
			TracesSampleRate: c.TracesSampleRate,
			Debug:            c.Debug,
			FlushTimeout:     c.FlushTimeout,
		})
	})
}
