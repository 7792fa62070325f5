package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openadapt/telemetry/core/event"
)

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// Send forwards the event to every sink. The identifier of the first sink
// that accepted the event is returned alongside the joined failures of the
// others, so a partial delivery yields both an id and an error.
func (m *MultiSink) Send(ctx context.Context, ev event.Event) (string, error) {
	var (
		id   string
		errs []error
	)
	for _, s := range m.Sinks {
		got, err := s.Send(ctx, ev)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", NameOf(s), err))
			continue
		}
		if id == "" {
			id = got
		}
	}
	return id, errors.Join(errs...)
}

// Flush flushes every sink with the same timeout.
func (m *MultiSink) Flush(timeout time.Duration) bool {
	ok := true
	for _, s := range m.Sinks {
		if !s.Flush(timeout) {
			ok = false
		}
	}
	return ok
}

// Close closes every sink, returning the joined errors.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Name identifies the fan-out sink.
func (m *MultiSink) Name() string { return "multi" }
