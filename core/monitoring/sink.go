// Package monitoring defines the transport collaborator that receives
// sanitized events. Implementations live under infra/.
package monitoring

import (
	"context"
	"time"

	"github.com/openadapt/telemetry/core/event"
)

// Sink delivers sanitized events to a backend. Send returns the identifier
// assigned by the backend, which may differ from the event's own id.
// Failures are returned to the caller and never retried.
type Sink interface {
	Send(ctx context.Context, ev event.Event) (string, error)
	// Flush blocks until buffered events are delivered or timeout elapses.
	// It reports whether everything was delivered.
	Flush(timeout time.Duration) bool
	Close() error
}

// Named is implemented by sinks that report a label for metrics and logs.
type Named interface {
	Name() string
}

// NameOf returns the sink's label, or "sink" when it has none.
func NameOf(s Sink) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return "sink"
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Send(_ context.Context, ev event.Event) (string, error) { return event.ID(ev), nil }
func (NopSink) Flush(time.Duration) bool                               { return true }
func (NopSink) Close() error                                           { return nil }
func (NopSink) Name() string                                           { return "nop" }
