package metrics

import (
	"errors"
	"time"
)

// Outcome is the terminal state of one capture attempt.
type Outcome string

const (
	// OutcomeSent means at least one sink accepted the event.
	OutcomeSent Outcome = "sent"
	// OutcomeFailed means the sink returned an error.
	OutcomeFailed Outcome = "failed"
	// OutcomeDisabled means the gate or configuration turned telemetry off.
	OutcomeDisabled Outcome = "disabled"
	// OutcomeSampled means the sampler dropped the event.
	OutcomeSampled Outcome = "sampled"
	// OutcomeSuppressed means a feature switch such as error_tracking
	// excluded the event kind.
	OutcomeSuppressed Outcome = "suppressed"
)

// Kind names the capture entry point.
type Kind string

const (
	KindException Kind = "exception"
	KindMessage   Kind = "message"
	KindEvent     Kind = "event"
)

// PipelineEvent describes one capture attempt.
type PipelineEvent struct {
	Kind    Kind
	Level   string
	Outcome Outcome
	Sink    string
	// Latency covers sanitizing and sending; zero when nothing was sent.
	Latency time.Duration
	Time    time.Time
}

// Recorder records pipeline outcomes for observability purposes.
type Recorder interface {
	RecordPipeline(ev PipelineEvent) error
}

// ConfigReloadRecorder records reloads of the persisted configuration.
type ConfigReloadRecorder interface {
	RecordConfigReload(ok bool) error
}

// NopRecorder implements Recorder with no-op methods.
type NopRecorder struct{}

func (NopRecorder) RecordPipeline(PipelineEvent) error { return nil }
func (NopRecorder) RecordConfigReload(bool) error      { return nil }

// MultiRecorder fans records out to several recorders.
type MultiRecorder struct {
	Recorders []Recorder
}

// NewMultiRecorder creates a MultiRecorder with the provided recorders.
func NewMultiRecorder(recs ...Recorder) *MultiRecorder {
	return &MultiRecorder{Recorders: recs}
}

// RecordPipeline forwards the record to all recorders and joins their errors.
func (m *MultiRecorder) RecordPipeline(ev PipelineEvent) error {
	var errs []error
	for _, r := range m.Recorders {
		if err := r.RecordPipeline(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordConfigReload forwards reloads when supported by the recorder.
func (m *MultiRecorder) RecordConfigReload(ok bool) error {
	var errs []error
	for _, r := range m.Recorders {
		if cr, is := r.(ConfigReloadRecorder); is {
			if err := cr.RecordConfigReload(ok); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
