package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/openadapt/telemetry/core/event"
	"github.com/openadapt/telemetry/core/metrics"
	"github.com/openadapt/telemetry/core/monitoring"
	"github.com/openadapt/telemetry/core/privacy"
	"github.com/openadapt/telemetry/core/sanitize"
)

// admit applies the gate, the feature switches and sampling. It returns the
// sink to use, or a nil sink with the error to hand back.
func (c *Client) admit(kind metrics.Kind, level event.Level) (monitoring.Sink, error) {
	if !c.enabled {
		c.record(kind, level, metrics.OutcomeDisabled, nil, 0)
		return nil, ErrDisabled
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	cfg := c.cfg
	switch {
	case !cfg.Enabled:
		c.record(kind, level, metrics.OutcomeDisabled, nil, 0)
		return nil, ErrDisabled
	case kind == metrics.KindException && !cfg.ErrorTracking,
		kind == metrics.KindEvent && !cfg.FeatureUsage:
		c.record(kind, level, metrics.OutcomeSuppressed, nil, 0)
		return nil, nil
	case !c.sampler.Keep():
		c.record(kind, level, metrics.OutcomeSampled, nil, 0)
		return nil, nil
	}
	return c.sink, nil
}

// dispatch enriches, sanitizes and sends ev.
func (c *Client) dispatch(ctx context.Context, sink monitoring.Sink, kind metrics.Kind, ev event.Event) (string, error) {
	start := time.Now()
	c.mu.RLock()
	c.applyScope(ev)
	c.mu.RUnlock()

	clean := sanitize.Event(ev)
	id, err := sink.Send(ctx, clean)
	level := event.LevelOf(clean)
	if err != nil {
		c.record(kind, level, metrics.OutcomeFailed, sink, time.Since(start))
		c.log.Warnf("telemetry %s %s not delivered: %v", kind, event.ID(clean), err)
		return id, fmt.Errorf("send %s: %w", kind, err)
	}
	c.record(kind, level, metrics.OutcomeSent, sink, time.Since(start))
	c.log.Debugf("telemetry %s %s sent", kind, id)
	return id, nil
}

func (c *Client) record(kind metrics.Kind, level event.Level, outcome metrics.Outcome, sink monitoring.Sink, latency time.Duration) {
	name := ""
	if sink != nil {
		name = monitoring.NameOf(sink)
	}
	if err := c.recorder.RecordPipeline(metrics.PipelineEvent{
		Kind:    kind,
		Level:   string(level),
		Outcome: outcome,
		Sink:    name,
		Latency: latency,
		Time:    c.now(),
	}); err != nil {
		c.log.Debugf("record pipeline metric: %v", err)
	}
}

// CaptureException reports err with its wrapped causes and the caller's
// stack. It returns the event identifier, or an empty string when the event
// was suppressed or sampled out.
func (c *Client) CaptureException(ctx context.Context, err error) (string, error) {
	return c.captureError(ctx, err, event.LevelError, 1)
}

func (c *Client) captureError(ctx context.Context, err error, level event.Level, skip int) (string, error) {
	if err == nil {
		return "", nil
	}
	sink, aerr := c.admit(metrics.KindException, level)
	if sink == nil {
		return "", aerr
	}
	ev := event.New(level, "", c.now())
	ev[event.KeyException] = event.Exception(err, skip+1)
	return c.dispatch(ctx, sink, metrics.KindException, ev)
}

// Recover reports a panic as a fatal exception, flushes and re-panics. Use it
// as `defer client.Recover()`.
func (c *Client) Recover() {
	r := recover()
	if r == nil {
		return
	}
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("panic: %v", r)
	}
	_, _ = c.captureError(context.Background(), err, event.LevelFatal, 2)
	c.Flush(2 * time.Second)
	panic(r)
}

// CaptureMessage reports a plain message at level.
func (c *Client) CaptureMessage(ctx context.Context, message string, level event.Level) (string, error) {
	if level == "" {
		level = event.LevelInfo
	}
	sink, err := c.admit(metrics.KindMessage, level)
	if sink == nil {
		return "", err
	}
	return c.dispatch(ctx, sink, metrics.KindMessage, event.New(level, message, c.now()))
}

// CaptureEvent reports feature usage as message "event:<name>" with the
// properties attached as extra data.
func (c *Client) CaptureEvent(ctx context.Context, name string, properties map[string]any) (string, error) {
	sink, err := c.admit(metrics.KindEvent, event.LevelInfo)
	if sink == nil {
		return "", err
	}
	ev := event.New(event.LevelInfo, "event:"+name, c.now())
	if len(properties) > 0 {
		ev[event.KeyExtra] = privacy.FromMap(properties)
	}
	return c.dispatch(ctx, sink, metrics.KindEvent, ev)
}

var _ event.Capturer = (*Client)(nil)
