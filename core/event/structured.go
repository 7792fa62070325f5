package event

import (
	"context"
	"fmt"
	"time"
)

// Category groups structured events.
type Category string

const (
	CategoryError       Category = "error"
	CategoryException   Category = "exception"
	CategoryFeature     Category = "feature"
	CategoryOperation   Category = "operation"
	CategoryPerformance Category = "performance"
	CategoryTiming      Category = "timing"
	CategoryStartup     Category = "startup"
	CategoryShutdown    Category = "shutdown"
	CategoryCommand     Category = "command"
	CategoryAction      Category = "action"
)

// Capturer accepts named usage events. *telemetry.Client implements it.
type Capturer interface {
	CaptureEvent(ctx context.Context, name string, properties map[string]any) (string, error)
}

// TelemetryEvent is a structured usage event.
type TelemetryEvent struct {
	Name       string
	Category   Category
	Severity   Level
	Properties map[string]any
	Timestamp  time.Time
}

// Send forwards the event to c with category, severity and timestamp merged
// into its properties. Caller properties win on key collisions.
func (e TelemetryEvent) Send(ctx context.Context, c Capturer) (string, error) {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	sev := e.Severity
	if sev == "" {
		sev = LevelInfo
	}
	props := map[string]any{
		"category":  string(e.Category),
		"severity":  string(sev),
		"timestamp": ts.UTC().Format(TimeFormat),
	}
	for k, v := range e.Properties {
		props[k] = v
	}
	return c.CaptureEvent(ctx, e.Name, props)
}

func merge(base, extra map[string]any) map[string]any {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

func outcome(success bool) Level {
	if success {
		return LevelInfo
	}
	return LevelError
}

// TrackStartup records that a package started.
func TrackStartup(ctx context.Context, c Capturer, pkg, version string, extra map[string]any) (string, error) {
	return TelemetryEvent{
		Name:     pkg + ":startup",
		Category: CategoryStartup,
		Severity: LevelInfo,
		Properties: merge(map[string]any{
			"package_name":    pkg,
			"package_version": version,
		}, extra),
	}.Send(ctx, c)
}

// TrackShutdown records that a package stopped. A zero uptime is omitted.
func TrackShutdown(ctx context.Context, c Capturer, pkg string, uptime time.Duration, extra map[string]any) (string, error) {
	props := merge(map[string]any{"package_name": pkg}, extra)
	if uptime > 0 {
		props["uptime_seconds"] = uptime.Seconds()
	}
	return TelemetryEvent{
		Name:       pkg + ":shutdown",
		Category:   CategoryShutdown,
		Severity:   LevelInfo,
		Properties: props,
	}.Send(ctx, c)
}

// Outcome describes how a command or operation finished.
type Outcome struct {
	Success bool
	// Duration is omitted when zero.
	Duration time.Duration
	// Items is omitted when zero.
	Items int
	Extra map[string]any
}

func (o Outcome) properties(base map[string]any) map[string]any {
	base["success"] = o.Success
	props := merge(base, o.Extra)
	if o.Duration > 0 {
		props["duration_ms"] = float64(o.Duration) / float64(time.Millisecond)
	}
	return props
}

// TrackCommand records a CLI command execution.
func TrackCommand(ctx context.Context, c Capturer, command, pkg string, o Outcome) (string, error) {
	return TelemetryEvent{
		Name:     "command:" + command,
		Category: CategoryCommand,
		Severity: outcome(o.Success),
		Properties: o.properties(map[string]any{
			"command":      command,
			"package_name": pkg,
		}),
	}.Send(ctx, c)
}

// TrackOperation records a significant operation, optionally with the number
// of items it processed.
func TrackOperation(ctx context.Context, c Capturer, operation, pkg string, o Outcome) (string, error) {
	props := o.properties(map[string]any{
		"operation":    operation,
		"package_name": pkg,
	})
	if o.Items > 0 {
		props["item_count"] = o.Items
	}
	return TelemetryEvent{
		Name:       "operation:" + operation,
		Category:   CategoryOperation,
		Severity:   outcome(o.Success),
		Properties: props,
	}.Send(ctx, c)
}

// TrackError records a logical error that has no Go error value behind it.
// Unrecoverable errors are reported as fatal.
func TrackError(ctx context.Context, c Capturer, errType, message, pkg string, recoverable bool, extra map[string]any) (string, error) {
	sev := LevelError
	if !recoverable {
		sev = LevelFatal
	}
	return TelemetryEvent{
		Name:     fmt.Sprintf("error:%s", errType),
		Category: CategoryError,
		Severity: sev,
		Properties: merge(map[string]any{
			"error_type":    errType,
			"error_message": message,
			"package_name":  pkg,
			"recoverable":   recoverable,
		}, extra),
	}.Send(ctx, c)
}
