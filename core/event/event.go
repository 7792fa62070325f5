// Package event builds telemetry events in the payload shape consumed by the
// sanitizer and the sinks.
package event

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openadapt/telemetry/core/privacy"
)

// Event is a telemetry payload. Well-known top-level keys are listed below;
// anything else is carried through untouched.
type Event = privacy.Mapping

// Top-level keys of an Event.
const (
	KeyID          = "event_id"
	KeyTimestamp   = "timestamp"
	KeyLevel       = "level"
	KeyMessage     = "message"
	KeyPlatform    = "platform"
	KeyEnvironment = "environment"
	KeyRelease     = "release"
	KeyLogger      = "logger"
	KeyException   = "exception"
	KeyBreadcrumbs = "breadcrumbs"
	KeyExtra       = "extra"
	KeyContexts    = "contexts"
	KeyTags        = "tags"
	KeyRequest     = "request"
	KeyUser        = "user"
)

// Level is the severity of an event.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

// ParseLevel maps a case-insensitive name onto a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(s)) {
	case LevelDebug:
		return LevelDebug
	case LevelWarning, "warn":
		return LevelWarning
	case LevelError:
		return LevelError
	case LevelFatal:
		return LevelFatal
	}
	return LevelInfo
}

// TimeFormat is the timestamp layout of events and breadcrumbs.
const TimeFormat = time.RFC3339Nano

// NewID returns a 32 character hexadecimal event identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// New returns an event with identifier, timestamp and level set.
func New(level Level, message string, now time.Time) Event {
	ev := Event{
		KeyID:        privacy.String(NewID()),
		KeyTimestamp: privacy.String(now.UTC().Format(TimeFormat)),
		KeyLevel:     privacy.String(level),
		KeyPlatform:  privacy.String("go"),
	}
	if message != "" {
		ev[KeyMessage] = privacy.String(message)
	}
	return ev
}

// ID returns the event identifier.
func ID(ev Event) string {
	id, _ := ev.StringAt(KeyID)
	return id
}

// LevelOf returns the event level, defaulting to info.
func LevelOf(ev Event) Level {
	l, _ := ev.StringAt(KeyLevel)
	return ParseLevel(l)
}

// Timestamp returns the event time, or the zero time when absent.
func Timestamp(ev Event) time.Time {
	s, ok := ev.StringAt(KeyTimestamp)
	if !ok {
		return time.Time{}
	}
	ts, err := time.Parse(TimeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Region returns the mapping stored under key, creating it when absent.
func Region(ev Event, key string) privacy.Mapping {
	if m, ok := ev.MappingAt(key); ok {
		return m
	}
	m := privacy.Mapping{}
	ev[key] = m
	return m
}

// SetTags copies tags into the event's tags region.
func SetTags(ev Event, tags map[string]string) {
	if len(tags) == 0 {
		return
	}
	region := Region(ev, KeyTags)
	for k, v := range tags {
		region[k] = privacy.String(v)
	}
}

// SetExtra copies arbitrary values into the event's extra region.
func SetExtra(ev Event, extra map[string]any) {
	if len(extra) == 0 {
		return
	}
	region := Region(ev, KeyExtra)
	for k, v := range extra {
		region[k] = privacy.FromAny(v)
	}
}
