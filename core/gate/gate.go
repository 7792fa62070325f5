// Package gate decides, before any event is built, whether telemetry may run
// at all and whether a single event is sampled in.
package gate

import (
	"os"
	"strings"
)

// Environment variables read by the gate.
const (
	EnvDoNotTrack       = "DO_NOT_TRACK"
	EnvTelemetryEnabled = "OPENADAPT_TELEMETRY_ENABLED"
	EnvInternal         = "OPENADAPT_INTERNAL"
	EnvDev              = "OPENADAPT_DEV"
)

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// OSLookup reads the process environment.
var OSLookup LookupFunc = os.LookupEnv

func (l LookupFunc) get(key string) string {
	if l == nil {
		l = OSLookup
	}
	v, _ := l(key)
	return strings.ToLower(v)
}

func oneOf(v string, set ...string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Enabled is the fast opt-out check. The universal DO_NOT_TRACK flag and the
// package flag each force telemetry off; anything else leaves it on.
func Enabled(lookup LookupFunc) bool {
	if oneOf(lookup.get(EnvDoNotTrack), "1", "true") {
		return false
	}
	if oneOf(lookup.get(EnvTelemetryEnabled), "false", "0", "no") {
		return false
	}
	return true
}

// DoNotTrack reports whether the universal opt-out flag is set.
func DoNotTrack(lookup LookupFunc) bool {
	return oneOf(lookup.get(EnvDoNotTrack), "1", "true")
}

// InternalFlag reports whether OPENADAPT_INTERNAL or OPENADAPT_DEV mark the
// process as internal usage.
func InternalFlag(lookup LookupFunc) bool {
	return oneOf(lookup.get(EnvInternal), "true", "1", "yes") ||
		oneOf(lookup.get(EnvDev), "true", "1", "yes")
}
