// Package telemetry provides the client handle instrumented code talks to.
//
// A Client starts unconfigured. Initialize resolves the configuration and
// builds the transport; afterwards every capture runs through the same
// pipeline: the opt-out gate, the feature switches, sampling, enrichment
// with the client scope, sanitization and finally the sink. Nothing leaves
// the process without passing sanitize.Event.
//
// Capture methods return ErrDisabled when the user opted out and
// ErrNotInitialized before a successful Initialize. Both are expected in
// normal operation and callers usually ignore them.
package telemetry
