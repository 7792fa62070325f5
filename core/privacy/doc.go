// Package privacy classifies and scrubs personally identifiable information
// in telemetry payloads.
//
// Redaction is key-driven first and content-driven second: a sensitive field
// name replaces the whole value with [Redacted], while string values are only
// pattern-scanned when a [Policy] asks for it. Everything in this package is
// pure and safe for concurrent use.
package privacy
