// Package metrics defines recorders for pipeline outcomes. Every capture
// attempt ends in exactly one Outcome which recorders such as PromRecorder
// and InfluxRecorder count. Recorders never see payload content. The factory
// helpers return a MultiRecorder automatically when several recorders are
// configured.
package metrics
