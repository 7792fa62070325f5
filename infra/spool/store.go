// Package spool keeps a local copy of sanitized events so users can inspect
// exactly what left the process.
package spool

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/openadapt/telemetry/config"
	"github.com/openadapt/telemetry/core/event"
	"github.com/openadapt/telemetry/core/monitoring"
	"github.com/openadapt/telemetry/core/privacy"
)

// Record is one spooled event.
type Record struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message,omitempty"`
	Event     privacy.Mapping `json:"event"`
}

// NewRecord wraps ev for storage.
func NewRecord(ev event.Event) Record {
	ts := event.Timestamp(ev)
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	msg, _ := ev.StringAt(event.KeyMessage)
	return Record{
		ID:        event.ID(ev),
		Timestamp: ts,
		Level:     string(event.LevelOf(ev)),
		Message:   msg,
		Event:     ev,
	}
}

// Query defines filters for retrieving records. Limit keeps the most recent
// records; zero means no limit.
type Query struct {
	Start time.Time
	End   time.Time
	Level string
	Limit int
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	return q.Level == "" || r.Level == q.Level
}

// Store is a sink whose contents can be read back.
type Store interface {
	monitoring.Sink
	Query(ctx context.Context, q Query) ([]Record, error)
}

// Open creates the store selected by cfg.
func Open(cfg config.SpoolConfig) (Store, error) {
	switch cfg.Backend {
	case config.SpoolJSONL:
		return NewJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case config.SpoolSQLite:
		return NewSQLiteStore(cfg.Path)
	}
	return nil, fmt.Errorf("unknown spool backend %q", cfg.Backend)
}

// newest sorts records by time and keeps the last limit.
func newest(recs []Record, limit int) []Record {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp.Before(recs[j].Timestamp) })
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	return recs
}
