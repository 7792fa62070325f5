package event

import (
	"time"

	"github.com/openadapt/telemetry/core/privacy"
)

// Breadcrumb records something that happened before an event.
type Breadcrumb struct {
	Message   string
	Category  string
	Level     Level
	Data      map[string]any
	Timestamp time.Time
}

// Value converts the breadcrumb into its payload form.
func (b Breadcrumb) Value() privacy.Mapping {
	m := privacy.Mapping{
		"message":   privacy.String(b.Message),
		"category":  privacy.String(b.Category),
		"level":     privacy.String(b.Level),
		"timestamp": privacy.String(b.Timestamp.UTC().Format(TimeFormat)),
	}
	if b.Category == "" {
		m["category"] = privacy.String("default")
	}
	if b.Level == "" {
		m["level"] = privacy.String(LevelInfo)
	}
	if len(b.Data) > 0 {
		m["data"] = privacy.FromMap(b.Data)
	}
	return m
}

// SetBreadcrumbs stores crumbs in the event's breadcrumbs region.
func SetBreadcrumbs(ev Event, crumbs []Breadcrumb) {
	if len(crumbs) == 0 {
		return
	}
	values := make(privacy.Sequence, len(crumbs))
	for i, b := range crumbs {
		values[i] = b.Value()
	}
	ev[KeyBreadcrumbs] = privacy.Mapping{"values": values}
}
