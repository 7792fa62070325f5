package telemetry

import (
	"github.com/openadapt/telemetry/core/event"
	"github.com/openadapt/telemetry/core/privacy"
)

// active reports whether scope changes should be recorded.
func (c *Client) active() bool { return c.enabled && c.initialized }

// SetUser sets the anonymous user identifier attached to later events.
// Never pass names or e-mail addresses; sensitive keys in extra are redacted.
func (c *Client) SetUser(id string, extra map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active() {
		return
	}
	user := privacy.FromMap(extra)
	if user == nil {
		user = privacy.Mapping{}
	}
	user["id"] = privacy.String(id)
	c.user = user
}

// SetTag sets a tag on all later events.
func (c *Client) SetTag(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active() {
		return
	}
	c.tags[key] = value
}

// SetContext attaches a named context to all later events.
func (c *Client) SetContext(name string, ctx map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active() {
		return
	}
	if ctx == nil {
		delete(c.contexts, name)
		return
	}
	c.contexts[name] = privacy.FromMap(ctx)
}

// AddBreadcrumb records a breadcrumb. The oldest is dropped beyond
// MaxBreadcrumbs.
func (c *Client) AddBreadcrumb(b event.Breadcrumb) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active() {
		return
	}
	if b.Timestamp.IsZero() {
		b.Timestamp = c.now()
	}
	if len(c.breadcrumbs) >= MaxBreadcrumbs {
		copy(c.breadcrumbs, c.breadcrumbs[1:])
		c.breadcrumbs = c.breadcrumbs[:MaxBreadcrumbs-1]
	}
	c.breadcrumbs = append(c.breadcrumbs, b)
}

// applyScope copies the scope into ev. Event tags win over scope tags.
// Callers hold at least the read lock.
func (c *Client) applyScope(ev event.Event) {
	if c.cfg != nil && c.cfg.Environment != "" {
		ev[event.KeyEnvironment] = privacy.String(c.cfg.Environment)
	}
	if c.initOpts.PackageName != "" {
		ev[event.KeyRelease] = privacy.String(c.initOpts.PackageName + "@" + c.initOpts.PackageVersion)
	}

	tags := event.Region(ev, event.KeyTags)
	for k, v := range c.tags {
		if _, set := tags[k]; !set {
			tags[k] = privacy.String(v)
		}
	}
	if len(c.contexts) > 0 {
		region := event.Region(ev, event.KeyContexts)
		for name, m := range c.contexts {
			if _, set := region[name]; !set {
				region[name] = m.Clone()
			}
		}
	}
	if c.user != nil {
		if _, set := ev[event.KeyUser]; !set {
			ev[event.KeyUser] = c.user.Clone()
		}
	}
	if len(c.breadcrumbs) > 0 {
		event.SetBreadcrumbs(ev, c.breadcrumbs)
	}
}
