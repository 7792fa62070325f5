package monitoring

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/goccy/go-json"

	"github.com/openadapt/telemetry/core/event"
	"github.com/openadapt/telemetry/core/privacy"
)

// toSentryEvent translates the generic payload into Sentry's typed event.
// Unknown or wrongly shaped regions are skipped.
func toSentryEvent(ev event.Event) *sentry.Event {
	out := sentry.NewEvent()
	out.EventID = sentry.EventID(event.ID(ev))
	out.Level = sentry.Level(event.LevelOf(ev))
	out.Timestamp = event.Timestamp(ev)
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now()
	}
	out.Message, _ = ev.StringAt(event.KeyMessage)
	out.Environment, _ = ev.StringAt(event.KeyEnvironment)
	out.Release, _ = ev.StringAt(event.KeyRelease)
	out.Logger, _ = ev.StringAt(event.KeyLogger)

	if tags, ok := ev.MappingAt(event.KeyTags); ok {
		for k, v := range tags {
			out.Tags[k] = scalarString(v)
		}
	}
	if extra, ok := ev.MappingAt(event.KeyExtra); ok {
		out.Extra = privacy.ToMap(extra)
	}
	if contexts, ok := ev.MappingAt(event.KeyContexts); ok {
		for name, v := range contexts {
			if m, ok := v.(privacy.Mapping); ok {
				out.Contexts[name] = sentry.Context(privacy.ToMap(m))
			}
		}
	}
	if user, ok := ev.MappingAt(event.KeyUser); ok {
		out.User.ID, _ = user.StringAt("id")
		out.User.Username, _ = user.StringAt("username")
		out.User.Email, _ = user.StringAt("email")
	}
	if crumbs, ok := ev.MappingAt(event.KeyBreadcrumbs); ok {
		values, _ := crumbs.SequenceAt("values")
		for _, v := range values {
			if m, ok := v.(privacy.Mapping); ok {
				out.Breadcrumbs = append(out.Breadcrumbs, toBreadcrumb(m))
			}
		}
	}
	if exc, ok := ev.MappingAt(event.KeyException); ok {
		values, _ := exc.SequenceAt("values")
		for _, v := range values {
			if m, ok := v.(privacy.Mapping); ok {
				out.Exception = append(out.Exception, toException(m))
			}
		}
	}
	if req, ok := ev.MappingAt(event.KeyRequest); ok {
		out.Request = toRequest(req)
	}
	return out
}

func scalarString(v privacy.Value) string {
	switch x := v.(type) {
	case privacy.String:
		return string(x)
	case nil, privacy.Null:
		return ""
	case privacy.Bool, privacy.Number, privacy.Integer:
		return fmt.Sprint(privacy.ToAny(x))
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func toBreadcrumb(m privacy.Mapping) *sentry.Breadcrumb {
	b := &sentry.Breadcrumb{}
	b.Message, _ = m.StringAt("message")
	b.Category, _ = m.StringAt("category")
	level, _ := m.StringAt("level")
	b.Level = sentry.Level(event.ParseLevel(level))
	if ts, ok := m.StringAt("timestamp"); ok {
		b.Timestamp, _ = time.Parse(event.TimeFormat, ts)
	}
	if data, ok := m.MappingAt("data"); ok {
		b.Data = privacy.ToMap(data)
	}
	return b
}

func toException(m privacy.Mapping) sentry.Exception {
	var exc sentry.Exception
	exc.Type, _ = m.StringAt("type")
	exc.Value, _ = m.StringAt("value")
	exc.Module, _ = m.StringAt("module")
	st, ok := m.MappingAt("stacktrace")
	if !ok {
		return exc
	}
	frames, _ := st.SequenceAt("frames")
	exc.Stacktrace = &sentry.Stacktrace{}
	for _, v := range frames {
		f, ok := v.(privacy.Mapping)
		if !ok {
			continue
		}
		var frame sentry.Frame
		frame.Function, _ = f.StringAt("function")
		frame.Module, _ = f.StringAt("module")
		frame.Filename, _ = f.StringAt("filename")
		frame.AbsPath, _ = f.StringAt("abs_path")
		if n, ok := f.Get("lineno").(privacy.Number); ok {
			frame.Lineno = int(n)
		}
		if b, ok := f.Get("in_app").(privacy.Bool); ok {
			frame.InApp = bool(b)
		}
		if vars, ok := f.MappingAt("vars"); ok {
			frame.Vars = privacy.ToMap(vars)
		}
		exc.Stacktrace.Frames = append(exc.Stacktrace.Frames, frame)
	}
	return exc
}

func toRequest(m privacy.Mapping) *sentry.Request {
	req := &sentry.Request{}
	req.URL, _ = m.StringAt("url")
	req.Method, _ = m.StringAt("method")
	req.QueryString, _ = m.StringAt("query_string")
	if headers, ok := m.MappingAt("headers"); ok {
		req.Headers = make(map[string]string, len(headers))
		for k, v := range headers {
			req.Headers[k] = scalarString(v)
		}
	}
	switch data := m.Get("data").(type) {
	case privacy.String:
		req.Data = string(data)
	case nil:
	default:
		req.Data = scalarString(data)
	}
	return req
}
