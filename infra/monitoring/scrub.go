package monitoring

import (
	"github.com/getsentry/sentry-go"

	"github.com/openadapt/telemetry/core/privacy"
)

// ScrubEvent applies the sanitizer policies to Sentry's typed event. It is
// installed as the SDK's BeforeSend hook so that events the SDK assembles on
// its own are filtered the same way as events built by the client.
func ScrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event == nil {
		return nil
	}
	event.Message = privacy.ScrubString(event.Message)

	for i := range event.Exception {
		exc := &event.Exception[i]
		exc.Value = privacy.ScrubString(exc.Value)
		if exc.Stacktrace == nil {
			continue
		}
		for j := range exc.Stacktrace.Frames {
			f := &exc.Stacktrace.Frames[j]
			f.Filename = privacy.SanitizePath(f.Filename)
			f.AbsPath = privacy.SanitizePath(f.AbsPath)
			if f.Vars != nil {
				f.Vars = privacy.ScrubMap(f.Vars, privacy.DeepValues)
			}
		}
	}

	for _, b := range event.Breadcrumbs {
		if b == nil {
			continue
		}
		b.Message = privacy.ScrubString(b.Message)
		if b.Data != nil {
			b.Data = privacy.ScrubMap(b.Data, privacy.DeepValues)
		}
	}

	if event.Extra != nil {
		event.Extra = privacy.ScrubMap(event.Extra, privacy.DeepValues)
	}

	for name, ctx := range event.Contexts {
		if privacy.IsSensitiveKey(name) {
			event.Contexts[name] = sentry.Context{"value": privacy.Redacted}
			continue
		}
		event.Contexts[name] = privacy.ScrubMap(ctx, privacy.DeepKeys)
	}

	for k := range event.Tags {
		if privacy.IsSensitiveKey(k) {
			event.Tags[k] = privacy.Redacted
		}
	}

	if event.Request != nil {
		for k := range event.Request.Headers {
			if privacy.IsSensitiveKey(k) {
				event.Request.Headers[k] = privacy.Redacted
			}
		}
		if event.Request.Cookies != "" {
			event.Request.Cookies = privacy.Redacted
		}
		event.Request.Data = privacy.ScrubString(event.Request.Data)
		event.Request.QueryString = privacy.ScrubString(event.Request.QueryString)
	}

	if event.User.Email != "" {
		event.User.Email = privacy.Redacted
	}
	return event
}
