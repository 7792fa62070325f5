// Package sanitize applies the privacy policies of each event region.
//
// Region policies:
//
//	exception    paths rewritten, frame vars deep+values, message scrubbed (in place)
//	breadcrumbs  message scrubbed, data deep+values
//	extra        deep+values
//	contexts     deep, keys only
//	tags         direct keys only
//	request      headers direct keys only; data deep+values or scrubbed string
//	message      scrubbed
//	user         deep, keys only
//
// Absent regions, and regions of an unexpected shape, are left untouched.
package sanitize

import "github.com/openadapt/telemetry/core/privacy"

// Region keys of an event payload.
const (
	RegionException   = "exception"
	RegionBreadcrumbs = "breadcrumbs"
	RegionExtra       = "extra"
	RegionContexts    = "contexts"
	RegionTags        = "tags"
	RegionRequest     = "request"
	RegionMessage     = "message"
	RegionUser        = "user"
)

// Event returns a sanitized copy of ev. The exception sub-tree is the one
// region rewritten in place (see Exception); it is shared with the result.
// Every other region in the result is a fresh structure.
func Event(ev privacy.Mapping) privacy.Mapping {
	if ev == nil {
		return nil
	}
	out := ev.Clone()

	if exc, ok := out.MappingAt(RegionException); ok {
		Exception(exc)
	}
	if crumbs, ok := out.MappingAt(RegionBreadcrumbs); ok {
		out[RegionBreadcrumbs] = Breadcrumbs(crumbs)
	}
	if extra, ok := out.MappingAt(RegionExtra); ok {
		out[RegionExtra] = privacy.ScrubMapping(extra, privacy.DeepValues)
	}
	if contexts, ok := out.MappingAt(RegionContexts); ok {
		out[RegionContexts] = privacy.ScrubMapping(contexts, privacy.DeepKeys)
	}
	if tags, ok := out.MappingAt(RegionTags); ok {
		out[RegionTags] = privacy.ScrubMapping(tags, privacy.KeysOnly)
	}
	if req, ok := out.MappingAt(RegionRequest); ok {
		out[RegionRequest] = Request(req)
	}
	if msg, ok := out.StringAt(RegionMessage); ok {
		out[RegionMessage] = privacy.String(privacy.ScrubString(msg))
	}
	if user, ok := out.MappingAt(RegionUser); ok {
		out[RegionUser] = privacy.ScrubMapping(user, privacy.DeepKeys)
	}
	return out
}

// Exception scrubs an exception region in place: stack frame paths lose their
// user segment, frame variables are scrubbed deeply including values, and
// every exception message is pattern-scanned.
func Exception(exc privacy.Mapping) {
	values, ok := exc.SequenceAt("values")
	if !ok {
		return
	}
	for _, item := range values {
		value, ok := item.(privacy.Mapping)
		if !ok {
			continue
		}
		if st, ok := value.MappingAt("stacktrace"); ok {
			if frames, ok := st.SequenceAt("frames"); ok {
				for _, f := range frames {
					if frame, ok := f.(privacy.Mapping); ok {
						scrubFrame(frame)
					}
				}
			}
		}
		if msg, ok := value.StringAt("value"); ok {
			value["value"] = privacy.String(privacy.ScrubString(msg))
		}
	}
}

func scrubFrame(frame privacy.Mapping) {
	for _, key := range []string{"filename", "abs_path"} {
		if p, ok := frame.StringAt(key); ok {
			frame[key] = privacy.String(privacy.SanitizePath(p))
		}
	}
	if vars, ok := frame.MappingAt("vars"); ok {
		frame["vars"] = privacy.ScrubMapping(vars, privacy.DeepValues)
	}
}

// Breadcrumbs returns a copy of the breadcrumbs region with every
// breadcrumb's message and data scrubbed.
func Breadcrumbs(crumbs privacy.Mapping) privacy.Mapping {
	out := crumbs.Clone()
	values, ok := crumbs.SequenceAt("values")
	if !ok {
		return out
	}
	scrubbed := make(privacy.Sequence, len(values))
	for i, item := range values {
		crumb, ok := item.(privacy.Mapping)
		if !ok {
			scrubbed[i] = item
			continue
		}
		crumb = crumb.Clone()
		if msg, ok := crumb.StringAt("message"); ok {
			crumb["message"] = privacy.String(privacy.ScrubString(msg))
		}
		if data, ok := crumb.MappingAt("data"); ok {
			crumb["data"] = privacy.ScrubMapping(data, privacy.DeepValues)
		}
		scrubbed[i] = crumb
	}
	out["values"] = scrubbed
	return out
}

// Request returns a copy of the request region with headers checked by key
// and the body scrubbed according to its shape.
func Request(req privacy.Mapping) privacy.Mapping {
	out := req.Clone()
	if headers, ok := req.MappingAt("headers"); ok {
		out["headers"] = privacy.ScrubMapping(headers, privacy.KeysOnly)
	}
	switch data := req.Get("data").(type) {
	case privacy.Mapping:
		out["data"] = privacy.ScrubMapping(data, privacy.DeepValues)
	case privacy.String:
		out["data"] = privacy.String(privacy.ScrubString(string(data)))
	}
	return out
}
