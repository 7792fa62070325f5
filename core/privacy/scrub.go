package privacy

// Policy selects how far a scrub descends and whether string values are
// pattern-scanned in addition to key-based redaction.
type Policy struct {
	// Deep recurses into nested mappings and sequences.
	Deep bool
	// ScrubValues runs ScrubString over string values of non-sensitive keys.
	ScrubValues bool
}

// Common region policies.
var (
	// KeysOnly checks direct keys only: flat tags and headers.
	KeysOnly = Policy{}
	// DeepKeys recurses but leaves values alone: structured diagnostic data.
	DeepKeys = Policy{Deep: true}
	// DeepValues recurses and scans strings: free-form data.
	DeepValues = Policy{Deep: true, ScrubValues: true}
)

// ScrubMapping returns a sanitized copy of data. A sensitive key replaces the
// whole value with Redacted regardless of its shape, without descending into
// it. The input is never modified.
func ScrubMapping(data Mapping, p Policy) Mapping {
	if data == nil {
		return nil
	}
	out := make(Mapping, len(data))
	for key, value := range data {
		if IsSensitiveKey(key) {
			out[key] = String(Redacted)
			continue
		}
		switch val := value.(type) {
		case Mapping:
			if p.Deep {
				out[key] = ScrubMapping(val, p)
				continue
			}
		case Sequence:
			if p.Deep {
				out[key] = ScrubSequence(val, p.ScrubValues)
				continue
			}
		case String:
			if p.ScrubValues {
				out[key] = String(ScrubString(string(val)))
				continue
			}
		}
		out[key] = value
	}
	return out
}

// ScrubSequence returns a sanitized copy of data. Nested mappings are always
// scrubbed deeply.
func ScrubSequence(data Sequence, scrubValues bool) Sequence {
	if data == nil {
		return nil
	}
	out := make(Sequence, len(data))
	for i, item := range data {
		switch val := item.(type) {
		case Mapping:
			out[i] = ScrubMapping(val, DeepPolicy(scrubValues))
		case Sequence:
			out[i] = ScrubSequence(val, scrubValues)
		case String:
			if scrubValues {
				out[i] = String(ScrubString(string(val)))
			} else {
				out[i] = val
			}
		default:
			out[i] = item
		}
	}
	return out
}

// DeepPolicy returns the recursive policy with the given value scanning.
func DeepPolicy(scrubValues bool) Policy {
	return Policy{Deep: true, ScrubValues: scrubValues}
}

// Scrub sanitizes any payload value: mappings with p, sequences with
// p.ScrubValues, strings when p.ScrubValues is set.
func Scrub(v Value, p Policy) Value {
	switch val := v.(type) {
	case Mapping:
		return ScrubMapping(val, p)
	case Sequence:
		return ScrubSequence(val, p.ScrubValues)
	case String:
		if p.ScrubValues {
			return String(ScrubString(string(val)))
		}
	}
	return v
}

// ScrubMap applies ScrubMapping to plain Go data and converts the result back.
func ScrubMap(data map[string]any, p Policy) map[string]any {
	if data == nil {
		return nil
	}
	return ToMap(ScrubMapping(FromMap(data), p))
}
