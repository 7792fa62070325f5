package privacy

import "regexp"

// Redacted replaces every value removed by the scrubber.
const Redacted = "[REDACTED]"

// contentPattern is a named, compiled content rule.
type contentPattern struct {
	name  string
	regex *regexp.Regexp
}

// contentPatterns run in declaration order; later rules see the output of
// earlier ones. The long alphanumeric rule must precede the bearer rule so a
// long bearer token collapses into a single marker.
var contentPatterns = []contentPattern{
	{"email", regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
	{"phone", regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)},
	{"phone_international", regexp.MustCompile(`\+\d{1,3}[-.\s]?\d{3,14}`)},
	{"credit_card", regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`)},
	{"ssn", regexp.MustCompile(`\b\d{3}[-\s]?\d{2}[-\s]?\d{4}\b`)},
	{"api_key", regexp.MustCompile(`\b[A-Za-z0-9]{32,}\b`)},
	{"bearer_token", regexp.MustCompile(`Bearer\s+[A-Za-z0-9._-]+`)},
	{"base64", regexp.MustCompile(`[A-Za-z0-9+/]{40,}={0,2}`)},
}

// PatternNames lists the content rules in the order ScrubString applies them.
func PatternNames() []string {
	names := make([]string, len(contentPatterns))
	for i, p := range contentPatterns {
		names[i] = p.name
	}
	return names
}

// ScrubString replaces every match of the content patterns with Redacted.
// Passes repeat until the output is stable, since a replacement can open a
// word boundary next to text an earlier rule skipped. Redacted matches no
// rule, so every pass either shrinks the unredacted text or changes nothing.
func ScrubString(value string) string {
	if value == "" {
		return value
	}
	for {
		next := scrubPass(value)
		if next == value {
			return value
		}
		value = next
	}
}

func scrubPass(value string) string {
	for _, p := range contentPatterns {
		value = p.regex.ReplaceAllLiteralString(value, Redacted)
	}
	return value
}
