package privacy

import "regexp"

// UserPlaceholder stands in for the user segment of home directories.
const UserPlaceholder = "<user>"

type pathRule struct {
	regex       *regexp.Regexp
	replacement string
}

var pathRules = []pathRule{
	// macOS
	{regexp.MustCompile(`/Users/[^/]+/`), "/Users/" + UserPlaceholder + "/"},
	// Linux
	{regexp.MustCompile(`/home/[^/]+/`), "/home/" + UserPlaceholder + "/"},
	// Windows, raw and JSON-escaped backslashes
	{regexp.MustCompile(`C:\\Users\\[^\\]+\\`), `C:\Users\` + UserPlaceholder + `\`},
	{regexp.MustCompile(`C:\\\\Users\\\\[^\\]+\\\\`), `C:\\Users\\` + UserPlaceholder + `\\`},
	// Windows with forward slashes (git bash, msys)
	{regexp.MustCompile(`C:/Users/[^/]+/`), "C:/Users/" + UserPlaceholder + "/"},
}

// SanitizePath replaces the user segment of home directory paths with
// UserPlaceholder. Every occurrence is rewritten, so colon-joined path lists
// are handled too; the rest of the path is preserved exactly.
func SanitizePath(path string) string {
	for _, r := range pathRules {
		path = r.regex.ReplaceAllLiteralString(path, r.replacement)
	}
	return path
}
