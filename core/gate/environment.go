package gate

import (
	"os"
	"path/filepath"
	"runtime/debug"
)

// CIVariables are set by common CI/CD platforms.
var CIVariables = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"TRAVIS",
	"CIRCLECI",
	"BUILDKITE",
	"AZURE_PIPELINES",
	"TF_BUILD",
	"CODEBUILD_BUILD_ID",
	"TEAMCITY_VERSION",
	"BITBUCKET_BUILD_NUMBER",
}

// IsCI reports whether any CI platform variable is set to a non-empty value.
func IsCI(lookup LookupFunc) bool {
	for _, key := range CIVariables {
		if lookup.get(key) != "" {
			return true
		}
	}
	return false
}

// Probe holds the host checks used to recognise internal usage. The zero
// value probes the real process.
type Probe struct {
	Lookup LookupFunc
	// DevBuild reports a binary built from a source checkout.
	DevBuild func() bool
	// Dir is searched, with its parent, for a .git directory.
	Dir string
}

// IsDevBuild reports whether the running binary carries no release version,
// which is the case for `go run`, `go test` and plain `go build` checkouts.
func IsDevBuild() bool {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return true
	}
	v := info.Main.Version
	return v == "" || v == "(devel)"
}

// IsInternal applies the internal-usage heuristics in order: explicit flags,
// development build, git checkout, CI.
func (p Probe) IsInternal() bool {
	if InternalFlag(p.Lookup) {
		return true
	}
	dev := p.DevBuild
	if dev == nil {
		dev = IsDevBuild
	}
	if dev() {
		return true
	}
	if hasGitDir(p.Dir) {
		return true
	}
	return IsCI(p.Lookup)
}

func hasGitDir(dir string) bool {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return false
		}
		dir = wd
	}
	for _, d := range []string{dir, filepath.Dir(dir)} {
		if st, err := os.Stat(filepath.Join(d, ".git")); err == nil && st != nil {
			return true
		}
	}
	return false
}
