package gate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestEnabled(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"default", nil, true},
		{"do_not_track_1", map[string]string{EnvDoNotTrack: "1"}, false},
		{"do_not_track_true", map[string]string{EnvDoNotTrack: "TRUE"}, false},
		{"do_not_track_other", map[string]string{EnvDoNotTrack: "0"}, true},
		{"do_not_track_wins", map[string]string{EnvDoNotTrack: "1", EnvTelemetryEnabled: "true"}, false},
		{"package_false", map[string]string{EnvTelemetryEnabled: "false"}, false},
		{"package_zero", map[string]string{EnvTelemetryEnabled: "0"}, false},
		{"package_no", map[string]string{EnvTelemetryEnabled: "No"}, false},
		{"package_true", map[string]string{EnvTelemetryEnabled: "true"}, true},
		{"package_empty", map[string]string{EnvTelemetryEnabled: "", EnvDoNotTrack: ""}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Enabled(envOf(c.env)))
		})
	}
}

func TestEnabledReadsProcessEnv(t *testing.T) {
	t.Setenv(EnvTelemetryEnabled, "")
	t.Setenv(EnvDoNotTrack, "1")
	assert.False(t, Enabled(nil))
	assert.True(t, DoNotTrack(nil))
}

func TestInternalFlag(t *testing.T) {
	assert.True(t, InternalFlag(envOf(map[string]string{EnvInternal: "yes"})))
	assert.True(t, InternalFlag(envOf(map[string]string{EnvDev: "1"})))
	assert.False(t, InternalFlag(envOf(map[string]string{EnvInternal: "on"})))
	assert.False(t, InternalFlag(envOf(nil)))
}

func TestIsCI(t *testing.T) {
	for _, key := range []string{"GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CI"} {
		assert.True(t, IsCI(envOf(map[string]string{key: "true"})), key)
	}
	assert.False(t, IsCI(envOf(map[string]string{"CI": ""})))
	assert.False(t, IsCI(envOf(nil)))
}

func TestProbeIsInternal(t *testing.T) {
	release := func() bool { return false }
	dir := t.TempDir()
	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))

	plain := Probe{Lookup: envOf(nil), DevBuild: release, Dir: sub}
	assert.False(t, plain.IsInternal())

	flagged := Probe{Lookup: envOf(map[string]string{EnvDev: "true"}), DevBuild: release, Dir: sub}
	assert.True(t, flagged.IsInternal())

	dev := Probe{Lookup: envOf(nil), DevBuild: func() bool { return true }, Dir: sub}
	assert.True(t, dev.IsInternal())

	ci := Probe{Lookup: envOf(map[string]string{"CI": "1"}), DevBuild: release, Dir: sub}
	assert.True(t, ci.IsInternal())

	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	assert.True(t, plain.IsInternal(), "git checkout in parent directory")
}

func TestIsDevBuildUnderTest(t *testing.T) {
	assert.True(t, IsDevBuild())
}
