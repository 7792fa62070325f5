package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openadapt/telemetry/config"
	"github.com/openadapt/telemetry/core/privacy"
	"github.com/openadapt/telemetry/infra/spool"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DO_NOT_TRACK", "OPENADAPT_INTERNAL", "OPENADAPT_DEV", "OPENADAPT_TELEMETRY_ENABLED",
		"OPENADAPT_TELEMETRY_DSN", "OPENADAPT_TELEMETRY_ENVIRONMENT",
		"OPENADAPT_TELEMETRY_SAMPLE_RATE", "OPENADAPT_TELEMETRY_TRACES_SAMPLE_RATE",
	} {
		t.Setenv(k, "")
	}
}

// gatewayFile writes a gateway config with a store and JSONL spool in dir.
func gatewayFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "gateway.yaml")
	data := fmt.Sprintf("store: %s\nspool:\n  backend: jsonl\n  path: %s\n",
		filepath.Join(dir, "telemetry.json"), filepath.Join(dir, "spool.jsonl"))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cfgPath, envFile, gw = "", ".env", nil
	showStored, saveOut = false, ""
	sendLevel, sendEvent, sendProps = "info", false, nil
	spoolLimit, spoolLevel, spoolSince = 20, "", 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	out, err := execute(t, "", "config", "path", "-c", gatewayFile(t, dir))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "telemetry.json"), strings.TrimSpace(out))
}

func TestConfigSetShow(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	gwPath := gatewayFile(t, dir)

	_, err := execute(t, "", "config", "set", "sample_rate", "0.5", "-c", gwPath)
	require.NoError(t, err)
	_, err = execute(t, "", "config", "set", "environment", "staging", "-c", gwPath)
	require.NoError(t, err)

	t.Setenv("OPENADAPT_TELEMETRY_ENVIRONMENT", "ci")
	out, err := execute(t, "", "config", "show", "-c", gwPath)
	require.NoError(t, err)
	var resolved config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &resolved))
	assert.Equal(t, 0.5, resolved.SampleRate)
	assert.Equal(t, "ci", resolved.Environment)

	out, err = execute(t, "", "config", "show", "--stored", "-c", gwPath)
	require.NoError(t, err)
	var stored config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &stored))
	assert.Equal(t, "staging", stored.Environment)

	_, err = execute(t, "", "config", "set", "sample_rate", "7", "-c", gwPath)
	assert.ErrorIs(t, err, config.ErrInvalidSampleRate)
	_, err = execute(t, "", "config", "set", "nope", "1", "-c", gwPath)
	assert.ErrorIs(t, err, config.ErrUnknownKey)
}

func TestConfigSave(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	gwPath := gatewayFile(t, dir)
	t.Setenv("OPENADAPT_TELEMETRY_ENVIRONMENT", "development")
	out := filepath.Join(dir, "snapshot.yaml")
	_, err := execute(t, "", "config", "save", "-o", out, "-c", gwPath)
	require.NoError(t, err)

	cfg, err := (&config.Loader{Path: out, StoreOnly: true}).Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
}

func TestScrub(t *testing.T) {
	clearEnv(t)
	in := `{"message":"mail jane@example.com","extra":{"password":"hunter2","n":1}}`
	out, err := execute(t, in, "scrub", "--env-file=")
	require.NoError(t, err)
	var ev privacy.Mapping
	require.NoError(t, json.Unmarshal([]byte(out), &ev))
	msg, _ := ev.StringAt("message")
	assert.NotContains(t, msg, "jane@example.com")
	extra, ok := ev.MappingAt("extra")
	require.True(t, ok)
	assert.Equal(t, privacy.String(privacy.Redacted), extra["password"])
	assert.Equal(t, privacy.Number(1), extra["n"])

	_, err = execute(t, "not json", "scrub")
	assert.Error(t, err)
}

func TestSendAndSpoolList(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	gwPath := gatewayFile(t, dir)

	id, err := execute(t, "", "send", "disk full", "--level", "warning", "-c", gwPath)
	require.NoError(t, err)
	require.NotEmpty(t, strings.TrimSpace(id))
	_, err = execute(t, "", "send", "recording_started", "--event", "-p", "frames=3", "-c", gwPath)
	require.NoError(t, err)

	out, err := execute(t, "", "spool", "list", "-c", gwPath)
	require.NoError(t, err)
	var recs []spool.Record
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, strings.TrimSpace(id), recs[0].ID)
	assert.Equal(t, "event:recording_started", recs[1].Message)

	out, err = execute(t, "", "spool", "list", "--level", "warning", "-c", gwPath)
	require.NoError(t, err)
	recs = nil
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "disk full", recs[0].Message)
}

func TestSendOptedOut(t *testing.T) {
	clearEnv(t)
	t.Setenv("DO_NOT_TRACK", "1")
	_, err := execute(t, "", "send", "hi", "-c", gatewayFile(t, t.TempDir()))
	assert.Error(t, err)
}

func TestSpoolListWithoutSpool(t *testing.T) {
	clearEnv(t)
	_, err := execute(t, "", "spool", "list")
	assert.EqualError(t, err, "no spool configured")
}

func TestStatus(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	gwPath := gatewayFile(t, dir)
	_, err := execute(t, "", "config", "set", "dsn", "https://secret@sentry.example.com/1", "-c", gwPath)
	require.NoError(t, err)

	out, err := execute(t, "", "status", "-c", gwPath)
	require.NoError(t, err)
	var rep statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.True(t, rep.Enabled)
	assert.Equal(t, filepath.Join(dir, "telemetry.json"), rep.StorePath)
	require.NotNil(t, rep.Config)
	assert.NotContains(t, rep.Config.DSN, "secret")
	assert.Contains(t, rep.Config.DSN, "sentry.example.com")
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "", maskDSN(""))
	assert.Equal(t, "https://redacted@o.example/1", maskDSN("https://key@o.example/1"))
	assert.Equal(t, "***", maskDSN("not a dsn"))
}
