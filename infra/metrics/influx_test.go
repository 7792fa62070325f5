package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/openadapt/telemetry/core/metrics"
)

func TestInfluxRecorder_RecordPipeline(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rec := NewInfluxRecorder(srv.URL, "token", "org", "bucket")
	defer rec.Close()
	now := time.Now()
	ev := coremetrics.PipelineEvent{
		Kind:    coremetrics.KindMessage,
		Level:   "warning",
		Outcome: coremetrics.OutcomeSent,
		Sink:    "jsonl",
		Latency: 1500 * time.Microsecond,
		Time:    now,
	}
	if err := rec.RecordPipeline(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("telemetry_event").
		AddTag("kind", "message").
		AddTag("outcome", "sent").
		AddTag("level", "warning").
		AddTag("sink", "jsonl").
		AddField("latency_ms", 1.5).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestInfluxRecorder_ConfigReload(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rec := NewInfluxRecorder(srv.URL, "token", "org", "bucket")
	defer rec.Close()
	if err := rec.RecordConfigReload(false); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if !strings.HasPrefix(body, "config_reload,ok=false count=1i") {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestNewInfluxRecorderWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	rec := NewInfluxRecorderWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := rec.(*InfluxRecorder); ok {
		t.Fatalf("expected NopRecorder on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
