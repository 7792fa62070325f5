package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/openadapt/telemetry/core/factory"
	coremetrics "github.com/openadapt/telemetry/core/metrics"
)

func TestPromRecorder_RecordPipeline(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPromRecorderWithRegistry(reg)
	if err != nil {
		t.Fatalf("create recorder: %v", err)
	}
	_ = rec.RecordPipeline(coremetrics.PipelineEvent{
		Kind: coremetrics.KindException, Level: "error", Outcome: coremetrics.OutcomeSent,
		Sink: "sentry", Latency: 20 * time.Millisecond,
	})
	_ = rec.RecordPipeline(coremetrics.PipelineEvent{
		Kind: coremetrics.KindEvent, Level: "info", Outcome: coremetrics.OutcomeSampled,
	})

	expected := `
# HELP telemetry_events_total Total number of capture attempts by outcome
# TYPE telemetry_events_total counter
telemetry_events_total{kind="event",level="info",outcome="sampled",sink=""} 1
telemetry_events_total{kind="exception",level="error",outcome="sent",sink="sentry"} 1
`
	if err := testutil.CollectAndCompare(rec.events, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if c := testutil.CollectAndCount(rec.latency); c != 1 {
		t.Errorf("expected one latency series, got %d", c)
	}
}

func TestPromRecorder_ConfigReload(t *testing.T) {
	rec, err := NewPromRecorderWithRegistry(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("create recorder: %v", err)
	}
	_ = rec.RecordConfigReload(true)
	_ = rec.RecordConfigReload(true)
	_ = rec.RecordConfigReload(false)
	if v := testutil.ToFloat64(rec.reloads.WithLabelValues("true")); v != 2 {
		t.Errorf("expected 2 successful reloads, got %v", v)
	}
	if v := testutil.ToFloat64(rec.reloads.WithLabelValues("false")); v != 1 {
		t.Errorf("expected 1 failed reload, got %v", v)
	}
}

func TestPromRecorder_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromRecorderWithRegistry(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewPromRecorderWithRegistry(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.events != second.events {
		t.Fatalf("expected collectors to be shared")
	}
}

func TestStartPromServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPromRecorderWithRegistry(reg)
	if err != nil {
		t.Fatalf("create recorder: %v", err)
	}
	_ = rec.RecordConfigReload(true)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- StartPromServer(ctx, addr, reg) }()

	var body string
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err == nil {
			data, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			body = string(data)
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !strings.Contains(body, "telemetry_config_reloads_total") {
		t.Fatalf("metrics not served: %q", body)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRegisteredRecorders(t *testing.T) {
	r, err := coremetrics.NewRecorder([]factory.ModuleConfig{{Type: "nop"}, {Type: "prometheus"}})
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	if _, ok := r.(*coremetrics.MultiRecorder); !ok {
		t.Fatalf("expected multi recorder, got %T", r)
	}
}
