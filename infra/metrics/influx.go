package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/openadapt/telemetry/core/metrics"
	"github.com/openadapt/telemetry/infra/logger"
)

// InfluxRecorder writes pipeline outcomes to an InfluxDB instance using the
// official client.
type InfluxRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxRecorder creates a recorder configured for the given InfluxDB endpoint.
func NewInfluxRecorder(url, token, org, bucket string) *InfluxRecorder {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxRecorder{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-recorder"),
	}
}

// NewInfluxRecorderWithFallback pings the InfluxDB instance and returns a
// NopRecorder if the health check fails.
func NewInfluxRecorderWithFallback(url, token, org, bucket string) coremetrics.Recorder {
	r := NewInfluxRecorder(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := r.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			r.log.Errorf("influx health check error: %v", err)
		} else {
			r.log.Errorf("influx health status: %s", health.Status)
		}
		r.client.Close()
		return coremetrics.NopRecorder{}
	}
	return r
}

// RecordPipeline writes one telemetry_event point.
func (r *InfluxRecorder) RecordPipeline(ev coremetrics.PipelineEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	p := write.NewPointWithMeasurement("telemetry_event").
		AddTag("kind", string(ev.Kind)).
		AddTag("outcome", string(ev.Outcome))
	if ev.Level != "" {
		p.AddTag("level", ev.Level)
	}
	if ev.Sink != "" {
		p.AddTag("sink", ev.Sink)
	}
	p = p.AddField("latency_ms", float64(ev.Latency.Microseconds())/1000).
		SetTime(ts)
	return r.writeAPI.WritePoint(ctx, p)
}

// RecordConfigReload writes one config_reload point.
func (r *InfluxRecorder) RecordConfigReload(ok bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("config_reload").
		AddTag("ok", strconv.FormatBool(ok)).
		AddField("count", 1).
		SetTime(time.Now())
	return r.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (r *InfluxRecorder) Close() {
	r.client.Close()
}
