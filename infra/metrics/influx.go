package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/drivesim/core/metrics"
	"github.com/kilianp07/drivesim/infra/logger"
)

// InfluxSink writes run results to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordRun writes one drive_run point per run.
func (s *InfluxSink) RecordRun(r coremetrics.RunReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("drive_run").
		AddTag("run_id", r.RunID).
		AddTag("vehicle", r.Vehicle).
		AddTag("cycle", r.Cycle).
		AddTag("powertrain", r.Powertrain).
		AddTag("trace_miss", strconv.FormatBool(r.TraceMiss)).
		AddField("steps", r.Steps).
		AddField("walks", r.Walks).
		AddField("missed_steps", r.MissedSteps).
		AddField("fuel_kj", round3(r.FuelKJ)).
		AddField("ess_dischg_kj", round3(r.ESSDischgKJ)).
		AddField("roadway_chg_kj", round3(r.RoadwayChgKJ)).
		AddField("mpgge", round3(r.MPGGE)).
		AddField("dist_mi", round3(r.DistMi)).
		AddField("final_soc", round3(r.FinalSOC)).
		SetTime(r.StartTime)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSteps writes the achieved trace as drive_step points stamped
// relative to the run start.
func (s *InfluxSink) RecordSteps(runID string, samples []coremetrics.StepSample) error {
	if len(samples) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(samples))
	for _, st := range samples {
		ts := st.RunStart.Add(time.Duration(st.TimeS * float64(time.Second)))
		points = append(points, write.NewPointWithMeasurement("drive_step").
			AddTag("run_id", runID).
			AddTag("vehicle", st.Vehicle).
			AddTag("cycle", st.Cycle).
			AddField("mph", round3(st.MPH)).
			AddField("soc", round3(st.SOC)).
			AddField("fc_kw", round3(st.FCKW)).
			AddField("ess_kw", round3(st.ESSKW)).
			AddField("cyc_met", st.CycMet).
			AddField("newton_iters", st.Iters).
			SetTime(ts))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordTraceMiss writes a drive_trace_miss point.
func (s *InfluxSink) RecordTraceMiss(ev coremetrics.TraceMissEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("drive_trace_miss").
		AddTag("run_id", ev.RunID).
		AddTag("vehicle", ev.Vehicle).
		AddTag("cycle", ev.Cycle).
		AddField("dist_frac", round3(ev.DistFrac)).
		AddField("time_frac", round3(ev.TimeFrac)).
		AddField("speed_mps", round3(ev.SpeedMPS)).
		AddField("reasons", strings.Join(ev.Reasons, "; ")).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
