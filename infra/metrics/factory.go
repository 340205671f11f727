package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/drivesim/core/factory"
	coremetrics "github.com/kilianp07/drivesim/core/metrics"
	"github.com/kilianp07/drivesim/core/metrics/eco"
	"github.com/kilianp07/drivesim/infra/kpi"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})

	_ = coremetrics.RegisterMetricsSink("eco", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		store, factor, err := OpenEcoStore(conf)
		if err != nil {
			return nil, err
		}
		return NewEcoSink(store, factor, prometheus.DefaultRegisterer)
	})
}

// OpenEcoStore decodes an eco sink configuration into its store and emission
// factor. Without sqlite_path the store lives in memory.
func OpenEcoStore(conf map[string]any) (eco.Store, float64, error) {
	var c struct {
		EmissionFactor float64 `json:"emission_factor"`
		SQLitePath     string  `json:"sqlite_path"`
	}
	if err := factory.Decode(conf, &c); err != nil {
		return nil, 0, err
	}
	if c.SQLitePath == "" {
		return eco.NewMemoryStore(), c.EmissionFactor, nil
	}
	s, err := kpi.NewSQLiteStore(c.SQLitePath)
	if err != nil {
		return nil, 0, err
	}
	return s, c.EmissionFactor, nil
}
