package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/drivesim/core/metrics"
)

// PromSink records run results in Prometheus metrics.
type PromSink struct {
	runs      *prometheus.CounterVec
	fuel      *prometheus.GaugeVec
	essDischg *prometheus.GaugeVec
	mpgge     *prometheus.GaugeVec
	duration  *prometheus.HistogramVec
	newton    *prometheus.HistogramVec
	traceMiss *prometheus.CounterVec
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The exposition server is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// that are already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var err error
	s := &PromSink{}
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drivesim_runs_total",
		Help: "Total number of simulated drives",
	}, []string{"vehicle", "powertrain", "trace_miss"})); err != nil {
		return nil, err
	}
	if s.fuel, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "drivesim_run_fuel_kj",
		Help: "Fuel energy used by the latest run",
	}, []string{"vehicle", "cycle"})); err != nil {
		return nil, err
	}
	if s.essDischg, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "drivesim_run_ess_dischg_kj",
		Help: "Net battery energy discharged by the latest run",
	}, []string{"vehicle", "cycle"})); err != nil {
		return nil, err
	}
	if s.mpgge, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "drivesim_run_mpgge",
		Help: "Fuel economy of the latest run in miles per gallon gasoline equivalent",
	}, []string{"vehicle", "cycle"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "drivesim_run_duration_seconds",
		Help:    "Wall time spent simulating a run",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"powertrain"})); err != nil {
		return nil, err
	}
	if s.newton, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "drivesim_newton_iterations",
		Help:    "Newton iterations spent per time step",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50, 100},
	}, []string{"vehicle"})); err != nil {
		return nil, err
	}
	if s.traceMiss, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drivesim_trace_miss_total",
		Help: "Runs whose achieved trace missed tolerance",
	}, []string{"vehicle", "cycle"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// RecordRun updates the per-run counters and gauges.
func (s *PromSink) RecordRun(r coremetrics.RunReport) error {
	s.runs.WithLabelValues(r.Vehicle, r.Powertrain, strconv.FormatBool(r.TraceMiss)).Inc()
	s.fuel.WithLabelValues(r.Vehicle, r.Cycle).Set(r.FuelKJ)
	s.essDischg.WithLabelValues(r.Vehicle, r.Cycle).Set(r.ESSDischgKJ)
	s.mpgge.WithLabelValues(r.Vehicle, r.Cycle).Set(r.MPGGE)
	if d := r.Duration(); d > 0 {
		s.duration.WithLabelValues(r.Powertrain).Observe(d.Seconds())
	}
	return nil
}

// RecordNewtonIterations observes the iteration count of every step.
func (s *PromSink) RecordNewtonIterations(ev coremetrics.NewtonIterationEvent) error {
	h := s.newton.WithLabelValues(ev.Vehicle)
	for _, n := range ev.Iters {
		h.Observe(float64(n))
	}
	return nil
}

// RecordTraceMiss increments the trace-miss counter.
func (s *PromSink) RecordTraceMiss(ev coremetrics.TraceMissEvent) error {
	s.traceMiss.WithLabelValues(ev.Vehicle, ev.Cycle).Inc()
	return nil
}
