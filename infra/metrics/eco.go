package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	core "github.com/kilianp07/drivesim/core/metrics"
	eco "github.com/kilianp07/drivesim/core/metrics/eco"
)

// EcoSink folds runs into daily per-vehicle energy records and exposes them
// as gauges.
type EcoSink struct {
	store    eco.Store
	factor   float64
	energy   *prometheus.GaugeVec
	share    *prometheus.GaugeVec
	co2      *prometheus.GaugeVec
	kwhPerMi *prometheus.GaugeVec
}

// NewEcoSink creates a sink with Prometheus gauges registered on reg.
// factor is grams of CO2 per kWh of fuel.
func NewEcoSink(store eco.Store, factor float64, reg prometheus.Registerer) (*EcoSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &EcoSink{store: store, factor: factor}
	var err error
	if s.energy, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vehicle_daily_energy_kwh",
		Help: "Daily simulated energy per vehicle and source",
	}, []string{"vehicle", "day", "source"})); err != nil {
		return nil, err
	}
	if s.share, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vehicle_daily_electric_share",
		Help: "Daily fraction of energy drawn from electricity",
	}, []string{"vehicle", "day"})); err != nil {
		return nil, err
	}
	if s.co2, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vehicle_daily_co2_grams",
		Help: "Daily CO2 emitted by fuel per vehicle",
	}, []string{"vehicle", "day"})); err != nil {
		return nil, err
	}
	if s.kwhPerMi, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vehicle_daily_kwh_per_mile",
		Help: "Daily combined energy intensity per vehicle",
	}, []string{"vehicle", "day"})); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordRun adds the run to its day's record and refreshes the gauges.
func (s *EcoSink) RecordRun(r core.RunReport) error {
	rec := eco.FromRun(r.Vehicle, r.StartTime, r.FuelKJ, r.ESSDischgKJ+r.RoadwayChgKJ, r.DistMi)
	if err := s.store.Add(rec); err != nil {
		return err
	}
	records, err := s.store.Query(r.Vehicle, r.StartTime, r.StartTime)
	if err != nil || len(records) == 0 {
		return err
	}
	day := records[0]
	dayStr := eco.Day(day.Date).Format("2006-01-02")
	s.energy.WithLabelValues(r.Vehicle, dayStr, "fuel").Set(day.FuelKWh)
	s.energy.WithLabelValues(r.Vehicle, dayStr, "electric").Set(day.ElectricKWh)
	s.share.WithLabelValues(r.Vehicle, dayStr).Set(day.ElectricShare())
	s.co2.WithLabelValues(r.Vehicle, dayStr).Set(day.CO2Emitted(s.factor))
	s.kwhPerMi.WithLabelValues(r.Vehicle, dayStr).Set(day.KWhPerMi())
	return nil
}
