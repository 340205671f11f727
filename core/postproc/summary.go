// Package postproc turns a finished simulation into scalar results, an energy
// audit, trace-miss diagnostics, battery wear and per-series energy totals.
// It only reads the simulation state.
package postproc

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/drivesim/core/model"
	"github.com/kilianp07/drivesim/core/simdrive"
)

// Summary is the post-processed result of one run.
type Summary struct {
	Vehicle        string `json:"vehicle"`
	Cycle          string `json:"cycle"`
	PowertrainType string `json:"powertrain_type"`
	Steps          int    `json:"steps"`
	Walks          int    `json:"walks"`

	MPGGE            float64 `json:"mpgge"`
	FuelKJ           float64 `json:"fuel_kj"`
	RoadwayChgKJ     float64 `json:"roadway_chg_kj"`
	ESSDischgKJ      float64 `json:"ess_dischg_kj"`
	BatteryKWhPerMi  float64 `json:"battery_kwh_per_mi"`
	ElectricKWhPerMi float64 `json:"electric_kwh_per_mi"`
	MPGGEElec        float64 `json:"mpgge_elec"`
	ESS2FuelKWh      float64 `json:"ess2fuel_kwh"`
	InitialSOC       float64 `json:"initial_soc"`
	FinalSOC         float64 `json:"final_soc"`

	DistM           float64 `json:"dist_m"`
	DistMi          float64 `json:"dist_mi"`
	DurationS       float64 `json:"duration_s"`
	AvgSpeedMPH     float64 `json:"avg_speed_mph"`
	AvgAccelMPHPS   float64 `json:"avg_accel_mphps"`
	ZeroToSixtyS    float64 `json:"zero_to_sixty_s"`
	MaxTraceMissMPH float64 `json:"max_trace_miss_mph"`
	MaxNewtonIters  int     `json:"max_newton_iters"`
	MissedSteps     int     `json:"missed_steps"`

	TraceMiss   TraceMiss             `json:"trace_miss"`
	Audit       EnergyAudit           `json:"energy_audit"`
	Wear        BatteryWear           `json:"battery_wear"`
	Diagnostics map[string]EnergyPair `json:"diagnostics"`
}

// Summarize post-processes the most recent walk of sd. When the run's
// parameters are verbose, trace misses and audit errors above tolerance are
// logged through the run's logger.
func Summarize(sd *simdrive.SimDrive) *Summary {
	st, v, cyc := sd.State(), sd.Vehicle(), sd.Cycle()
	n := sd.Len()

	s := &Summary{
		Vehicle:        v.Name,
		Cycle:          sd.BaseCycle().Name,
		PowertrainType: v.PowertrainType.String(),
		Steps:          n,
		Walks:          sd.Walks(),
		FuelKJ:         sd.FuelKJ(),
		RoadwayChgKJ:   sd.RoadwayChargeKJ(),
		ESSDischgKJ:    sd.ESSDischargeKJ(),
		InitialSOC:     st.SOC[0],
		FinalSOC:       st.SOC[n-1],
		DistM:          floats.Sum(st.DistM),
		DistMi:         floats.Sum(st.DistMi),
		DurationS:      cyc.Duration(),
	}

	if fuelKWh := floats.Sum(st.FSKWhOutAch); fuelKWh > 0 {
		s.MPGGE = s.DistMi / (fuelKWh / model.KWhPerGGE)
	}
	if den := s.FuelKJ + s.RoadwayChgKJ; den == 0 {
		s.ESS2FuelKWh = 1
	} else {
		s.ESS2FuelKWh = s.ESSDischgKJ / den
	}
	if s.DistMi > 0 {
		s.BatteryKWhPerMi = s.ESSDischgKJ / 3600 / s.DistMi
		s.ElectricKWhPerMi = (s.RoadwayChgKJ + s.ESSDischgKJ) / 3600 / s.DistMi
	}
	galPerMi := s.ElectricKWhPerMi / model.KWhPerGGE
	if s.MPGGE != 0 {
		galPerMi += 1 / s.MPGGE
	}
	if galPerMi > 0 {
		s.MPGGEElec = 1 / galPerMi
	}

	if s.DurationS > 0 {
		s.AvgSpeedMPH = s.DistMi / (s.DurationS / 3600)
	}
	s.AvgAccelMPHPS = avgPositiveAccel(st.MPHAch, cyc.TimeS)
	s.ZeroToSixtyS = zeroToSixty(st.MPHAch, cyc.TimeS)

	var maxMiss float64
	for i := range st.MPSAch {
		maxMiss = max(maxMiss, math.Abs(cyc.MPS[i]-st.MPSAch[i]))
		if !st.CycMet[i] {
			s.MissedSteps++
		}
	}
	s.MaxTraceMissMPH = model.MPHPerMPS * maxMiss
	s.MaxNewtonIters = slices.Max(st.NewtonIters)

	s.TraceMiss = traceMiss(sd)
	s.Audit = energyAudit(sd, s)
	s.Wear = batteryWear(st.ESSCurKWh, v)
	s.Diagnostics = diagnostics(st, cyc.TimeS)

	p := sd.Params()
	if p.Verbose {
		log := sd.Logger()
		for _, r := range s.TraceMiss.Reasons {
			log.Warnf("trace miss on %q: %s", s.Cycle, r)
		}
		if s.Audit.Flagged {
			log.Warnf("energy audit error %.4g exceeds %g on %q", s.Audit.Error, p.EnergyAuditErrTol, s.Cycle)
		}
	}
	return s
}

// avgPositiveAccel is the mean of the positive sample-to-sample
// accelerations, zero when there are none.
func avgPositiveAccel(mph, t []float64) float64 {
	var pos []float64
	for i := 1; i < len(mph); i++ {
		if a := (mph[i] - mph[i-1]) / (t[i] - t[i-1]); a > 0 {
			pos = append(pos, a)
		}
	}
	if len(pos) == 0 {
		return 0
	}
	return stat.Mean(pos, nil)
}

// zeroToSixty interpolates the time at which the achieved speed first reaches
// 60 mph, or returns 0 when it never does.
func zeroToSixty(mph, t []float64) float64 {
	const target = 60.0
	if slices.Max(mph) <= target {
		return 0
	}
	for i := 1; i < len(mph); i++ {
		if mph[i] >= target && mph[i-1] < target {
			frac := (target - mph[i-1]) / (mph[i] - mph[i-1])
			return t[i-1] + frac*(t[i]-t[i-1])
		}
	}
	return t[0]
}
