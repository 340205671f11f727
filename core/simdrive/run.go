package simdrive

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/drivesim/core/model"
)

// Run walks the cycle with the initial SOC policy of the powertrain. A nil
// initSOC selects the default: zero for conventional vehicles, max_soc for
// plug-ins and battery-electric vehicles, and charge balancing for HEVs. A
// value outside [0, 1] is logged and treated as nil.
func (s *SimDrive) Run(initSOC *float64) {
	if initSOC != nil && !(*initSOC >= 0 && *initSOC <= 1) {
		s.log.Warnf("initial soc %g is outside [0, 1]; using the %s default", *initSOC, s.veh.PowertrainType)
		initSOC = nil
	}

	s.walks = 0
	walk := func(soc float64) {
		s.Walk(soc)
		s.walks++
	}

	switch {
	case initSOC != nil:
		walk(*initSOC)
	case s.veh.PowertrainType == model.Conventional:
		walk(0)
	case s.veh.PowertrainType == model.HEV:
		s.balanceHEV(walk)
	default:
		walk(s.veh.MaxSOC)
	}
}

// balanceHEV repeats walks, each seeded with the previous final SOC, until
// the net battery energy is small relative to the fuel and roadway energy.
func (s *SimDrive) balanceHEV(walk func(float64)) {
	v, p := s.veh, s.params
	n := s.cyc0.Len()
	soc := (v.MaxSOC + v.MinSOC) / 2
	walk(soc)

	count := 1
	ratio := s.ESSToFuel()
	for ratio > p.ESSToFuelOkError && count < p.SimCountMax {
		soc = min(1, max(0, s.st.SOC[n-1]))
		walk(soc)
		ratio = s.ESSToFuel()
		count++
	}
	if p.Verbose && ratio > p.ESSToFuelOkError {
		s.log.Warnf("hev soc balance did not converge after %d walks: ess/fuel %.4g > %g", count, ratio, p.ESSToFuelOkError)
	}

	walk(min(1, max(0, s.st.SOC[n-1])))
}

// FuelKJ is the fuel energy drawn over the last walk.
func (s *SimDrive) FuelKJ() float64 {
	return floats.Dot(s.st.FSKWOutAch, s.cyc.DtSeries())
}

// RoadwayChargeKJ is the energy taken from roadway chargers over the last walk.
func (s *SimDrive) RoadwayChargeKJ() float64 {
	return floats.Dot(s.st.RoadwayChgKWOutAch, s.cyc.DtSeries())
}

// ESSDischargeKJ is the net battery energy released over the last walk.
func (s *SimDrive) ESSDischargeKJ() float64 {
	n := len(s.st.SOC)
	return -(s.st.SOC[n-1] - s.st.SOC[0]) * s.veh.MaxESSKWh * 3600
}

// ESSToFuel is the magnitude of net battery energy relative to fuel plus
// roadway energy. It is 1 when neither fuel nor roadway energy was used.
func (s *SimDrive) ESSToFuel() float64 {
	den := s.FuelKJ() + s.RoadwayChargeKJ()
	if den == 0 {
		return 1
	}
	return math.Abs(s.ESSDischargeKJ() / den)
}
