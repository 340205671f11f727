package simdrive

import (
	"math"
	"slices"
)

// largeStepS is the step duration above which results lose accuracy.
const largeStepS = 5.0

// Walk runs one pass over the cycle starting from initSOC. It resets the
// state and the working cycle first, so repeated walks are independent.
func (s *SimDrive) Walk(initSOC float64) {
	n := s.cyc0.Len()
	s.cyc = s.cyc0.Clone()
	s.st = newState(n)
	st, v := s.st, s.veh

	st.CycMet[0] = true
	st.CurSOCTarget[0] = v.MaxSOC
	st.ESSCurKWh[0] = initSOC * v.MaxESSKWh
	st.SOC[0] = initSOC
	st.MPSAch[0] = s.cyc0.MPS[0]
	st.MPHAch[0] = s.cyc0.MPH(0)

	cum0 := cumulative(s.cyc0.DistM, n)
	var achieved float64
	for i := 1; i < n; i++ {
		s.solveStep(i)
		if s.params.MissedTraceCorrection && cum0[i] > 0 {
			s.dilate(i, cum0[i], achieved)
		}
		achieved += st.DistM[i]
	}

	if s.params.Verbose && slices.Max(s.cyc.DtSeries()) > largeStepS {
		s.log.Warnf("cycle %q has time steps longer than %gs; results lose accuracy", s.cyc.Name, largeStepS)
	}
}

// solveStep advances the state from i-1 to i. Quantities that accumulate
// within a step are cleared first so a re-solve depends only on i-1.
func (s *SimDrive) solveStep(i int) {
	s.st.NewtonIters[i] = 0
	s.st.FCKWOutAch[i] = 0

	s.miscCalcs(i)
	s.componentLimits(i)
	s.powerAndSpeed(i)
	s.hybridCalcs(i)
	s.forcedState(i)
	s.decisions(i)
	s.fcPower(i)
}

// dilate stretches step i of the working cycle until the cumulative achieved
// distance catches up with the baseline. prior is the achieved distance
// through i-1. The first factor covers the shortfall at the achieved speed;
// later factors follow a secant update. This is an approximation bounded by
// the dilation parameters, not a reproduction of a reference algorithm.
func (s *SimDrive) dilate(i int, target, prior float64) {
	st, p := s.st, s.params
	shortfall := func() float64 { return target - (prior + st.DistM[i]) }
	met := func() bool {
		return math.Abs(shortfall())/target < p.TimeDilationTol || s.cyc.MPS[i] == 0
	}
	if met() {
		return
	}

	base := slices.Clone(s.cyc.TimeS[i:])
	dt0 := s.cyc0.DtS(i)
	apply := func(factor float64) {
		for k := range base {
			s.cyc.TimeS[i+k] = base[k] + dt0*factor
		}
		s.solveStep(i)
	}
	clampFactor := func(f float64) float64 {
		return min(max(f, p.MinTimeDilation), p.MaxTimeDilation)
	}

	st.TraceMissIters[i]++
	d0 := shortfall()
	f0 := clampFactor(d0 / dt0 / st.MPSAch[i])
	factor := f0
	apply(factor)

	for !met() &&
		st.TraceMissIters[i] < p.MaxTraceMissIters &&
		factor < p.MaxTimeDilation && factor > p.MinTimeDilation {
		st.TraceMissIters[i]++
		factor = clampFactor(factor - f0*shortfall()/d0)
		apply(factor)
	}
}

// cumulative returns the running sum of f over [0, n).
func cumulative(f func(int) float64, n int) []float64 {
	out := make([]float64, n)
	var acc float64
	for i := range out {
		acc += f(i)
		out[i] = acc
	}
	return out
}
