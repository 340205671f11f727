package simdrive

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/drivesim/core/model"
)

// powerCalcs decomposes the road load for reaching speed mps at step i and
// compares the resulting transmission demand with the step's bound. It
// returns whether the demand fits.
func (s *SimDrive) powerCalcs(i int, mps float64) bool {
	st, v := s.st, s.veh
	dt := s.cyc.DtS(i)
	prev := st.MPSAch[i-1]
	rho := s.props.AirDensityKgPerM3
	g := s.props.AGravMPS2
	grade := math.Atan(s.cyc.Grade[i])
	avg := (prev + mps) / 2

	st.CycDragKW[i] = 0.5 * rho * v.DragCoef * v.FrontalAreaM2 * math.Pow(avg, 3) / 1e3
	st.CycAccelKW[i] = v.VehKg / (2 * dt) * (mps*mps - prev*prev) / 1e3
	st.CycAscentKW[i] = g * math.Sin(grade) * v.VehKg * avg / 1e3
	st.CycTracKWReq[i] = st.CycDragKW[i] + st.CycAccelKW[i] + st.CycAscentKW[i]
	st.SpareTracKW[i] = st.CurMaxTracKW[i] - st.CycTracKWReq[i]
	st.CycRrKW[i] = v.VehKg * g * v.WheelRrCoef * math.Cos(grade) * avg / 1e3
	st.CycWheelRadPerSec[i] = mps / v.WheelRadiusM
	prevRad := prev / v.WheelRadiusM
	st.CycTireInertiaKW[i] = (0.5*v.WheelInertiaKgM2*v.NumWheels*st.CycWheelRadPerSec[i]*st.CycWheelRadPerSec[i]/dt -
		0.5*v.WheelInertiaKgM2*v.NumWheels*prevRad*prevRad/dt) / 1e3
	st.CycWheelKWReq[i] = st.CycTracKWReq[i] + st.CycRrKW[i] + st.CycTireInertiaKW[i]

	st.RegenContrLimKWPerc[i] = v.MaxRegen / (1 + v.RegenA*math.Exp(-v.RegenB*((s.cyc.MPH(i)+prev*model.MPHPerMPS)/2+1)))
	st.CycRegenBrakeKW[i] = max(min(st.CurMaxMechMCKWIn[i]*v.TransEff, st.RegenContrLimKWPerc[i]*-st.CycWheelKWReq[i]), 0)
	st.CycFricBrakeKW[i] = -min(st.CycRegenBrakeKW[i]+st.CycWheelKWReq[i], 0)
	st.CycTransKWOutReq[i] = st.CycWheelKWReq[i] + st.CycFricBrakeKW[i]

	met := st.CycTransKWOutReq[i] <= st.CurMaxTransKWOut[i]
	if met {
		st.TransKWOutAch[i] = st.CycTransKWOutReq[i]
	} else {
		st.TransKWOutAch[i] = st.CurMaxTransKWOut[i]
	}
	if st.TransKWOutAch[i] > 0 {
		st.TransKWInAch[i] = st.TransKWOutAch[i] / v.TransEff
	} else {
		st.TransKWInAch[i] = st.TransKWOutAch[i] * v.TransEff
	}

	switch {
	case !met:
		st.MinMCKW2HelpFC[i] = max(st.CurMaxMCKWOut[i], -st.CurMaxMechMCKWIn[i])
	case v.FCEffType == model.H2FC:
		st.MinMCKW2HelpFC[i] = max(st.TransKWInAch[i], -st.CurMaxMechMCKWIn[i])
	default:
		st.MinMCKW2HelpFC[i] = max(st.TransKWInAch[i]-st.CurMaxFCKWOut[i], -st.CurMaxMechMCKWIn[i])
	}
	return met
}

// powerAndSpeed tries the cycle's target speed and, when the drivetrain
// cannot deliver it, solves for the achievable speed and redoes the power
// decomposition at that speed. The step stays marked as missed.
func (s *SimDrive) powerAndSpeed(i int) {
	st := s.st
	target := s.cyc.MPS[i]
	st.CycMet[i] = s.powerCalcs(i, target)
	if st.CycMet[i] {
		st.MPSAch[i] = target
	} else {
		st.MPSAch[i], st.NewtonIters[i] = s.achievableSpeed(i)
		s.powerCalcs(i, st.MPSAch[i])
	}
	st.MPHAch[i] = st.MPSAch[i] * model.MPHPerMPS
	st.DistM[i] = st.MPSAch[i] * s.cyc.DtS(i)
	st.DistMi[i] = st.DistM[i] / model.MPerMi
}

// achievableSpeed solves the cubic power balance for the speed at which the
// transmission demand equals the step's bound. It returns the iterate with
// the smallest residual and the number of iterations performed.
func (s *SimDrive) achievableSpeed(i int) (float64, int) {
	st, v := s.st, s.veh
	dt := s.cyc.DtS(i)
	prev := st.MPSAch[i-1]
	rhoCdA := s.props.AirDensityKgPerM3 * v.DragCoef * v.FrontalAreaM2
	g := s.props.AGravMPS2
	grade := math.Atan(s.cyc.Grade[i])
	r2 := v.WheelRadiusM * v.WheelRadiusM
	rr := 0.5 * v.VehKg * g * v.WheelRrCoef * math.Cos(grade)
	ascent := 0.5 * g * math.Sin(grade) * v.VehKg

	t3 := rhoCdA / 16 / 1e3
	t2 := (0.5*v.VehKg/dt + 3.0/16.0*rhoCdA*prev + 0.5*v.WheelInertiaKgM2*v.NumWheels/(dt*r2)) / 1e3
	t1 := (3.0/16.0*rhoCdA*prev*prev + rr + ascent) / 1e3
	t0 := (-0.5*v.VehKg*prev*prev/dt+rhoCdA/16*math.Pow(prev, 3)+rr*prev+ascent*prev-
		0.5*v.WheelInertiaKgM2*v.NumWheels*prev*prev/(dt*r2))/1e3 - st.CurMaxTransKWOut[i]

	return newtonCubic(t3, t2, t1, t0, max(1, prev), s.params.NewtonGain, s.params.NewtonMaxIter, s.params.NewtonXTol)
}

// newtonCubic runs damped Newton iteration on t3·x³ + t2·x² + t1·x + t0
// starting from x0. It stops when the relative step falls below xtol or
// maxIter iterates exist, and returns the iterate with the smallest
// absolute residual together with the iterate count.
func newtonCubic(t3, t2, t1, t0, x0, gain float64, maxIter int, xtol float64) (float64, int) {
	eval := func(x float64) (y, m float64) {
		y = t3*x*x*x + t2*x*x + t1*x + t0
		m = 3*t3*x*x + 2*t2*x + t1
		return y, m
	}
	x := x0
	y, m := eval(x)
	xs := []float64{x}
	absY := []float64{math.Abs(y)}
	iter := 1
	converged := false
	for iter < maxIter && !converged {
		b := y - x*m
		next := x*(1-gain) - gain*b/m
		y, m = eval(next)
		xs = append(xs, next)
		absY = append(absY, math.Abs(y))
		converged = math.Abs((next-x)/x) < xtol
		x = next
		iter++
	}
	return xs[floats.MinIdx(absY)], iter
}
