package simdrive

import (
	"math"

	"github.com/kilianp07/drivesim/core/model"
)

// accelRegenRules merges the regen and acceleration buffers into one
// battery assist power.
var accelRegenRules = []rule{
	{rank: 1, name: "regen_buffer_below_accel_buffer",
		when: func(s *SimDrive, i int) bool { return s.st.RegenBufferSOC[i] < s.st.AccelBufferSOC[i] },
		then: func(s *SimDrive, i int) float64 {
			st := s.st
			mid := (st.RegenBufferSOC[i] + st.AccelBufferSOC[i]) / 2
			kw := (st.SOC[i-1] - mid) * s.veh.MaxESSKWh * 3600 / s.cyc.DtS(i)
			return max(min(kw, st.CurMaxESSKWOut[i]), -st.CurMaxESSChgKW[i])
		}},
	{rank: 2, name: "soc_above_regen_buffer",
		when: func(s *SimDrive, i int) bool { return s.st.SOC[i-1] > s.st.RegenBufferSOC[i] },
		then: func(s *SimDrive, i int) float64 {
			st := s.st
			return max(min(st.ESSRegenBufferDischgKW[i], st.CurMaxESSKWOut[i]), -st.CurMaxESSChgKW[i])
		}},
	{rank: 3, name: "soc_below_accel_buffer",
		when: func(s *SimDrive, i int) bool { return s.st.SOC[i-1] < s.st.AccelBufferSOC[i] },
		then: func(s *SimDrive, i int) float64 {
			st := s.st
			return max(min(-st.ESSAccelBufferChgKW[i], st.CurMaxESSKWOut[i]), -st.CurMaxESSChgKW[i])
		}},
	{rank: 4, name: "neutral",
		then: func(s *SimDrive, i int) float64 {
			st := s.st
			return max(min(0, st.CurMaxESSKWOut[i]), -st.CurMaxESSChgKW[i])
		}},
}

// allElecRules picks the battery power wanted when the step can run on
// electricity alone.
var allElecRules = []rule{
	{rank: 1, name: "demand_below_aux",
		when: func(s *SimDrive, i int) bool { return s.st.TransKWInAch[i] < s.st.AuxInKW[i] },
		then: func(s *SimDrive, i int) float64 { return s.st.AuxInKW[i] + s.st.TransKWInAch[i] }},
	{rank: 2, name: "regen_buffer_below_accel_buffer",
		when: func(s *SimDrive, i int) bool { return s.st.RegenBufferSOC[i] < s.st.AccelBufferSOC[i] },
		then: func(s *SimDrive, i int) float64 { return s.st.ESSAccelRegenDischgKW[i] }},
	{rank: 3, name: "soc_above_regen_buffer",
		when: func(s *SimDrive, i int) bool { return s.st.SOC[i-1] > s.st.RegenBufferSOC[i] },
		then: func(s *SimDrive, i int) float64 { return s.st.ESSRegenBufferDischgKW[i] }},
	{rank: 4, name: "soc_below_accel_buffer",
		when: func(s *SimDrive, i int) bool { return s.st.SOC[i-1] < s.st.AccelBufferSOC[i] },
		then: func(s *SimDrive, i int) float64 { return -s.st.ESSAccelBufferChgKW[i] }},
	{rank: 5, name: "cover_demand",
		then: func(s *SimDrive, i int) float64 {
			st := s.st
			return st.TransKWInAch[i] + st.AuxInKW[i] - st.CurMaxRoadwayChgKW[i]
		}},
}

// hybridCalcs derives the SOC buffers, the battery assist they call for and
// whether the step can run all-electric.
func (s *SimDrive) hybridCalcs(i int) {
	st, v := s.st, s.veh
	dt := s.cyc.DtS(i)
	mps := s.cyc.MPS[i]
	kwPerSOC := v.MaxESSKWh * 3600 / dt

	switch {
	case v.NoElecSys:
		st.RegenBufferSOC[i] = 0
	case v.ChargingOn:
		st.RegenBufferSOC[i] = max(v.MaxSOC-v.MaxRegenKWh/v.MaxESSKWh, (v.MaxSOC+v.MinSOC)/2)
	default:
		st.RegenBufferSOC[i] = max((v.MaxESSKWh*v.MaxSOC-
			0.5*v.VehKg*mps*mps/1000/3600*v.MCPeakEff*v.MaxRegen)/v.MaxESSKWh, v.MinSOC)
		st.ESSRegenBufferDischgKW[i] = min(st.CurMaxESSKWOut[i], max(0, (st.SOC[i-1]-st.RegenBufferSOC[i])*kwPerSOC))
		st.MaxESSRegenBufferChgKW[i] = min(max(0, (st.RegenBufferSOC[i]-st.SOC[i-1])*kwPerSOC), st.CurMaxESSChgKW[i])
	}

	if v.NoElecSys {
		st.AccelBufferSOC[i] = 0
	} else {
		buf := v.MaxAccelBufferMPH / model.MPHPerMPS
		useable := min(v.MaxAccelBufferPercOfUseableSOC*(v.MaxSOC-v.MinSOC), v.MaxRegenKWh/v.MaxESSKWh)
		st.AccelBufferSOC[i] = min(max((buf*buf-mps*mps)/(buf*buf)*useable*v.MaxESSKWh/v.MaxESSKWh+v.MinSOC, v.MinSOC), v.MaxSOC)
		st.ESSAccelBufferChgKW[i] = max(0, (st.AccelBufferSOC[i]-st.SOC[i-1])*kwPerSOC)
		st.MaxESSAccelBufferDischgKW[i] = min(max(0, (st.SOC[i-1]-st.AccelBufferSOC[i])*kwPerSOC), st.CurMaxESSKWOut[i])
	}

	st.ESSAccelRegenDischgKW[i], _ = decide(accelRegenRules, s, i)

	// Motor electrical power that would move the fuel converter to its peak
	// efficiency point.
	st.FCKWGapFrEff[i] = math.Abs(st.TransKWOutAch[i] - v.MaxFCEffKW)
	gap := st.FCKWGapFrEff[i]
	switch {
	case v.NoElecSys:
		st.MCElecInKWForMaxFCEff[i] = 0
	case st.TransKWOutAch[i] < v.MaxFCEffKW:
		if gap == v.MaxMotorKW {
			st.MCElecInKWForMaxFCEff[i] = -gap / s.mcPeakPowerEff()
		} else {
			st.MCElecInKWForMaxFCEff[i] = -gap / s.mcEffAtOut(gap)
		}
	case gap == v.MaxMotorKW:
		st.MCElecInKWForMaxFCEff[i] = v.MCIn.LastX()
	default:
		st.MCElecInKWForMaxFCEff[i] = v.MCIn.X(v.MCOut.FloorIndex(min(v.MaxMotorKW-0.01, gap)))
	}

	transIn := st.TransKWInAch[i]
	switch {
	case v.NoElecSys || transIn <= 0:
		st.ElecKWReq4AE[i] = 0
	case transIn == v.MaxMotorKW:
		st.ElecKWReq4AE[i] = transIn/s.mcPeakPowerEff() + st.AuxInKW[i]
	default:
		st.ElecKWReq4AE[i] = transIn/s.mcEffAtOut(transIn) + st.AuxInKW[i]
	}

	st.PrevFCTimeOn[i] = st.FCTimeOn[i-1]

	// The 1e-6 margins absorb round-off seen on real cycles.
	can := st.AccelBufferSOC[i] < st.SOC[i-1] &&
		transIn-1e-6 <= st.CurMaxMCKWOut[i] &&
		(st.ElecKWReq4AE[i] < st.CurMaxElecKW[i] || v.MaxFuelConvKW == 0)
	if v.MaxFuelConvKW != 0 {
		can = can && (s.cyc.MPH(i)-1e-6 <= v.MPHFCOn || v.ChargingOn) &&
			st.ElecKWReq4AE[i] <= v.KWDemandFCOn
	}
	st.CanPowerAllElec[i] = can

	if can {
		st.DesiredESSKWOutForAE[i], _ = decide(allElecRules, s, i)
		st.ESSAEKWOut[i] = max(-st.CurMaxESSChgKW[i],
			max(-st.MaxESSRegenBufferChgKW[i],
				max(min(0, st.CurMaxRoadwayChgKW[i]-transIn+st.AuxInKW[i]),
					min(st.CurMaxESSKWOut[i], st.DesiredESSKWOutForAE[i]))))
	} else {
		st.DesiredESSKWOutForAE[i] = 0
		st.ESSAEKWOut[i] = 0
	}
	st.ERAEKWOut[i] = min(max(0, transIn+st.AuxInKW[i]-st.ESSAEKWOut[i]), st.CurMaxRoadwayChgKW[i])
}

// Forced fuel converter states.
const (
	ForcedNone          = 1 // not forced, or cannot run all-electric
	ForcedRegen         = 2 // transmission demand negative
	ForcedAtPeakEff     = 3 // demand equals the peak efficiency point
	ForcedBelowIdle     = 4 // demand below idle power while accelerating
	ForcedBelowPeakEff  = 5 // peak efficiency point above demand
	ForcedAbovePeakEff  = 6 // demand above peak efficiency point
	forcedStateFallback = ForcedAbovePeakEff
)

type forcedRule struct {
	state int
	when  func(s *SimDrive, i int) bool
	mech  func(s *SimDrive, i int) float64
}

func zeroKW(*SimDrive, int) float64 { return 0 }

// forcedRules classify the step in priority order; the last state applies
// when no guard holds.
var forcedRules = []forcedRule{
	{ForcedNone,
		func(s *SimDrive, i int) bool { return !s.st.FCForcedOn[i] || !s.st.CanPowerAllElec[i] },
		zeroKW},
	{ForcedRegen,
		func(s *SimDrive, i int) bool { return s.st.TransKWInAch[i] < 0 },
		func(s *SimDrive, i int) float64 { return s.st.TransKWInAch[i] }},
	{ForcedAtPeakEff,
		func(s *SimDrive, i int) bool { return s.veh.MaxFCEffKW == s.st.TransKWInAch[i] },
		zeroKW},
	{ForcedBelowIdle,
		func(s *SimDrive, i int) bool {
			return s.veh.IdleFCKW > s.st.TransKWInAch[i] && s.st.CycAccelKW[i] >= 0
		},
		func(s *SimDrive, i int) float64 { return s.st.TransKWInAch[i] - s.veh.IdleFCKW }},
	{ForcedBelowPeakEff,
		func(s *SimDrive, i int) bool { return s.veh.MaxFCEffKW > s.st.TransKWInAch[i] },
		zeroKW},
}

// forcedState decides whether the fuel converter is held on by its minimum
// on-time and, if so, the motor power that moves it to its target point.
func (s *SimDrive) forcedState(i int) {
	st := s.st
	prevOn := st.PrevFCTimeOn[i]
	st.FCForcedOn[i] = prevOn > 0 && prevOn < s.veh.MinFCTimeOn-s.cyc.DtS(i)

	for _, r := range forcedRules {
		if r.when(s, i) {
			st.FCForcedState[i] = r.state
			st.MCMechKW4ForcedFC[i] = r.mech(s, i)
			return
		}
	}
	st.FCForcedState[i] = forcedStateFallback
	st.MCMechKW4ForcedFC[i] = st.TransKWInAch[i] - s.veh.MaxFCEffKW
}
