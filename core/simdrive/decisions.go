package simdrive

import (
	"math"

	"github.com/kilianp07/drivesim/core/model"
)

// capESSIfFCReq bounds a battery request made while the fuel converter runs
// by the pack and motor input limits.
func capESSIfFCReq(s *SimDrive, i int, kw float64) float64 {
	st, v := s.st, s.veh
	aux := st.AuxInKW[i]
	return min(st.CurMaxESSKWOut[i],
		min(v.MCMaxElecInKW+aux,
			min(st.CurMaxMCElecKWIn[i]+aux, max(-st.CurMaxESSChgKW[i], kw))))
}

// essIfFCReqRules pick the battery power when the fuel converter must run.
var essIfFCReqRules = []rule{
	{rank: 1, name: "accel_buffer_above_regen_buffer",
		when: func(s *SimDrive, i int) bool { return s.st.AccelBufferSOC[i] > s.st.RegenBufferSOC[i] },
		then: func(s *SimDrive, i int) float64 { return capESSIfFCReq(s, i, s.st.ESSAccelRegenDischgKW[i]) }},
	{rank: 2, name: "regen_buffer_discharge",
		when: func(s *SimDrive, i int) bool { return s.st.ESSRegenBufferDischgKW[i] > 0 },
		then: func(s *SimDrive, i int) float64 {
			st := s.st
			kw := min(st.ESSAccelRegenDischgKW[i],
				min(st.MCElecInLimKW[i]+st.AuxInKW[i], max(st.ESSRegenBufferDischgKW[i], st.ESSDesiredKW4FCEff[i])))
			return capESSIfFCReq(s, i, kw)
		}},
	{rank: 3, name: "accel_buffer_charge",
		when: func(s *SimDrive, i int) bool { return s.st.ESSAccelBufferChgKW[i] > 0 },
		then: func(s *SimDrive, i int) float64 {
			st := s.st
			kw := max(-st.MaxESSRegenBufferChgKW[i], min(-st.ESSAccelBufferChgKW[i], st.ESSDesiredKW4FCEff[i]))
			return capESSIfFCReq(s, i, kw)
		}},
	{rank: 4, name: "discharge_toward_fc_peak",
		when: func(s *SimDrive, i int) bool { return s.st.ESSDesiredKW4FCEff[i] > 0 },
		then: func(s *SimDrive, i int) float64 {
			st := s.st
			return capESSIfFCReq(s, i, min(st.ESSDesiredKW4FCEff[i], st.MaxESSAccelBufferDischgKW[i]))
		}},
	{rank: 5, name: "charge_toward_fc_peak",
		then: func(s *SimDrive, i int) float64 {
			st := s.st
			return capESSIfFCReq(s, i, max(st.ESSDesiredKW4FCEff[i], -st.MaxESSRegenBufferChgKW[i]))
		}},
}

// mcMechRules settle the motor's mechanical output.
var mcMechRules = []rule{
	{rank: 1, name: "no_motor",
		when: func(s *SimDrive, i int) bool { return s.veh.MaxMotorKW == 0 },
		then: zeroKW},
	{rank: 2, name: "forced_fc",
		when: func(s *SimDrive, i int) bool {
			st, v := s.st, s.veh
			hybrid := v.PowertrainType == model.HEV || v.PowertrainType == model.PHEV
			return st.FCForcedOn[i] && st.CanPowerAllElec[i] && hybrid && v.FCEffType != model.H2FC
		},
		then: func(s *SimDrive, i int) float64 { return s.st.MCMechKW4ForcedFC[i] }},
	{rank: 3, name: "braking",
		when: func(s *SimDrive, i int) bool { return s.st.TransKWInAch[i] <= 0 },
		then: func(s *SimDrive, i int) float64 {
			st, v := s.st, s.veh
			regen := -min(st.CurMaxMechMCKWIn[i], -st.TransKWInAch[i])
			switch {
			case v.FCEffType != model.H2FC && v.MaxFuelConvKW > 0 && st.CanPowerAllElec[i]:
				return regen
			case v.FCEffType != model.H2FC && v.MaxFuelConvKW > 0:
				return min(regen, max(-st.CurMaxFCKWOut[i], st.MCKWIfFCIsReq[i]))
			default:
				return min(regen, -st.TransKWInAch[i])
			}
		}},
	{rank: 4, name: "all_electric",
		when: func(s *SimDrive, i int) bool { return s.st.CanPowerAllElec[i] },
		then: func(s *SimDrive, i int) float64 { return s.st.TransKWInAch[i] }},
	{rank: 5, name: "assist_fc",
		then: func(s *SimDrive, i int) float64 { return max(s.st.MinMCKW2HelpFC[i], s.st.MCKWIfFCIsReq[i]) }},
}

// essOutRules settle the achieved battery power.
var essOutRules = []rule{
	{rank: 1, name: "no_battery",
		when: func(s *SimDrive, i int) bool { return s.veh.MaxESSKW == 0 || s.veh.MaxESSKWh == 0 },
		then: zeroKW},
	{rank: 2, name: "fuel_cell",
		when: func(s *SimDrive, i int) bool { return s.veh.FCEffType == model.H2FC },
		then: func(s *SimDrive, i int) float64 {
			st := s.st
			need := st.MCElecKWInAch[i] + st.AuxInKW[i] - st.RoadwayChgKWOutAch[i]
			if st.TransKWOutAch[i] >= 0 {
				return min(st.CurMaxESSKWOut[i], min(need,
					max(st.MinESSKW2HelpFC[i], max(st.ESSDesiredKW4FCEff[i], st.ESSAccelRegenDischgKW[i]))))
			}
			return need
		}},
	{rank: 3, name: "aux_on_fc",
		when: func(s *SimDrive, i int) bool { return s.st.HighAccFCOnTag[i] || s.veh.NoElecAux },
		then: func(s *SimDrive, i int) float64 {
			return s.st.MCElecKWInAch[i] - s.st.RoadwayChgKWOutAch[i]
		}},
	{rank: 4, name: "aux_on_battery",
		then: func(s *SimDrive, i int) float64 {
			st := s.st
			return st.MCElecKWInAch[i] + st.AuxInKW[i] - st.RoadwayChgKWOutAch[i]
		}},
}

// decisions resolves the motor, roadway charger and battery powers, then
// integrates battery energy and the fuel converter on-time.
func (s *SimDrive) decisions(i int) {
	st, v := s.st, s.veh
	dt := s.cyc.DtS(i)
	aux := st.AuxInKW[i]

	gap := -st.MCElecInKWForMaxFCEff[i] - st.CurMaxRoadwayChgKW[i]
	if gap > 0 {
		st.ESSDesiredKW4FCEff[i] = gap * v.ESSDischgToFCMaxEffPerc
	} else {
		st.ESSDesiredKW4FCEff[i] = gap * v.ESSChgToFCMaxEffPerc
	}

	st.ESSKWIfFCIsReq[i], _ = decide(essIfFCReqRules, s, i)
	st.ERKWIfFCIsReq[i] = max(0, min(st.CurMaxRoadwayChgKW[i],
		min(st.CurMaxMechMCKWIn[i], st.ESSKWIfFCIsReq[i]-st.MCElecInLimKW[i]+aux)))
	st.MCElecKWInIfFCIsReq[i] = st.ESSKWIfFCIsReq[i] + st.ERKWIfFCIsReq[i] - aux
	st.MCKWIfFCIsReq[i] = s.mcMechForElec(st.MCElecKWInIfFCIsReq[i])

	st.MCMechKWOutAch[i], _ = decide(mcMechRules, s, i)
	st.MCElecKWInAch[i] = s.mcElecForMech(st.MCMechKWOutAch[i])

	switch {
	case st.CurMaxRoadwayChgKW[i] == 0:
		st.RoadwayChgKWOutAch[i] = 0
	case v.FCEffType == model.H2FC:
		st.RoadwayChgKWOutAch[i] = max(0, max(st.MCElecKWInAch[i],
			max(st.MaxESSRegenBufferChgKW[i], max(st.ESSRegenBufferDischgKW[i], st.CurMaxRoadwayChgKW[i]))))
	case st.CanPowerAllElec[i]:
		st.RoadwayChgKWOutAch[i] = st.ERAEKWOut[i]
	default:
		st.RoadwayChgKWOutAch[i] = st.ERKWIfFCIsReq[i]
	}

	st.MinESSKW2HelpFC[i] = st.MCElecKWInAch[i] + aux - st.CurMaxFCKWOut[i] - st.RoadwayChgKWOutAch[i]
	st.ESSKWOutAch[i], _ = decide(essOutRules, s, i)

	if v.NoElecSys {
		st.ESSCurKWh[i] = 0
	} else {
		st.ESSCurKWh[i] = st.ESSCurKWh[i-1] - st.ESSKWOutAch[i]*dt/3600*math.Sqrt(v.ESSRoundTripEff)
	}
	if v.MaxESSKWh == 0 {
		st.SOC[i] = 0
	} else {
		st.SOC[i] = st.ESSCurKWh[i] / v.MaxESSKWh
	}

	// FCKWOutAch[i] is still zero here; the on-time resets only for a step
	// that runs all-electric without being forced on.
	if st.CanPowerAllElec[i] && !st.FCForcedOn[i] && st.FCKWOutAch[i] == 0 {
		st.FCTimeOn[i] = 0
	} else {
		st.FCTimeOn[i] = st.FCTimeOn[i-1] + dt
	}
}

// mcMechForElec converts motor electrical input to mechanical output, or the
// reverse flow when regenerating.
func (s *SimDrive) mcMechForElec(e float64) float64 {
	v := s.veh
	switch {
	case v.NoElecSys || e == 0:
		return 0
	case e > 0:
		if e == v.MCMaxElecInKW {
			return e * s.mcPeakPowerEff()
		}
		return e * s.mcEffAtIn(e)
	default:
		if -e == v.MCMaxElecInKW {
			return e / s.mcPeakPowerEff()
		}
		return e / s.mcEffAtIn(-e)
	}
}

// mcElecForMech converts motor mechanical output to electrical input.
func (s *SimDrive) mcElecForMech(m float64) float64 {
	v := s.veh
	switch {
	case m == 0:
		return 0
	case m < 0:
		if -m == v.MCMaxElecInKW {
			return m * s.mcPeakPowerEff()
		}
		return m * s.mcEffAtIn(-m)
	default:
		if m == v.MaxMotorKW {
			return m / s.mcPeakPowerEff()
		}
		return m / s.mcEffAtOut(m)
	}
}

// fcPower assigns the fuel converter the demand the motor left over, looks up
// its efficiency and draws the matching fuel.
func (s *SimDrive) fcPower(i int) {
	st, v := s.st, s.veh
	switch {
	case v.MaxFuelConvKW == 0:
		st.FCKWOutAch[i] = 0
	case v.FCEffType == model.H2FC:
		st.FCKWOutAch[i] = min(st.CurMaxFCKWOut[i], max(0,
			st.MCElecKWInAch[i]+st.AuxInKW[i]-st.ESSKWOutAch[i]-st.RoadwayChgKWOutAch[i]))
	case s.auxSupplied(i):
		st.FCKWOutAch[i] = min(st.CurMaxFCKWOut[i], max(0,
			st.TransKWInAch[i]-st.MCMechKWOutAch[i]+st.AuxInKW[i]))
	default:
		st.FCKWOutAch[i] = min(st.CurMaxFCKWOut[i], max(0, st.TransKWInAch[i]-st.MCMechKWOutAch[i]))
	}

	out := st.FCKWOutAch[i]
	if v.MaxFuelConvKW == 0 || out == 0 {
		st.FCKWOutAchPct[i] = 0
		st.FCKWInAch[i] = 0
	} else {
		st.FCKWOutAchPct[i] = out / v.MaxFuelConvKW
		eff := v.FC.Y(v.FC.FloorIndex(min(out, v.MaxFuelConvKW)))
		if eff != 0 {
			st.FCKWInAch[i] = out / eff
		} else {
			st.FCKWInAch[i] = 0
		}
	}
	st.FSKWOutAch[i] = st.FCKWInAch[i]
	st.FSKWhOutAch[i] = st.FSKWOutAch[i] * s.cyc.DtS(i) / 3600
}
