package simdrive

import (
	"math"

	"github.com/kilianp07/drivesim/core/model"
)

// Motor curve lookups. Every query is capped just below the curve's top so
// the floor index stays inside the table, and index 0 (zero efficiency) is
// never used as a divisor.

func (s *SimDrive) mcEffAtOut(kw float64) float64 {
	v := s.veh
	return v.MCOut.Y(v.MCOut.FloorIndexAtLeast(min(v.MaxMotorKW-0.01, kw), 1))
}

func (s *SimDrive) mcEffAtIn(kw float64) float64 {
	v := s.veh
	return v.MCIn.Y(v.MCIn.FloorIndexAtLeast(min(v.MCMaxElecInKW-0.01, kw), 1))
}

func (s *SimDrive) mcPeakPowerEff() float64 { return s.veh.MCOut.LastY() }

// auxSupplied reports whether aux load must be covered before propulsion
// power is combined: no electrical system, no electrical accessories, or the
// high acceleration tag.
func (s *SimDrive) auxSupplied(i int) bool {
	return s.veh.NoElecSys || s.veh.NoElecAux || s.st.HighAccFCOnTag[i]
}

// miscCalcs sets the accessory load, the low-SOC latch and the traction
// speed ceiling.
func (s *SimDrive) miscCalcs(i int) {
	st, v := s.st, s.veh
	switch {
	case i > s.auxLastNonzero:
		if v.NoElecAux {
			st.AuxInKW[i] = v.AuxKW / v.AltEff
		} else {
			st.AuxInKW[i] = v.AuxKW
		}
	default:
		st.AuxInKW[i] = s.aux[i]
	}

	st.ReachedBuff[i] = !(st.SOC[i-1] < v.MinSOC+v.PercHighAccBuf)
	st.HighAccFCOnTag[i] = st.SOC[i-1] < v.MinSOC || (st.HighAccFCOnTag[i-1] && !st.ReachedBuff[i])
	st.MaxTracMPS[i] = st.MPSAch[i-1] + v.MaxTracMPS2*s.cyc.DtS(i)
}

// componentLimits computes this step's power ceilings for every component
// and combines them into the transmission output bound.
func (s *SimDrive) componentLimits(i int) {
	st, v := s.st, s.veh
	dt := s.cyc.DtS(i)
	st.CurMaxRoadwayChgKW[i] = v.RoadwayChargeKW(s.cyc.RoadType[i])

	// Fuel storage and converter.
	st.CurMaxFsKWOut[i] = min(v.MaxFuelStorKW, st.FSKWOutAch[i-1]+v.MaxFuelStorKW/v.FuelStorSecsToPeakPwr*dt)
	st.FCTransLimKW[i] = st.FCKWOutAch[i-1] + v.MaxFuelConvKW/v.FuelConvSecsToPeakPwr*dt
	st.FCMaxKWIn[i] = min(st.CurMaxFsKWOut[i], v.MaxFuelStorKW)
	st.FCFsLimKW[i] = v.MaxFuelConvKW
	st.CurMaxFCKWOut[i] = min(v.MaxFuelConvKW, min(st.FCFsLimKW[i], st.FCTransLimKW[i]))

	// Battery.
	sqrtRTE := math.Sqrt(v.ESSRoundTripEff)
	if v.MaxESSKWh == 0 || st.SOC[i-1] < v.MinSOC {
		st.ESSCapLimDischgKW[i] = 0
	} else {
		st.ESSCapLimDischgKW[i] = v.MaxESSKWh * sqrtRTE * 3600 * (st.SOC[i-1] - v.MinSOC) / dt
	}
	st.CurMaxESSKWOut[i] = min(v.MaxESSKW, st.ESSCapLimDischgKW[i])

	if v.MaxESSKWh == 0 || v.MaxESSKW == 0 {
		st.ESSCapLimChgKW[i] = 0
	} else {
		st.ESSCapLimChgKW[i] = max((v.MaxSOC-st.SOC[i-1])*v.MaxESSKWh/sqrtRTE/(dt/3600), 0)
	}
	st.CurMaxESSChgKW[i] = min(st.ESSCapLimChgKW[i], v.MaxESSKW)

	// Electrical power available for propulsion, before and after the motor
	// controller input limit.
	if v.FCEffType == model.H2FC {
		st.CurMaxElecKW[i] = st.CurMaxFCKWOut[i] + st.CurMaxRoadwayChgKW[i] + st.CurMaxESSKWOut[i] - st.AuxInKW[i]
	} else {
		st.CurMaxElecKW[i] = st.CurMaxRoadwayChgKW[i] + st.CurMaxESSKWOut[i] - st.AuxInKW[i]
	}
	st.CurMaxAvailElecKW[i] = min(st.CurMaxElecKW[i], v.MCMaxElecInKW)

	// Motor.
	switch {
	case st.CurMaxElecKW[i] <= 0:
		st.MCElecInLimKW[i] = 0
	case st.CurMaxAvailElecKW[i] == v.MCIn.MaxX():
		st.MCElecInLimKW[i] = min(v.MCOut.LastX(), v.MaxMotorKW)
	default:
		k := v.MCIn.FloorIndex(min(v.MCIn.MaxX()-0.01, st.CurMaxAvailElecKW[i]))
		st.MCElecInLimKW[i] = min(v.MCOut.X(k), v.MaxMotorKW)
	}

	st.MCTransiLimKW[i] = math.Abs(st.MCMechKWOutAch[i-1]) + v.MaxMotorKW/v.MotorSecsToPeakPwr*dt
	stopStart := 1.0
	if v.StopStart {
		stopStart = 0
	}
	st.CurMaxMCKWOut[i] = max(min(min(st.MCElecInLimKW[i], st.MCTransiLimKW[i]), stopStart*v.MaxMotorKW), -v.MaxMotorKW)

	switch {
	case st.CurMaxMCKWOut[i] == 0:
		st.CurMaxMCElecKWIn[i] = 0
	case st.CurMaxMCKWOut[i] == v.MaxMotorKW:
		st.CurMaxMCElecKWIn[i] = st.CurMaxMCKWOut[i] / s.mcPeakPowerEff()
	default:
		st.CurMaxMCElecKWIn[i] = st.CurMaxMCKWOut[i] / s.mcEffAtOut(st.CurMaxMCKWOut[i])
	}

	if v.MaxMotorKW == 0 {
		st.ESSLimMCRegenPercKW[i] = 0
	} else {
		st.ESSLimMCRegenPercKW[i] = min((st.CurMaxESSChgKW[i]+st.AuxInKW[i])/v.MaxMotorKW, 1)
	}
	chgNet := st.CurMaxESSChgKW[i] - st.CurMaxRoadwayChgKW[i]
	switch {
	case st.CurMaxESSChgKW[i] == 0:
		st.ESSLimMCRegenKW[i] = 0
	case v.MaxMotorKW == chgNet:
		st.ESSLimMCRegenKW[i] = min(v.MaxMotorKW, st.CurMaxESSChgKW[i]/s.mcPeakPowerEff())
	default:
		st.ESSLimMCRegenKW[i] = min(v.MaxMotorKW, st.CurMaxESSChgKW[i]/s.mcEffAtOut(chgNet))
	}
	st.CurMaxMechMCKWIn[i] = min(st.ESSLimMCRegenKW[i], v.MaxMotorKW)

	// Traction and transmission.
	st.CurMaxTracKW[i] = v.WheelCoefOfFric * v.DriveAxleWeightFrac * v.VehKg * s.props.AGravMPS2 /
		(1 + v.VehCgM*v.WheelCoefOfFric/v.WheelBaseM) / 1e3 * st.MaxTracMPS[i]

	propulsion := st.CurMaxMCKWOut[i]
	if v.FCEffType != model.H2FC {
		propulsion += st.CurMaxFCKWOut[i]
	}
	if s.auxSupplied(i) {
		propulsion -= st.AuxInKW[i]
	} else {
		propulsion -= min(st.CurMaxElecKW[i], 0)
	}
	st.CurMaxTransKWOut[i] = min(propulsion*v.TransEff, st.CurMaxTracKW[i]/v.TransEff)
}
