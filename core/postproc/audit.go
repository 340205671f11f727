package postproc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/drivesim/core/simdrive"
)

// TraceMiss compares the achieved trace with the prescribed one.
type TraceMiss struct {
	DistFrac float64  `json:"dist_frac"`
	TimeFrac float64  `json:"time_frac"`
	SpeedMPS float64  `json:"speed_mps"`
	Flagged  bool     `json:"flagged"`
	Reasons  []string `json:"reasons,omitempty"`
}

// traceMiss checks distance without time dilation, elapsed time with it, and
// the worst speed deviation in both cases.
func traceMiss(sd *simdrive.SimDrive) TraceMiss {
	st, p := sd.State(), sd.Params()
	cyc0, cyc := sd.BaseCycle(), sd.Cycle()
	n := cyc.Len()

	var tm TraceMiss
	if d0 := cyc0.TotalDistM(); d0 > 0 {
		tm.DistFrac = math.Abs(floats.Sum(st.DistM)-d0) / d0
	}
	if t0 := cyc0.TimeS[n-1]; t0 != 0 {
		tm.TimeFrac = math.Abs(cyc.TimeS[n-1]-t0) / t0
	}
	for i := range st.MPSAch {
		tm.SpeedMPS = max(tm.SpeedMPS, math.Abs(st.MPSAch[i]-cyc.MPS[i]))
	}

	if !p.MissedTraceCorrection && tm.DistFrac > p.TraceMissDistTol {
		tm.Reasons = append(tm.Reasons, fmt.Sprintf("distance off by %.4g > %g", tm.DistFrac, p.TraceMissDistTol))
	}
	if p.MissedTraceCorrection && tm.TimeFrac > p.TraceMissTimeTol {
		tm.Reasons = append(tm.Reasons, fmt.Sprintf("time off by %.4g > %g", tm.TimeFrac, p.TraceMissTimeTol))
	}
	if tm.SpeedMPS > p.TraceMissSpeedMPSTol {
		tm.Reasons = append(tm.Reasons, fmt.Sprintf("speed off by %.4g m/s > %g", tm.SpeedMPS, p.TraceMissSpeedMPSTol))
	}
	tm.Flagged = len(tm.Reasons) > 0
	return tm
}

// EnergyAudit balances the energy supplied over the run against every loss
// term. Error is the unexplained fraction of the supplied energy.
type EnergyAudit struct {
	DragKJ   float64 `json:"drag_kj"`
	AscentKJ float64 `json:"ascent_kj"`
	RRKJ     float64 `json:"rr_kj"`
	BrakeKJ  float64 `json:"brake_kj"`
	TransKJ  float64 `json:"trans_kj"`
	MCKJ     float64 `json:"mc_kj"`
	ESSEffKJ float64 `json:"ess_eff_kj"`
	AuxKJ    float64 `json:"aux_kj"`
	FCKJ     float64 `json:"fc_kj"`
	NetKJ    float64 `json:"net_kj"`
	KEKJ     float64 `json:"ke_kj"`
	Error    float64 `json:"energy_audit_error"`
	Flagged  bool    `json:"flagged"`
}

func energyAudit(sd *simdrive.SimDrive, s *Summary) EnergyAudit {
	st, v := sd.State(), sd.Vehicle()
	dt := sd.Cycle().DtSeries()
	n := len(dt)
	diffKJ := func(a, b []float64) float64 {
		d := make([]float64, n)
		floats.SubTo(d, a, b)
		return floats.Dot(d, dt)
	}

	loss := make([]float64, n)
	if v.MaxESSKWh > 0 && v.MaxESSKW > 0 {
		rte := math.Sqrt(v.ESSRoundTripEff)
		for i, e := range st.ESSKWOutAch {
			if e < 0 {
				loss[i] = -e - (-e * rte)
			} else {
				loss[i] = e/rte - e
			}
		}
	}

	a := EnergyAudit{
		DragKJ:   floats.Dot(st.CycDragKW, dt),
		AscentKJ: floats.Dot(st.CycAscentKW, dt),
		RRKJ:     floats.Dot(st.CycRrKW, dt),
		BrakeKJ:  floats.Dot(st.CycFricBrakeKW, dt),
		TransKJ:  diffKJ(st.TransKWInAch, st.TransKWOutAch),
		MCKJ:     diffKJ(st.MCElecKWInAch, st.MCMechKWOutAch),
		ESSEffKJ: floats.Dot(loss, dt),
		AuxKJ:    floats.Dot(st.AuxInKW, dt),
		FCKJ:     diffKJ(st.FCKWInAch, st.FCKWOutAch),
	}
	a.NetKJ = a.DragKJ + a.AscentKJ + a.RRKJ + a.BrakeKJ + a.TransKJ + a.MCKJ + a.ESSEffKJ + a.AuxKJ + a.FCKJ
	a.KEKJ = 0.5 * v.VehKg * (st.MPSAch[0]*st.MPSAch[0] - st.MPSAch[n-1]*st.MPSAch[n-1]) / 1000

	supplied := s.RoadwayChgKJ + s.ESSDischgKJ + s.FuelKJ + a.KEKJ
	if supplied != 0 {
		a.Error = (supplied - a.NetKJ) / supplied
	}
	a.Flagged = math.Abs(a.Error) > sd.Params().EnergyAuditErrTol
	return a
}
