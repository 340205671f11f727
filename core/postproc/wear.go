package postproc

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/integrate"

	"github.com/kilianp07/drivesim/core/model"
	"github.com/kilianp07/drivesim/core/simdrive"
)

// BatteryWear tracks charge events and the life they consume. AddKWh
// accumulates energy over a run of charging steps; a run's total becomes one
// depth-of-discharge cycle when charging stops.
type BatteryWear struct {
	AddKWh      []float64 `json:"add_kwh"`
	DODCycles   []float64 `json:"dod_cycs"`
	ESSPercDead []float64 `json:"ess_perc_dead"`
}

func batteryWear(curKWh []float64, v *model.VehicleSpec) BatteryWear {
	n := len(curKWh)
	w := BatteryWear{
		AddKWh:      make([]float64, n),
		DODCycles:   make([]float64, n),
		ESSPercDead: make([]float64, n),
	}
	for i := 1; i < n; i++ {
		if curKWh[i] > curKWh[i-1] {
			w.AddKWh[i] = curKWh[i] - curKWh[i-1] + w.AddKWh[i-1]
		}
		if w.AddKWh[i] == 0 && v.MaxESSKWh > 0 {
			w.DODCycles[i] = w.AddKWh[i-1] / v.MaxESSKWh
		}
	}
	b := v.ESSLifeCoefB
	for i, dod := range w.DODCycles {
		if dod != 0 && b != 0 {
			w.ESSPercDead[i] = math.Pow(v.ESSLifeCoefA, 1/b) / math.Pow(dod, 1/b)
		}
	}
	return w
}

// EnergyPair holds the time integrals of the positive and negative parts of
// one power series.
type EnergyPair struct {
	PosKJ float64 `json:"pos_kj"`
	NegKJ float64 `json:"neg_kj"`
}

// diagnostics integrates every kW series, keyed by the series name with its
// kW unit replaced by kJ.
func diagnostics(st *simdrive.State, t []float64) map[string]EnergyPair {
	out := make(map[string]EnergyPair)
	pos := make([]float64, len(t))
	neg := make([]float64, len(t))
	for _, s := range st.PowerSeries() {
		for i, x := range s.Values {
			pos[i], neg[i] = max(x, 0), min(x, 0)
		}
		key := strings.Replace(s.Name, "_kw", "_kj", 1)
		if len(t) < 2 {
			out[key] = EnergyPair{}
			continue
		}
		out[key] = EnergyPair{
			PosKJ: integrate.Trapezoidal(t, pos),
			NegKJ: integrate.Trapezoidal(t, neg),
		}
	}
	return out
}
