package vehicle

import "github.com/kilianp07/drivesim/core/model"

// Fuel converter map: efficiency at fractions of peak output power.
var fcPwrOutPerc = []float64{0, 0.005, 0.015, 0.04, 0.06, 0.10, 0.14, 0.20, 0.40, 0.60, 0.80, 1.00}

var fcEffMaps = map[model.FuelConverterType][]float64{
	model.SI:       {0.10, 0.12, 0.16, 0.22, 0.28, 0.33, 0.35, 0.36, 0.35, 0.34, 0.32, 0.30},
	model.Atkinson: {0.10, 0.12, 0.28, 0.35, 0.375, 0.39, 0.40, 0.40, 0.38, 0.37, 0.36, 0.35},
	model.Diesel:   {0.10, 0.14, 0.20, 0.26, 0.32, 0.39, 0.41, 0.42, 0.41, 0.38, 0.36, 0.34},
	model.H2FC:     {0.10, 0.30, 0.36, 0.45, 0.50, 0.56, 0.58, 0.60, 0.58, 0.57, 0.55, 0.54},
	model.HDDiesel: {0.10, 0.14, 0.20, 0.26, 0.32, 0.39, 0.41, 0.42, 0.41, 0.38, 0.36, 0.34},
}

// Motor maps: efficiency at fractions of peak motor power for large and small
// baseline machines.
var (
	mcPwrOutPerc     = []float64{0.00, 0.02, 0.04, 0.06, 0.08, 0.10, 0.20, 0.40, 0.60, 0.80, 1.00}
	largeBaselineEff = []float64{0.83, 0.85, 0.87, 0.89, 0.90, 0.91, 0.93, 0.94, 0.94, 0.93, 0.92}
	smallBaselineEff = []float64{0.12, 0.16, 0.21, 0.29, 0.35, 0.42, 0.75, 0.92, 0.93, 0.93, 0.92}
)

const (
	defaultMCMaxEff = 0.95
	mcSmallKW       = 7.5
	mcLargeKW       = 75.0
	mcResolution    = 101
	regenA          = 500.0
	regenB          = 0.99
	regenRefMPS     = 27.0
)

// fcPercOutArray is the fine output grid the fuel converter map is resampled
// onto: 0.1% steps to 3%, 0.5% steps to 7%, 1% steps to 60%, 5% steps to 100%.
func fcPercOutArray() []float64 {
	var out []float64
	appendRange := func(lo, hi, step float64) {
		n := int((hi-lo)/step + 0.5)
		for k := 0; k < n; k++ {
			out = append(out, (lo+float64(k)*step)/100)
		}
	}
	appendRange(0, 3, 0.1)
	appendRange(3, 7, 0.5)
	appendRange(7, 60, 1)
	appendRange(60, 105, 5)
	return out
}
