package cycle

import (
	"fmt"
	"math"

	"github.com/kilianp07/drivesim/core/model"
)

func samples(durationS, dtS float64) (int, error) {
	if !(dtS > 0) || durationS < 0 {
		return 0, fmt.Errorf("%w: duration %g s with step %g s", model.ErrEmptyCycle, durationS, dtS)
	}
	return int(math.Round(durationS/dtS)) + 1, nil
}

// Constant holds speed mps for durationS seconds, sampled every dtS.
func Constant(name string, mps, durationS, dtS float64) (model.Cycle, error) {
	n, err := samples(durationS, dtS)
	if err != nil {
		return model.Cycle{}, err
	}
	t := make([]float64, n)
	v := make([]float64, n)
	for i := range t {
		t[i] = float64(i) * dtS
		v[i] = mps
	}
	return model.NewCycle(name, t, v, nil, nil)
}

// Ramp changes speed linearly from fromMPS to toMPS over durationS.
func Ramp(name string, fromMPS, toMPS, durationS, dtS float64) (model.Cycle, error) {
	n, err := samples(durationS, dtS)
	if err != nil {
		return model.Cycle{}, err
	}
	t := make([]float64, n)
	v := make([]float64, n)
	for i := range t {
		t[i] = float64(i) * dtS
		frac := 1.0
		if n > 1 {
			frac = float64(i) / float64(n-1)
		}
		v[i] = fromMPS + (toMPS-fromMPS)*frac
	}
	return model.NewCycle(name, t, v, nil, nil)
}

// Trapezoid starts at rest, accelerates to peakMPS over accelS, cruises for
// cruiseS, then decelerates back to rest over decelS.
func Trapezoid(name string, peakMPS, accelS, cruiseS, decelS, dtS float64) (model.Cycle, error) {
	total := accelS + cruiseS + decelS
	n, err := samples(total, dtS)
	if err != nil {
		return model.Cycle{}, err
	}
	t := make([]float64, n)
	v := make([]float64, n)
	for i := range t {
		ti := float64(i) * dtS
		t[i] = ti
		switch {
		case ti < accelS:
			v[i] = peakMPS * ti / accelS
		case ti <= accelS+cruiseS:
			v[i] = peakMPS
		case decelS > 0:
			v[i] = max(0, peakMPS*(total-ti)/decelS)
		}
	}
	return model.NewCycle(name, t, v, nil, nil)
}

// WithGrade returns a copy of c with a constant road grade.
func WithGrade(c model.Cycle, grade float64) model.Cycle {
	out := c.Clone()
	for i := range out.Grade {
		out.Grade[i] = grade
	}
	return out
}

// WithRoadType returns a copy of c with every sample on road type r.
func WithRoadType(c model.Cycle, r int) model.Cycle {
	out := c.Clone()
	for i := range out.RoadType {
		out.RoadType[i] = r
	}
	return out
}

// Concat joins cycles end to end. The first sample of each following cycle is
// dropped and its time axis is shifted to continue from the previous end.
func Concat(name string, cycles ...model.Cycle) (model.Cycle, error) {
	var t, v, g []float64
	var r []int
	for k, c := range cycles {
		start := 0
		offset := 0.0
		if k > 0 && len(t) > 0 && c.Len() > 0 {
			start = 1
			offset = t[len(t)-1] - c.TimeS[0]
		}
		for i := start; i < c.Len(); i++ {
			t = append(t, c.TimeS[i]+offset)
			v = append(v, c.MPS[i])
			g = append(g, c.Grade[i])
			r = append(r, c.RoadType[i])
		}
	}
	return model.NewCycle(name, t, v, g, r)
}
