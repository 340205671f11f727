package model

import (
	"fmt"
	"slices"
)

// Cycle is a prescribed speed trace. Index i holds the sample at TimeS[i].
// The solver treats a Cycle as read-only; the time-dilation pass works on a
// Clone.
type Cycle struct {
	Name     string    `json:"name"`
	TimeS    []float64 `json:"time_s"`
	MPS      []float64 `json:"mps"`
	Grade    []float64 `json:"grade"`
	RoadType []int     `json:"road_type"`
}

// NewCycle builds a validated cycle. grade and roadType may be nil, in which
// case they default to zero.
func NewCycle(name string, timeS, mps, grade []float64, roadType []int) (Cycle, error) {
	n := len(timeS)
	if grade == nil {
		grade = make([]float64, n)
	}
	if roadType == nil {
		roadType = make([]int, n)
	}
	c := Cycle{
		Name:     name,
		TimeS:    slices.Clone(timeS),
		MPS:      slices.Clone(mps),
		Grade:    slices.Clone(grade),
		RoadType: slices.Clone(roadType),
	}
	if err := c.Validate(); err != nil {
		return Cycle{}, err
	}
	return c, nil
}

// Validate checks the sample count, the series lengths and the time ordering.
func (c Cycle) Validate() error {
	n := len(c.TimeS)
	if n == 0 {
		return ErrEmptyCycle
	}
	if len(c.MPS) != n || len(c.Grade) != n || len(c.RoadType) != n {
		return fmt.Errorf("%w: time=%d mps=%d grade=%d road_type=%d",
			ErrLengthMismatch, n, len(c.MPS), len(c.Grade), len(c.RoadType))
	}
	for i := 1; i < n; i++ {
		if !(c.TimeS[i] > c.TimeS[i-1]) {
			return fmt.Errorf("%w: t[%d]=%g after t[%d]=%g", ErrNonIncreasingTime, i, c.TimeS[i], i-1, c.TimeS[i-1])
		}
	}
	return nil
}

// Len returns the number of samples.
func (c Cycle) Len() int { return len(c.TimeS) }

// DtS returns the step duration ending at i; it is zero for the first sample.
func (c Cycle) DtS(i int) float64 {
	if i == 0 {
		return 0
	}
	return c.TimeS[i] - c.TimeS[i-1]
}

// DtSeries returns DtS for every sample.
func (c Cycle) DtSeries() []float64 {
	out := make([]float64, len(c.TimeS))
	for i := range out {
		out[i] = c.DtS(i)
	}
	return out
}

// MPH returns the target speed at i in miles per hour.
func (c Cycle) MPH(i int) float64 { return c.MPS[i] * MPHPerMPS }

// DistM returns the distance covered during step i at the target speed.
func (c Cycle) DistM(i int) float64 { return c.MPS[i] * c.DtS(i) }

// TotalDistM sums DistM over the cycle.
func (c Cycle) TotalDistM() float64 {
	var d float64
	for i := range c.TimeS {
		d += c.DistM(i)
	}
	return d
}

// Duration returns the elapsed time between the first and last samples.
func (c Cycle) Duration() float64 { return c.TimeS[len(c.TimeS)-1] - c.TimeS[0] }

// Clone returns a deep copy.
func (c Cycle) Clone() Cycle {
	return Cycle{
		Name:     c.Name,
		TimeS:    slices.Clone(c.TimeS),
		MPS:      slices.Clone(c.MPS),
		Grade:    slices.Clone(c.Grade),
		RoadType: slices.Clone(c.RoadType),
	}
}
