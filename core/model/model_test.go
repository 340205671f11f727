package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurveFloorIndex(t *testing.T) {
	c, err := NewCurve([]float64{0, 10, 20, 30}, []float64{0, 0.5, 0.8, 0.9})
	require.NoError(t, err)

	cases := []struct {
		q    float64
		want int
	}{
		{0, 0},
		{5, 0},
		{10, 1},
		{29.99, 2},
		{30, 3},  // nothing greater wraps to last
		{-1, 3},  // first point already greater wraps to last
		{100, 3}, // above range
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, c.FloorIndex(tc.q), "q=%g", tc.q)
	}
	assert.Equal(t, 1, c.FloorIndexAtLeast(-1, 1))
	assert.Equal(t, 1, c.FloorIndexAtLeast(100, 1))
	assert.Equal(t, 2, c.FloorIndexAtLeast(25, 1))
}

func TestCurveRejectsNonMonotonic(t *testing.T) {
	_, err := NewCurve([]float64{0, 2, 2}, []float64{1, 1, 1})
	assert.True(t, errors.Is(err, ErrNonMonotonicCurve))

	_, err = NewCurve([]float64{0, 1}, []float64{1})
	assert.True(t, errors.Is(err, ErrLengthMismatch))

	_, err = NewCurve(nil, nil)
	assert.Error(t, err)

	zero, err := NewCurve([]float64{0, 0, 0}, []float64{0.1, 0.2, 0.3})
	require.NoError(t, err, "all-zero curve describes an absent component")
	assert.Equal(t, 1, zero.FloorIndexAtLeast(-0.01, 1))
}

func TestCurveCopiesInput(t *testing.T) {
	x := []float64{0, 1}
	c, err := NewCurve(x, []float64{0, 1})
	require.NoError(t, err)
	x[1] = 5
	assert.Equal(t, 1.0, c.LastX())
}

func TestNewCycleValidation(t *testing.T) {
	_, err := NewCycle("empty", nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyCycle)

	_, err = NewCycle("len", []float64{0, 1}, []float64{0}, nil, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = NewCycle("flat", []float64{0, 1, 1}, []float64{0, 1, 2}, nil, nil)
	assert.ErrorIs(t, err, ErrNonIncreasingTime)

	_, err = NewCycle("back", []float64{0, 2, 1}, []float64{0, 1, 2}, nil, nil)
	assert.ErrorIs(t, err, ErrNonIncreasingTime)
}

func TestCycleDerived(t *testing.T) {
	c, err := NewCycle("c", []float64{0, 1, 3}, []float64{0, 10, 20}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 0.0, c.DtS(0))
	assert.Equal(t, 2.0, c.DtS(2))
	assert.InDelta(t, 22.369, c.MPH(1), 1e-9)
	assert.Equal(t, 50.0, c.TotalDistM())
	assert.Equal(t, 3.0, c.Duration())

	cl := c.Clone()
	cl.TimeS[2] = 9
	assert.Equal(t, 3.0, c.TimeS[2])
}

func TestSimParamsDefaultsValidate(t *testing.T) {
	p := DefaultSimParams()
	require.NoError(t, p.Validate())

	var empty SimParams
	empty.SetDefaults()
	assert.Equal(t, DefaultSimParams().NewtonMaxIter, empty.NewtonMaxIter)
	assert.False(t, empty.Verbose)

	p.NewtonGain = 1.5
	assert.ErrorIs(t, p.Validate(), ErrInvalidParams)
}

func TestParseTypes(t *testing.T) {
	pt, err := ParsePowertrainType("HEV")
	require.NoError(t, err)
	assert.Equal(t, HEV, pt)
	assert.Equal(t, "hev", pt.String())

	ft, err := ParseFuelConverterType("atkinson")
	require.NoError(t, err)
	assert.Equal(t, Atkinson, ft)

	_, err = ParsePowertrainType("hovercraft")
	assert.ErrorIs(t, err, ErrInvalidVehicle)
}
