package model

import (
	"fmt"
	"slices"
)

// Curve is an immutable lookup table of (x, y) points with strictly increasing x.
// A curve whose x values are all zero is accepted; it describes a component
// with no capacity.
type Curve struct {
	x []float64
	y []float64
}

// NewCurve copies x and y into a new Curve after validating them.
func NewCurve(x, y []float64) (Curve, error) {
	if len(x) != len(y) {
		return Curve{}, fmt.Errorf("%w: curve has %d x and %d y values", ErrLengthMismatch, len(x), len(y))
	}
	if len(x) == 0 {
		return Curve{}, fmt.Errorf("%w: empty curve", ErrNonMonotonicCurve)
	}
	if !allZero(x) {
		for i := 1; i < len(x); i++ {
			if !(x[i] > x[i-1]) {
				return Curve{}, fmt.Errorf("%w: x[%d]=%g after x[%d]=%g", ErrNonMonotonicCurve, i, x[i], i-1, x[i-1])
			}
		}
	}
	return Curve{x: slices.Clone(x), y: slices.Clone(y)}, nil
}

// Len returns the number of points.
func (c Curve) Len() int { return len(c.x) }

// X returns the i-th abscissa.
func (c Curve) X(i int) float64 { return c.x[i] }

// Y returns the i-th ordinate.
func (c Curve) Y(i int) float64 { return c.y[i] }

// LastX returns the final abscissa.
func (c Curve) LastX() float64 { return c.x[len(c.x)-1] }

// LastY returns the final ordinate.
func (c Curve) LastY() float64 { return c.y[len(c.y)-1] }

// MaxX returns the largest abscissa.
func (c Curve) MaxX() float64 { return slices.Max(c.x) }

// MaxY returns the largest ordinate.
func (c Curve) MaxY() float64 { return slices.Max(c.y) }

// XS returns a copy of the abscissae.
func (c Curve) XS() []float64 { return slices.Clone(c.x) }

// YS returns a copy of the ordinates.
func (c Curve) YS() []float64 { return slices.Clone(c.y) }

// FloorIndex locates the first point whose x is strictly greater than q and
// returns the index just before it. When no point is greater than q, or the
// very first point already is, the index wraps to the last point.
func (c Curve) FloorIndex(q float64) int {
	if k := c.floor(q); k >= 0 {
		return k
	}
	return len(c.x) - 1
}

// FloorIndexAtLeast is FloorIndex without the wrap: results below lo,
// including the no-match case, are raised to lo.
func (c Curve) FloorIndexAtLeast(q float64, lo int) int {
	return max(lo, c.floor(q))
}

func (c Curve) floor(q float64) int {
	for i, v := range c.x {
		if v > q {
			return i - 1
		}
	}
	return -1
}

func allZero(v []float64) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
