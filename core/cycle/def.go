package cycle

import (
	"fmt"

	"github.com/kilianp07/drivesim/core/model"
)

// Def describes a cycle declaratively, either as a CSV file or as one of the
// synthetic shapes. It is the form cycles take in scenario and request files.
type Def struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Kind is csv, constant, ramp or trapezoid.
	Kind string `json:"kind" yaml:"kind"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	MPS       float64 `json:"mps,omitempty" yaml:"mps,omitempty"`
	FromMPS   float64 `json:"from_mps,omitempty" yaml:"from_mps,omitempty"`
	ToMPS     float64 `json:"to_mps,omitempty" yaml:"to_mps,omitempty"`
	DurationS float64 `json:"duration_s,omitempty" yaml:"duration_s,omitempty"`
	AccelS    float64 `json:"accel_s,omitempty" yaml:"accel_s,omitempty"`
	CruiseS   float64 `json:"cruise_s,omitempty" yaml:"cruise_s,omitempty"`
	DecelS    float64 `json:"decel_s,omitempty" yaml:"decel_s,omitempty"`
	DtS       float64 `json:"dt_s,omitempty" yaml:"dt_s,omitempty"`

	Grade    float64 `json:"grade,omitempty" yaml:"grade,omitempty"`
	RoadType int     `json:"road_type,omitempty" yaml:"road_type,omitempty"`
	// Repeat concatenates the shape with itself; values below 2 mean once.
	Repeat int `json:"repeat,omitempty" yaml:"repeat,omitempty"`
}

// Build materialises d.
func (d Def) Build() (model.Cycle, error) {
	name := d.Name
	if name == "" {
		name = d.Kind
	}
	dt := d.DtS
	if dt == 0 {
		dt = 1
	}

	var (
		c   model.Cycle
		err error
	)
	switch d.Kind {
	case "csv":
		if d.Path == "" {
			return model.Cycle{}, fmt.Errorf("cycle %q: csv kind needs a path", name)
		}
		c, err = LoadCSV(d.Path)
		if err == nil && d.Name != "" {
			c.Name = d.Name
		}
	case "constant":
		c, err = Constant(name, d.MPS, d.DurationS, dt)
	case "ramp":
		c, err = Ramp(name, d.FromMPS, d.ToMPS, d.DurationS, dt)
	case "trapezoid":
		c, err = Trapezoid(name, d.MPS, d.AccelS, d.CruiseS, d.DecelS, dt)
	default:
		return model.Cycle{}, fmt.Errorf("cycle %q: unknown kind %q", name, d.Kind)
	}
	if err != nil {
		return model.Cycle{}, err
	}

	if d.Grade != 0 {
		c = WithGrade(c, d.Grade)
	}
	if d.RoadType != 0 {
		c = WithRoadType(c, d.RoadType)
	}
	if d.Repeat > 1 {
		parts := make([]model.Cycle, d.Repeat)
		for i := range parts {
			parts[i] = c
		}
		return Concat(c.Name, parts...)
	}
	return c, nil
}
