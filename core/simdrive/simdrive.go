// Package simdrive walks a vehicle over a drive cycle one time step at a time,
// solving achievable speed and the power split between fuel converter,
// battery and motor at every step.
package simdrive

import (
	"fmt"
	"math"
	"slices"

	"github.com/kilianp07/drivesim/core/logger"
	"github.com/kilianp07/drivesim/core/model"
)

// SimDrive owns one simulation run. The vehicle, baseline cycle and
// parameters are read-only and may be shared between runs; the state and the
// working cycle belong to this run alone. A SimDrive is not safe for
// concurrent use.
type SimDrive struct {
	veh    *model.VehicleSpec
	cyc0   model.Cycle
	cyc    model.Cycle
	params model.SimParams
	props  model.PhysicalProperties
	log    logger.Logger

	aux            []float64
	auxLastNonzero int

	st    *State
	walks int
}

// Option customises a SimDrive.
type Option func(*SimDrive)

// WithParams replaces the default solver parameters.
func WithParams(p model.SimParams) Option {
	return func(s *SimDrive) { s.params = p }
}

// WithProperties replaces the default air density and gravity.
func WithProperties(p model.PhysicalProperties) Option {
	return func(s *SimDrive) { s.props = p }
}

// WithLogger sets the logger used for post-walk warnings.
func WithLogger(l logger.Logger) Option {
	return func(s *SimDrive) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAuxOverride installs a per-step accessory load. See SetAuxOverride.
func WithAuxOverride(kw []float64) Option {
	return func(s *SimDrive) { s.aux = slices.Clone(kw) }
}

// New validates its inputs and prepares a run. Validation is the only
// failure path; Walk and Run always complete.
func New(cyc model.Cycle, veh *model.VehicleSpec, opts ...Option) (*SimDrive, error) {
	if veh == nil {
		return nil, fmt.Errorf("%w: nil vehicle", model.ErrInvalidVehicle)
	}
	if err := cyc.Validate(); err != nil {
		return nil, err
	}
	if err := veh.Validate(); err != nil {
		return nil, err
	}
	s := &SimDrive{
		veh:    veh,
		cyc0:   cyc.Clone(),
		params: model.DefaultSimParams(),
		props:  model.DefaultProperties(),
		log:    logger.Nop{},
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.params.Validate(); err != nil {
		return nil, err
	}
	if err := s.props.Validate(); err != nil {
		return nil, err
	}
	if err := s.setAux(s.aux); err != nil {
		return nil, err
	}
	s.cyc = s.cyc0.Clone()
	s.st = newState(cyc.Len())
	return s, nil
}

// SetAuxOverride installs an externally supplied accessory load, one value per
// cycle sample. At step i the vehicle's default accessory load applies when
// every entry from i to the end is zero; otherwise the override value is used.
// A nil slice removes the override.
func (s *SimDrive) SetAuxOverride(kw []float64) error {
	return s.setAux(slices.Clone(kw))
}

func (s *SimDrive) setAux(kw []float64) error {
	if kw == nil {
		s.aux, s.auxLastNonzero = nil, -1
		return nil
	}
	if len(kw) != s.cyc0.Len() {
		return fmt.Errorf("%w: aux override has %d values for %d samples", model.ErrLengthMismatch, len(kw), s.cyc0.Len())
	}
	last := -1
	for i, v := range kw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: aux override[%d] is not finite", model.ErrInvalidParams, i)
		}
		if v != 0 {
			last = i
		}
	}
	s.aux, s.auxLastNonzero = kw, last
	return nil
}

// State returns the record of the most recent walk.
func (s *SimDrive) State() *State { return s.st }

// Cycle returns the working cycle of the most recent walk. It differs from
// BaseCycle only when time dilation stretched it.
func (s *SimDrive) Cycle() model.Cycle { return s.cyc }

// BaseCycle returns the prescribed cycle.
func (s *SimDrive) BaseCycle() model.Cycle { return s.cyc0 }

// Vehicle returns the vehicle being simulated.
func (s *SimDrive) Vehicle() *model.VehicleSpec { return s.veh }

// Params returns the solver parameters.
func (s *SimDrive) Params() model.SimParams { return s.params }

// Properties returns the physical constants in use.
func (s *SimDrive) Properties() model.PhysicalProperties { return s.props }

// Logger returns the logger used for warnings.
func (s *SimDrive) Logger() logger.Logger { return s.log }

// Walks returns how many walks the most recent Run performed.
func (s *SimDrive) Walks() int { return s.walks }

// Len returns the number of cycle samples.
func (s *SimDrive) Len() int { return s.cyc0.Len() }
