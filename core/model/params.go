package model

import (
	"fmt"
	"strings"
)

// SimParams configures the solver. It is read-only during a run.
type SimParams struct {
	// MissedTraceCorrection enables time dilation when the vehicle falls
	// behind the prescribed distance.
	MissedTraceCorrection bool    `json:"missed_trace_correction" yaml:"missed_trace_correction"`
	MaxTimeDilation       float64 `json:"max_time_dilation" yaml:"max_time_dilation"`
	MinTimeDilation       float64 `json:"min_time_dilation" yaml:"min_time_dilation"`
	TimeDilationTol       float64 `json:"time_dilation_tol" yaml:"time_dilation_tol"`
	MaxTraceMissIters     int     `json:"max_trace_miss_iters" yaml:"max_trace_miss_iters"`

	TraceMissSpeedMPSTol float64 `json:"trace_miss_speed_mps_tol" yaml:"trace_miss_speed_mps_tol"`
	TraceMissTimeTol     float64 `json:"trace_miss_time_tol" yaml:"trace_miss_time_tol"`
	TraceMissDistTol     float64 `json:"trace_miss_dist_tol" yaml:"trace_miss_dist_tol"`

	// SimCountMax caps the HEV state-of-charge balancing walks.
	SimCountMax       int     `json:"sim_count_max" yaml:"sim_count_max"`
	ESSToFuelOkError  float64 `json:"ess_to_fuel_ok_error" yaml:"ess_to_fuel_ok_error"`
	Verbose           bool    `json:"verbose" yaml:"verbose"`
	NewtonGain        float64 `json:"newton_gain" yaml:"newton_gain"`
	NewtonMaxIter     int     `json:"newton_max_iter" yaml:"newton_max_iter"`
	NewtonXTol        float64 `json:"newton_xtol" yaml:"newton_xtol"`
	EnergyAuditErrTol float64 `json:"energy_audit_error_tol" yaml:"energy_audit_error_tol"`
	MaxEPAAdj         float64 `json:"max_epa_adj" yaml:"max_epa_adj"`
}

// DefaultSimParams returns the reference solver settings.
func DefaultSimParams() SimParams {
	return SimParams{
		MissedTraceCorrection: false,
		MaxTimeDilation:       1.0,
		MinTimeDilation:       -0.5,
		TimeDilationTol:       5e-4,
		MaxTraceMissIters:     5,
		TraceMissSpeedMPSTol:  1.0,
		TraceMissTimeTol:      1e-3,
		TraceMissDistTol:      1e-3,
		SimCountMax:           30,
		ESSToFuelOkError:      0.005,
		Verbose:               true,
		NewtonGain:            0.9,
		NewtonMaxIter:         100,
		NewtonXTol:            1e-9,
		EnergyAuditErrTol:     0.002,
		MaxEPAAdj:             0.3,
	}
}

// SetDefaults fills zero-valued tolerances and caps with the reference values.
// Boolean flags are left untouched.
func (p *SimParams) SetDefaults() {
	d := DefaultSimParams()
	if p.MaxTimeDilation == 0 {
		p.MaxTimeDilation = d.MaxTimeDilation
	}
	if p.MinTimeDilation == 0 {
		p.MinTimeDilation = d.MinTimeDilation
	}
	if p.TimeDilationTol == 0 {
		p.TimeDilationTol = d.TimeDilationTol
	}
	if p.MaxTraceMissIters == 0 {
		p.MaxTraceMissIters = d.MaxTraceMissIters
	}
	if p.TraceMissSpeedMPSTol == 0 {
		p.TraceMissSpeedMPSTol = d.TraceMissSpeedMPSTol
	}
	if p.TraceMissTimeTol == 0 {
		p.TraceMissTimeTol = d.TraceMissTimeTol
	}
	if p.TraceMissDistTol == 0 {
		p.TraceMissDistTol = d.TraceMissDistTol
	}
	if p.SimCountMax == 0 {
		p.SimCountMax = d.SimCountMax
	}
	if p.ESSToFuelOkError == 0 {
		p.ESSToFuelOkError = d.ESSToFuelOkError
	}
	if p.NewtonGain == 0 {
		p.NewtonGain = d.NewtonGain
	}
	if p.NewtonMaxIter == 0 {
		p.NewtonMaxIter = d.NewtonMaxIter
	}
	if p.NewtonXTol == 0 {
		p.NewtonXTol = d.NewtonXTol
	}
	if p.EnergyAuditErrTol == 0 {
		p.EnergyAuditErrTol = d.EnergyAuditErrTol
	}
	if p.MaxEPAAdj == 0 {
		p.MaxEPAAdj = d.MaxEPAAdj
	}
}

// Validate checks ranges.
func (p SimParams) Validate() error {
	var problems []string
	if !(p.NewtonGain > 0 && p.NewtonGain < 1) {
		problems = append(problems, "newton_gain must be in (0, 1)")
	}
	if p.NewtonMaxIter < 1 {
		problems = append(problems, "newton_max_iter must be >= 1")
	}
	if p.NewtonXTol <= 0 {
		problems = append(problems, "newton_xtol must be > 0")
	}
	if p.MaxTraceMissIters < 0 || p.SimCountMax < 0 {
		problems = append(problems, "iteration caps must be >= 0")
	}
	if p.MinTimeDilation > p.MaxTimeDilation {
		problems = append(problems, "min_time_dilation must not exceed max_time_dilation")
	}
	if p.TimeDilationTol < 0 || p.TraceMissDistTol < 0 || p.TraceMissTimeTol < 0 ||
		p.TraceMissSpeedMPSTol < 0 || p.EnergyAuditErrTol < 0 || p.ESSToFuelOkError < 0 {
		problems = append(problems, "tolerances must be >= 0")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(problems, "; "))
	}
	return nil
}
