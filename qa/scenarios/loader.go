package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/drivesim/core/cycle"
	"github.com/kilianp07/drivesim/core/model"
)

// Range bounds a result. A nil bound is open.
type Range struct {
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`
}

func (r Range) check(name string, v float64) error {
	if r.Min != nil && v < *r.Min {
		return fmt.Errorf("%s %.4g below %.4g", name, v, *r.Min)
	}
	if r.Max != nil && v > *r.Max {
		return fmt.Errorf("%s %.4g above %.4g", name, v, *r.Max)
	}
	return nil
}

type Expected struct {
	MPGGE            Range `yaml:"mpgge"`
	ElectricKWhPerMi Range `yaml:"electric_kwh_per_mi"`
	FinalSOC         Range `yaml:"final_soc"`
	DistMi           Range `yaml:"dist_mi"`
	ESSToFuel        Range `yaml:"ess_to_fuel"`
	// TraceMiss is compared exactly when set.
	TraceMiss      *bool    `yaml:"trace_miss,omitempty"`
	MaxAuditError  *float64 `yaml:"max_audit_error,omitempty"`
	MaxMissedSteps *int     `yaml:"max_missed_steps,omitempty"`
	MinWalks       int      `yaml:"min_walks,omitempty"`
}

// Scenario is one regression case: a vehicle driven over a cycle with the
// bounds its results must fall in.
type Scenario struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Vehicle     string           `yaml:"vehicle"`
	Cycle       cycle.Def        `yaml:"cycle"`
	InitSOC     *float64         `yaml:"init_soc,omitempty"`
	Sim         *model.SimParams `yaml:"sim,omitempty"`
	Expected    Expected         `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" || sc.Vehicle == "" {
		return nil, fmt.Errorf("scenario %s: name and vehicle are required", path)
	}
	return &sc, nil
}

// params returns the solver settings for sc. Sim overrides are applied on top
// of the reference defaults.
func (sc *Scenario) params() (model.SimParams, error) {
	if sc.Sim == nil {
		return model.DefaultSimParams(), nil
	}
	p := *sc.Sim
	p.SetDefaults()
	return p, p.Validate()
}
