package model

import "fmt"

// Unit conversions shared by the solver and the reports.
const (
	MPHPerMPS = 2.2369
	MPerMi    = 1609.0
	KWhPerGGE = 33.7
)

// PhysicalProperties holds environmental constants used by the road-load model.
type PhysicalProperties struct {
	AirDensityKgPerM3 float64 `json:"air_density_kg_per_m3" yaml:"air_density_kg_per_m3"`
	AGravMPS2         float64 `json:"a_grav_mps2" yaml:"a_grav_mps2"`
}

// DefaultProperties returns sea-level air density and standard gravity.
func DefaultProperties() PhysicalProperties {
	return PhysicalProperties{AirDensityKgPerM3: 1.2, AGravMPS2: 9.81}
}

// Validate checks that both constants are positive.
func (p PhysicalProperties) Validate() error {
	if p.AirDensityKgPerM3 <= 0 || p.AGravMPS2 <= 0 {
		return fmt.Errorf("%w: physical properties must be positive", ErrInvalidParams)
	}
	return nil
}
