package model

import (
	"fmt"
	"strings"
)

// PowertrainType identifies the vehicle architecture.
type PowertrainType int

const (
	Conventional PowertrainType = iota + 1
	HEV
	PHEV
	BEV
)

func (p PowertrainType) String() string {
	switch p {
	case Conventional:
		return "conventional"
	case HEV:
		return "hev"
	case PHEV:
		return "phev"
	case BEV:
		return "bev"
	default:
		return "unknown"
	}
}

// ParsePowertrainType accepts the names returned by String, case-insensitively.
func ParsePowertrainType(s string) (PowertrainType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "conventional", "conv":
		return Conventional, nil
	case "hev":
		return HEV, nil
	case "phev":
		return PHEV, nil
	case "bev", "ev":
		return BEV, nil
	}
	return 0, fmt.Errorf("%w: unknown powertrain type %q", ErrInvalidVehicle, s)
}

func (p PowertrainType) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *PowertrainType) UnmarshalText(b []byte) error {
	v, err := ParsePowertrainType(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// FuelConverterType selects the fuel converter efficiency map.
type FuelConverterType int

const (
	SI FuelConverterType = iota + 1
	Atkinson
	Diesel
	H2FC
	HDDiesel
)

func (f FuelConverterType) String() string {
	switch f {
	case SI:
		return "si"
	case Atkinson:
		return "atkinson"
	case Diesel:
		return "diesel"
	case H2FC:
		return "h2fc"
	case HDDiesel:
		return "hd_diesel"
	default:
		return "unknown"
	}
}

// ParseFuelConverterType accepts the names returned by String, case-insensitively.
func ParseFuelConverterType(s string) (FuelConverterType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "si":
		return SI, nil
	case "atkinson", "atk":
		return Atkinson, nil
	case "diesel":
		return Diesel, nil
	case "h2fc", "fuel_cell":
		return H2FC, nil
	case "hd_diesel":
		return HDDiesel, nil
	}
	return 0, fmt.Errorf("%w: unknown fuel converter type %q", ErrInvalidVehicle, s)
}

func (f FuelConverterType) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *FuelConverterType) UnmarshalText(b []byte) error {
	v, err := ParseFuelConverterType(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// RoadTypes is the number of roadway charging classes a cycle may reference.
const RoadTypes = 6

// VehicleSpec is the fully derived, immutable vehicle description consumed by
// the solver. It is produced by the vehicle package and shared read-only
// between concurrent runs.
type VehicleSpec struct {
	Name           string            `json:"name"`
	PowertrainType PowertrainType    `json:"powertrain_type"`
	FCEffType      FuelConverterType `json:"fc_eff_type"`

	// Road load and chassis.
	DragCoef            float64 `json:"drag_coef"`
	FrontalAreaM2       float64 `json:"frontal_area_m2"`
	VehKg               float64 `json:"veh_kg"`
	VehCgM              float64 `json:"veh_cg_m"`
	DriveAxleWeightFrac float64 `json:"drive_axle_weight_frac"`
	WheelBaseM          float64 `json:"wheel_base_m"`
	WheelInertiaKgM2    float64 `json:"wheel_inertia_kg_m2"`
	NumWheels           float64 `json:"num_wheels"`
	WheelRrCoef         float64 `json:"wheel_rr_coef"`
	WheelRadiusM        float64 `json:"wheel_radius_m"`
	WheelCoefOfFric     float64 `json:"wheel_coef_of_fric"`
	TransEff            float64 `json:"trans_eff"`

	// Fuel storage and converter.
	MaxFuelStorKW           float64 `json:"max_fuel_stor_kw"`
	FuelStorSecsToPeakPwr   float64 `json:"fuel_stor_secs_to_peak_pwr"`
	FuelStorKWh             float64 `json:"fuel_stor_kwh"`
	MaxFuelConvKW           float64 `json:"max_fuel_conv_kw"`
	FuelConvSecsToPeakPwr   float64 `json:"fuel_conv_secs_to_peak_pwr"`
	IdleFCKW                float64 `json:"idle_fc_kw"`
	MinFCTimeOn             float64 `json:"min_fc_time_on"`
	FC                      Curve   `json:"-"`
	MaxFCEffKW              float64 `json:"max_fc_eff_kw"`
	FCPeakEff               float64 `json:"fc_peak_eff"`
	MPHFCOn                 float64 `json:"mph_fc_on"`
	KWDemandFCOn            float64 `json:"kw_demand_fc_on"`
	ForceAuxOnFC            bool    `json:"force_aux_on_fc"`
	ESSDischgToFCMaxEffPerc float64 `json:"ess_dischg_to_fc_max_eff_perc"`
	ESSChgToFCMaxEffPerc    float64 `json:"ess_chg_to_fc_max_eff_perc"`

	// Motor. MCOut maps mechanical output to efficiency and MCIn maps
	// electrical input to the same efficiency points.
	MaxMotorKW         float64 `json:"max_motor_kw"`
	MotorSecsToPeakPwr float64 `json:"motor_secs_to_peak_pwr"`
	MCOut              Curve   `json:"-"`
	MCIn               Curve   `json:"-"`
	MCMaxElecInKW      float64 `json:"mc_max_elec_in_kw"`
	MCPeakEff          float64 `json:"mc_peak_eff"`
	StopStart          bool    `json:"stop_start"`

	// Battery.
	MaxESSKW                       float64 `json:"max_ess_kw"`
	MaxESSKWh                      float64 `json:"max_ess_kwh"`
	ESSRoundTripEff                float64 `json:"ess_round_trip_eff"`
	MinSOC                         float64 `json:"min_soc"`
	MaxSOC                         float64 `json:"max_soc"`
	PercHighAccBuf                 float64 `json:"perc_high_acc_buf"`
	MaxAccelBufferMPH              float64 `json:"max_accel_buffer_mph"`
	MaxAccelBufferPercOfUseableSOC float64 `json:"max_accel_buffer_perc_of_useable_soc"`
	ESSLifeCoefA                   float64 `json:"ess_life_coef_a"`
	ESSLifeCoefB                   float64 `json:"ess_life_coef_b"`

	// Accessories, regen and charging.
	AuxKW           float64            `json:"aux_kw"`
	AltEff          float64            `json:"alt_eff"`
	ChgEff          float64            `json:"chg_eff"`
	MaxRegen        float64            `json:"max_regen"`
	RegenA          float64            `json:"regen_a"`
	RegenB          float64            `json:"regen_b"`
	MaxRegenKWh     float64            `json:"max_regen_kwh"`
	ChargingOn      bool               `json:"charging_on"`
	MaxRoadwayChgKW [RoadTypes]float64 `json:"max_roadway_chg_kw"`

	// Derived at build time.
	NoElecSys   bool    `json:"no_elec_sys"`
	NoElecAux   bool    `json:"no_elec_aux"`
	MaxTracMPS2 float64 `json:"max_trac_mps2"`
}

// RoadwayChargeKW returns the roadway charging power available on road type r.
func (v *VehicleSpec) RoadwayChargeKW(r int) float64 {
	if r < 0 || r >= RoadTypes {
		return 0
	}
	return v.MaxRoadwayChgKW[r]
}

// Validate checks the invariants the solver relies on to stay finite.
func (v *VehicleSpec) Validate() error {
	var problems []string
	pos := func(name string, f float64) {
		if !(f > 0) {
			problems = append(problems, name+" must be > 0")
		}
	}
	nonneg := func(name string, f float64) {
		if f < 0 {
			problems = append(problems, name+" must be >= 0")
		}
	}
	pos("veh_kg", v.VehKg)
	pos("wheel_radius_m", v.WheelRadiusM)
	pos("wheel_base_m", v.WheelBaseM)
	pos("trans_eff", v.TransEff)
	pos("alt_eff", v.AltEff)
	pos("fuel_stor_secs_to_peak_pwr", v.FuelStorSecsToPeakPwr)
	pos("fuel_conv_secs_to_peak_pwr", v.FuelConvSecsToPeakPwr)
	pos("motor_secs_to_peak_pwr", v.MotorSecsToPeakPwr)
	nonneg("max_fuel_stor_kw", v.MaxFuelStorKW)
	nonneg("max_fuel_conv_kw", v.MaxFuelConvKW)
	nonneg("max_motor_kw", v.MaxMotorKW)
	nonneg("max_ess_kw", v.MaxESSKW)
	nonneg("max_ess_kwh", v.MaxESSKWh)
	nonneg("aux_kw", v.AuxKW)
	if !(v.ESSRoundTripEff > 0 && v.ESSRoundTripEff <= 1) {
		problems = append(problems, "ess_round_trip_eff must be in (0, 1]")
	}
	if v.MinSOC < 0 || v.MaxSOC > 1 || v.MinSOC > v.MaxSOC {
		problems = append(problems, "soc bounds must satisfy 0 <= min_soc <= max_soc <= 1")
	}
	if !v.NoElecSys && v.MaxAccelBufferMPH <= 0 {
		problems = append(problems, "max_accel_buffer_mph must be > 0 for electrified vehicles")
	}
	if v.FC.Len() == 0 || v.MCOut.Len() == 0 || v.MCIn.Len() == 0 {
		problems = append(problems, "efficiency curves are missing")
	} else if v.MCOut.Len() != v.MCIn.Len() {
		problems = append(problems, "motor input and output curves differ in length")
	}
	if v.MaxMotorKW > 0 && v.MCOut.Len() > 1 && !(v.MCOut.LastY() > 0) {
		problems = append(problems, "motor efficiency at peak power must be > 0")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidVehicle, strings.Join(problems, "; "))
	}
	return nil
}
