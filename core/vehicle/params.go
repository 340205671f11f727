package vehicle

import "github.com/kilianp07/drivesim/core/model"

// Params holds the raw vehicle inputs as they appear in a vehicle file.
// Build derives a model.VehicleSpec from it.
type Params struct {
	Name           string                  `json:"name" yaml:"name"`
	PowertrainType model.PowertrainType    `json:"powertrain_type" yaml:"powertrain_type"`
	FCEffType      model.FuelConverterType `json:"fc_eff_type" yaml:"fc_eff_type"`

	DragCoef            float64 `json:"drag_coef" yaml:"drag_coef"`
	FrontalAreaM2       float64 `json:"frontal_area_m2" yaml:"frontal_area_m2"`
	GliderKg            float64 `json:"glider_kg" yaml:"glider_kg"`
	VehCgM              float64 `json:"veh_cg_m" yaml:"veh_cg_m"`
	DriveAxleWeightFrac float64 `json:"drive_axle_weight_frac" yaml:"drive_axle_weight_frac"`
	WheelBaseM          float64 `json:"wheel_base_m" yaml:"wheel_base_m"`
	CargoKg             float64 `json:"cargo_kg" yaml:"cargo_kg"`
	VehOverrideKg       float64 `json:"veh_override_kg" yaml:"veh_override_kg"`
	CompMassMultiplier  float64 `json:"comp_mass_multiplier" yaml:"comp_mass_multiplier"`
	TransKg             float64 `json:"trans_kg" yaml:"trans_kg"`
	TransEff            float64 `json:"trans_eff" yaml:"trans_eff"`

	WheelInertiaKgM2 float64 `json:"wheel_inertia_kg_m2" yaml:"wheel_inertia_kg_m2"`
	NumWheels        float64 `json:"num_wheels" yaml:"num_wheels"`
	WheelRrCoef      float64 `json:"wheel_rr_coef" yaml:"wheel_rr_coef"`
	WheelRadiusM     float64 `json:"wheel_radius_m" yaml:"wheel_radius_m"`
	WheelCoefOfFric  float64 `json:"wheel_coef_of_fric" yaml:"wheel_coef_of_fric"`

	MaxFuelStorKW         float64 `json:"max_fuel_stor_kw" yaml:"max_fuel_stor_kw"`
	FuelStorSecsToPeakPwr float64 `json:"fuel_stor_secs_to_peak_pwr" yaml:"fuel_stor_secs_to_peak_pwr"`
	FuelStorKWh           float64 `json:"fuel_stor_kwh" yaml:"fuel_stor_kwh"`
	FuelStorKWhPerKg      float64 `json:"fuel_stor_kwh_per_kg" yaml:"fuel_stor_kwh_per_kg"`

	MaxFuelConvKW         float64 `json:"max_fuel_conv_kw" yaml:"max_fuel_conv_kw"`
	FCAbsEffImpr          float64 `json:"fc_abs_eff_impr" yaml:"fc_abs_eff_impr"`
	FuelConvSecsToPeakPwr float64 `json:"fuel_conv_secs_to_peak_pwr" yaml:"fuel_conv_secs_to_peak_pwr"`
	FuelConvBaseKg        float64 `json:"fuel_conv_base_kg" yaml:"fuel_conv_base_kg"`
	FuelConvKWPerKg       float64 `json:"fuel_conv_kw_per_kg" yaml:"fuel_conv_kw_per_kg"`
	IdleFCKW              float64 `json:"idle_fc_kw" yaml:"idle_fc_kw"`
	MinFCTimeOn           float64 `json:"min_fc_time_on" yaml:"min_fc_time_on"`
	MPHFCOn               float64 `json:"mph_fc_on" yaml:"mph_fc_on"`
	KWDemandFCOn          float64 `json:"kw_demand_fc_on" yaml:"kw_demand_fc_on"`
	ForceAuxOnFC          bool    `json:"force_aux_on_fc" yaml:"force_aux_on_fc"`
	// FCPwrOutPerc and FCEffMap replace the built-in map for FCEffType when
	// both are set.
	FCPwrOutPerc []float64 `json:"fc_pwr_out_perc,omitempty" yaml:"fc_pwr_out_perc,omitempty"`
	FCEffMap     []float64 `json:"fc_eff_map,omitempty" yaml:"fc_eff_map,omitempty"`

	MaxMotorKW         float64 `json:"max_motor_kw" yaml:"max_motor_kw"`
	MCMaxEff           float64 `json:"mc_max_eff" yaml:"mc_max_eff"`
	MotorSecsToPeakPwr float64 `json:"motor_secs_to_peak_pwr" yaml:"motor_secs_to_peak_pwr"`
	MCPEKgPerKW        float64 `json:"mc_pe_kg_per_kw" yaml:"mc_pe_kg_per_kw"`
	MCPEBaseKg         float64 `json:"mc_pe_base_kg" yaml:"mc_pe_base_kg"`
	StopStart          bool    `json:"stop_start" yaml:"stop_start"`
	// MCPwrOutPerc and MCEffMap replace the blended large/small motor map.
	MCPwrOutPerc []float64 `json:"mc_pwr_out_perc,omitempty" yaml:"mc_pwr_out_perc,omitempty"`
	MCEffMap     []float64 `json:"mc_eff_map,omitempty" yaml:"mc_eff_map,omitempty"`

	MaxESSKW                       float64 `json:"max_ess_kw" yaml:"max_ess_kw"`
	MaxESSKWh                      float64 `json:"max_ess_kwh" yaml:"max_ess_kwh"`
	ESSKgPerKWh                    float64 `json:"ess_kg_per_kwh" yaml:"ess_kg_per_kwh"`
	ESSBaseKg                      float64 `json:"ess_base_kg" yaml:"ess_base_kg"`
	ESSRoundTripEff                float64 `json:"ess_round_trip_eff" yaml:"ess_round_trip_eff"`
	ESSLifeCoefA                   float64 `json:"ess_life_coef_a" yaml:"ess_life_coef_a"`
	ESSLifeCoefB                   float64 `json:"ess_life_coef_b" yaml:"ess_life_coef_b"`
	MinSOC                         float64 `json:"min_soc" yaml:"min_soc"`
	MaxSOC                         float64 `json:"max_soc" yaml:"max_soc"`
	ESSDischgToFCMaxEffPerc        float64 `json:"ess_dischg_to_fc_max_eff_perc" yaml:"ess_dischg_to_fc_max_eff_perc"`
	ESSChgToFCMaxEffPerc           float64 `json:"ess_chg_to_fc_max_eff_perc" yaml:"ess_chg_to_fc_max_eff_perc"`
	MaxAccelBufferMPH              float64 `json:"max_accel_buffer_mph" yaml:"max_accel_buffer_mph"`
	MaxAccelBufferPercOfUseableSOC float64 `json:"max_accel_buffer_perc_of_useable_soc" yaml:"max_accel_buffer_perc_of_useable_soc"`
	PercHighAccBuf                 float64 `json:"perc_high_acc_buf" yaml:"perc_high_acc_buf"`

	AuxKW           float64   `json:"aux_kw" yaml:"aux_kw"`
	AltEff          float64   `json:"alt_eff" yaml:"alt_eff"`
	ChgEff          float64   `json:"chg_eff" yaml:"chg_eff"`
	MaxRegen        float64   `json:"max_regen" yaml:"max_regen"`
	ChargingOn      bool      `json:"charging_on" yaml:"charging_on"`
	MaxRoadwayChgKW []float64 `json:"max_roadway_chg_kw,omitempty" yaml:"max_roadway_chg_kw,omitempty"`
}

// SetDefaults fills the fields a vehicle file commonly omits.
func (p *Params) SetDefaults() {
	if p.PowertrainType == 0 {
		p.PowertrainType = model.Conventional
	}
	if p.FCEffType == 0 {
		p.FCEffType = model.SI
	}
	if p.CompMassMultiplier == 0 {
		p.CompMassMultiplier = 1.4
	}
	if p.NumWheels == 0 {
		p.NumWheels = 4
	}
	if p.MCMaxEff == 0 {
		p.MCMaxEff = defaultMCMaxEff
	}
	if p.FuelStorSecsToPeakPwr == 0 {
		p.FuelStorSecsToPeakPwr = 1
	}
	if p.FuelConvSecsToPeakPwr == 0 {
		p.FuelConvSecsToPeakPwr = 6
	}
	if p.MotorSecsToPeakPwr == 0 {
		p.MotorSecsToPeakPwr = 4
	}
	if p.FuelStorKWhPerKg == 0 {
		p.FuelStorKWhPerKg = 9.89
	}
	if p.ESSRoundTripEff == 0 {
		p.ESSRoundTripEff = 0.97
	}
	if p.AltEff == 0 {
		p.AltEff = 1
	}
	if p.ChgEff == 0 {
		p.ChgEff = 0.86
	}
	if p.MaxAccelBufferMPH == 0 {
		p.MaxAccelBufferMPH = 60
	}
}
