package vehicle

import (
	"fmt"
	"sort"

	"github.com/kilianp07/drivesim/core/model"
)

// presets are reference vehicles for the CLI and the regression scenarios.
var presets = map[string]Params{
	"midsize_conventional": {
		Name:                           "midsize_conventional",
		PowertrainType:                 model.Conventional,
		FCEffType:                      model.SI,
		DragCoef:                       0.30,
		FrontalAreaM2:                  2.2,
		GliderKg:                       1172,
		VehCgM:                         0.53,
		DriveAxleWeightFrac:            0.61,
		WheelBaseM:                     2.6,
		CargoKg:                        136,
		CompMassMultiplier:             1.4,
		TransKg:                        114,
		TransEff:                       0.92,
		WheelInertiaKgM2:               0.815,
		NumWheels:                      4,
		WheelRrCoef:                    0.009,
		WheelRadiusM:                   0.326,
		WheelCoefOfFric:                0.7,
		MaxFuelStorKW:                  2000,
		FuelStorSecsToPeakPwr:          1,
		FuelStorKWh:                    500,
		FuelStorKWhPerKg:               9.89,
		MaxFuelConvKW:                  130,
		FuelConvSecsToPeakPwr:          6,
		FuelConvBaseKg:                 61,
		FuelConvKWPerKg:                2.13,
		IdleFCKW:                       2.5,
		MinFCTimeOn:                    30,
		MPHFCOn:                        30,
		KWDemandFCOn:                   100,
		MCMaxEff:                       0.95,
		MotorSecsToPeakPwr:             4,
		MCPEKgPerKW:                    0.833,
		MCPEBaseKg:                     21.6,
		ESSKgPerKWh:                    8,
		ESSBaseKg:                      75,
		ESSRoundTripEff:                0.97,
		ESSLifeCoefA:                   110,
		ESSLifeCoefB:                   -0.6811,
		MinSOC:                         0.4,
		MaxSOC:                         0.8,
		MaxAccelBufferMPH:              60,
		MaxAccelBufferPercOfUseableSOC: 0.2,
		AuxKW:                          0.7,
		AltEff:                         1,
		ChgEff:                         0.86,
		MaxRegen:                       0.98,
	},
	"midsize_hev": {
		Name:                           "midsize_hev",
		PowertrainType:                 model.HEV,
		FCEffType:                      model.Atkinson,
		DragCoef:                       0.24,
		FrontalAreaM2:                  2.2,
		GliderKg:                       950,
		VehCgM:                         0.53,
		DriveAxleWeightFrac:            0.61,
		WheelBaseM:                     2.7,
		CargoKg:                        136,
		CompMassMultiplier:             1.4,
		TransKg:                        114,
		TransEff:                       0.98,
		WheelInertiaKgM2:               0.815,
		NumWheels:                      4,
		WheelRrCoef:                    0.0075,
		WheelRadiusM:                   0.317,
		WheelCoefOfFric:                0.7,
		MaxFuelStorKW:                  2000,
		FuelStorSecsToPeakPwr:          1,
		FuelStorKWh:                    400,
		FuelStorKWhPerKg:               9.89,
		MaxFuelConvKW:                  72,
		FuelConvSecsToPeakPwr:          6,
		FuelConvBaseKg:                 61,
		FuelConvKWPerKg:                2.13,
		IdleFCKW:                       2.5,
		MinFCTimeOn:                    30,
		MPHFCOn:                        55,
		KWDemandFCOn:                   100,
		MaxMotorKW:                     53,
		MCMaxEff:                       0.95,
		MotorSecsToPeakPwr:             4,
		MCPEKgPerKW:                    0.833,
		MCPEBaseKg:                     21.6,
		MaxESSKW:                       30,
		MaxESSKWh:                      1.3,
		ESSKgPerKWh:                    8,
		ESSBaseKg:                      75,
		ESSRoundTripEff:                0.97,
		ESSLifeCoefA:                   110,
		ESSLifeCoefB:                   -0.6811,
		MinSOC:                         0.4,
		MaxSOC:                         0.8,
		MaxAccelBufferMPH:              60,
		MaxAccelBufferPercOfUseableSOC: 0.2,
		AuxKW:                          0.5,
		AltEff:                         1,
		ChgEff:                         0.86,
		MaxRegen:                       0.98,
	},
	"compact_bev": {
		Name:                           "compact_bev",
		PowertrainType:                 model.BEV,
		FCEffType:                      model.SI,
		DragCoef:                       0.28,
		FrontalAreaM2:                  2.3,
		GliderKg:                       900,
		VehCgM:                         0.53,
		DriveAxleWeightFrac:            0.61,
		WheelBaseM:                     2.7,
		CargoKg:                        136,
		CompMassMultiplier:             1.4,
		TransKg:                        114,
		TransEff:                       0.98,
		WheelInertiaKgM2:               0.815,
		NumWheels:                      4,
		WheelRrCoef:                    0.0075,
		WheelRadiusM:                   0.316,
		WheelCoefOfFric:                0.7,
		FuelStorSecsToPeakPwr:          1,
		FuelStorKWhPerKg:               9.89,
		FuelConvSecsToPeakPwr:          6,
		FuelConvBaseKg:                 61,
		FuelConvKWPerKg:                2.13,
		MPHFCOn:                        1,
		KWDemandFCOn:                   100,
		MaxMotorKW:                     80,
		MCMaxEff:                       0.95,
		MotorSecsToPeakPwr:             4,
		MCPEKgPerKW:                    0.833,
		MCPEBaseKg:                     21.6,
		MaxESSKW:                       90,
		MaxESSKWh:                      30,
		ESSKgPerKWh:                    8,
		ESSBaseKg:                      75,
		ESSRoundTripEff:                0.97,
		ESSLifeCoefA:                   110,
		ESSLifeCoefB:                   -0.6811,
		MinSOC:                         0.05,
		MaxSOC:                         0.95,
		MaxAccelBufferMPH:              60,
		MaxAccelBufferPercOfUseableSOC: 0.2,
		AuxKW:                          0.3,
		AltEff:                         1,
		ChgEff:                         0.86,
		MaxRegen:                       0.98,
	},
}

// Preset returns a copy of a named reference vehicle.
func Preset(name string) (Params, error) {
	p, ok := presets[name]
	if !ok {
		return Params{}, fmt.Errorf("%w: unknown preset %q (have %v)", model.ErrInvalidVehicle, name, PresetNames())
	}
	return p, nil
}

// PresetNames lists the available presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
