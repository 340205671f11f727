package vehicle

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/kilianp07/drivesim/core/model"
)

// Build derives the immutable solver view of a vehicle: electrical-system
// flags, fuel converter and motor curves, total mass, traction limit and
// regen energy. The returned spec has passed VehicleSpec.Validate.
func Build(p Params, props model.PhysicalProperties) (*model.VehicleSpec, error) {
	p.SetDefaults()
	if err := props.Validate(); err != nil {
		return nil, err
	}
	if len(p.MaxRoadwayChgKW) > model.RoadTypes {
		return nil, fmt.Errorf("%w: max_roadway_chg_kw has %d entries, at most %d road types",
			model.ErrInvalidVehicle, len(p.MaxRoadwayChgKW), model.RoadTypes)
	}

	v := &model.VehicleSpec{
		Name:                           p.Name,
		PowertrainType:                 p.PowertrainType,
		FCEffType:                      p.FCEffType,
		DragCoef:                       p.DragCoef,
		FrontalAreaM2:                  p.FrontalAreaM2,
		VehCgM:                         p.VehCgM,
		DriveAxleWeightFrac:            p.DriveAxleWeightFrac,
		WheelBaseM:                     p.WheelBaseM,
		WheelInertiaKgM2:               p.WheelInertiaKgM2,
		NumWheels:                      p.NumWheels,
		WheelRrCoef:                    p.WheelRrCoef,
		WheelRadiusM:                   p.WheelRadiusM,
		WheelCoefOfFric:                p.WheelCoefOfFric,
		TransEff:                       p.TransEff,
		MaxFuelStorKW:                  p.MaxFuelStorKW,
		FuelStorSecsToPeakPwr:          p.FuelStorSecsToPeakPwr,
		FuelStorKWh:                    p.FuelStorKWh,
		MaxFuelConvKW:                  p.MaxFuelConvKW,
		FuelConvSecsToPeakPwr:          p.FuelConvSecsToPeakPwr,
		IdleFCKW:                       p.IdleFCKW,
		MinFCTimeOn:                    p.MinFCTimeOn,
		MPHFCOn:                        p.MPHFCOn,
		KWDemandFCOn:                   p.KWDemandFCOn,
		ForceAuxOnFC:                   p.ForceAuxOnFC,
		ESSDischgToFCMaxEffPerc:        p.ESSDischgToFCMaxEffPerc,
		ESSChgToFCMaxEffPerc:           p.ESSChgToFCMaxEffPerc,
		MaxMotorKW:                     p.MaxMotorKW,
		MotorSecsToPeakPwr:             p.MotorSecsToPeakPwr,
		StopStart:                      p.StopStart,
		MaxESSKW:                       p.MaxESSKW,
		MaxESSKWh:                      p.MaxESSKWh,
		ESSRoundTripEff:                p.ESSRoundTripEff,
		MinSOC:                         p.MinSOC,
		MaxSOC:                         p.MaxSOC,
		PercHighAccBuf:                 p.PercHighAccBuf,
		MaxAccelBufferMPH:              p.MaxAccelBufferMPH,
		MaxAccelBufferPercOfUseableSOC: p.MaxAccelBufferPercOfUseableSOC,
		ESSLifeCoefA:                   p.ESSLifeCoefA,
		ESSLifeCoefB:                   p.ESSLifeCoefB,
		AuxKW:                          p.AuxKW,
		AltEff:                         p.AltEff,
		ChgEff:                         p.ChgEff,
		MaxRegen:                       p.MaxRegen,
		RegenA:                         regenA,
		RegenB:                         regenB,
		ChargingOn:                     p.ChargingOn,
	}
	copy(v.MaxRoadwayChgKW[:], p.MaxRoadwayChgKW)

	v.NoElecSys = p.MaxESSKWh == 0 || p.MaxESSKW == 0 || p.MaxMotorKW == 0
	v.NoElecAux = v.NoElecSys || p.MaxMotorKW <= p.AuxKW || p.ForceAuxOnFC

	if err := buildFuelConverter(p, v); err != nil {
		return nil, err
	}
	if err := buildMotor(p, v); err != nil {
		return nil, err
	}

	v.VehKg = vehicleMass(p)
	g := props.AGravMPS2
	m := v.VehKg
	v.MaxTracMPS2 = (p.WheelCoefOfFric * p.DriveAxleWeightFrac * m * g /
		(1 + p.VehCgM*p.WheelCoefOfFric/p.WheelBaseM)) / (m * g) * g
	v.MaxRegenKWh = 0.5 * m * regenRefMPS * regenRefMPS / 3600 / 1000

	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("vehicle %q: %w", p.Name, err)
	}
	return v, nil
}

func buildFuelConverter(p Params, v *model.VehicleSpec) error {
	percTable, effTable := fcPwrOutPerc, fcEffMaps[p.FCEffType]
	if len(p.FCPwrOutPerc) > 0 || len(p.FCEffMap) > 0 {
		percTable, effTable = p.FCPwrOutPerc, p.FCEffMap
	}
	if effTable == nil {
		return fmt.Errorf("%w: no efficiency map for fuel converter type %s", model.ErrInvalidVehicle, p.FCEffType)
	}
	eff := make([]float64, len(effTable))
	for i, e := range effTable {
		eff[i] = e + p.FCAbsEffImpr
	}
	perc := fcPercOutArray()
	effArr, err := resample(percTable, eff, perc)
	if err != nil {
		return fmt.Errorf("fuel converter map: %w", err)
	}
	effArr[len(effArr)-1] = eff[len(eff)-1]

	kwOut := make([]float64, len(perc))
	floats.ScaleTo(kwOut, p.MaxFuelConvKW, perc)
	fc, err := model.NewCurve(kwOut, effArr)
	if err != nil {
		return fmt.Errorf("fuel converter curve: %w", err)
	}
	v.FC = fc
	peak := floats.MaxIdx(effArr)
	v.MaxFCEffKW = kwOut[peak]
	v.FCPeakEff = effArr[peak]
	return nil
}

func buildMotor(p Params, v *model.VehicleSpec) error {
	percTable, effTable := mcPwrOutPerc, blendedMotorEff(p.MaxMotorKW, p.MCMaxEff)
	if len(p.MCPwrOutPerc) > 0 || len(p.MCEffMap) > 0 {
		percTable, effTable = p.MCPwrOutPerc, p.MCEffMap
	}
	perc := floats.Span(make([]float64, mcResolution), 0, 1)
	fullEff, err := resample(percTable, effTable, perc)
	if err != nil {
		return fmt.Errorf("motor map: %w", err)
	}
	fullEff[0] = 0
	fullEff[len(fullEff)-1] = effTable[len(effTable)-1]

	kwOut := make([]float64, len(perc))
	floats.ScaleTo(kwOut, p.MaxMotorKW, perc)
	kwIn := make([]float64, len(perc))
	for i := 1; i < len(perc); i++ {
		if fullEff[i] != 0 {
			kwIn[i] = kwOut[i] / fullEff[i]
		}
	}

	mcOut, err := model.NewCurve(kwOut, fullEff)
	if err != nil {
		return fmt.Errorf("motor output curve: %w", err)
	}
	mcIn, err := model.NewCurve(kwIn, fullEff)
	if err != nil {
		return fmt.Errorf("motor input curve: %w", err)
	}
	v.MCOut, v.MCIn = mcOut, mcIn
	v.MCMaxElecInKW = slices.Max(kwIn)
	v.MCPeakEff = slices.Max(fullEff)
	return nil
}

// blendedMotorEff mixes the small and large baseline maps by motor size. The
// large map is shifted so its peak equals maxEff.
func blendedMotorEff(maxMotorKW, maxEff float64) []float64 {
	adj := min(max((maxMotorKW-mcSmallKW)/(mcLargeKW-mcSmallKW), 0), 1)
	shift := maxEff - slices.Max(largeBaselineEff)
	out := make([]float64, len(largeBaselineEff))
	for i := range out {
		out[i] = adj*(largeBaselineEff[i]+shift) + (1-adj)*smallBaselineEff[i]
	}
	return out
}

func resample(xs, ys, at []float64) ([]float64, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d breakpoints and %d values", model.ErrLengthMismatch, len(xs), len(ys))
	}
	// Fit panics on fewer than two points or x values that do not increase.
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: %d breakpoints, need at least 2", model.ErrNonMonotonicCurve, len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, fmt.Errorf("%w: breakpoint %d (%g) after %g", model.ErrNonMonotonicCurve, i, xs[i], xs[i-1])
		}
	}
	var pl interp.PiecewiseLinear
	_ = pl.Fit(xs, ys)
	out := make([]float64, len(at))
	for i, x := range at {
		out[i] = pl.Predict(x)
	}
	return out, nil
}

func vehicleMass(p Params) float64 {
	if p.VehOverrideKg > 0 {
		return p.VehOverrideKg
	}
	mult := p.CompMassMultiplier
	var essKg, mcKg, fcKg, fsKg float64
	if p.MaxESSKWh != 0 && p.MaxESSKW != 0 {
		essKg = (p.MaxESSKWh*p.ESSKgPerKWh + p.ESSBaseKg) * mult
	}
	if p.MaxMotorKW != 0 {
		mcKg = (p.MCPEBaseKg + p.MCPEKgPerKW*p.MaxMotorKW) * mult
	}
	if p.MaxFuelConvKW != 0 && p.FuelConvKWPerKg != 0 {
		fcKg = (p.MaxFuelConvKW/p.FuelConvKWPerKg + p.FuelConvBaseKg) * mult
	}
	if p.MaxFuelStorKW != 0 && p.FuelStorKWhPerKg != 0 {
		fsKg = p.FuelStorKWh / p.FuelStorKWhPerKg * mult
	}
	return p.CargoKg + p.GliderKg + p.TransKg*mult + essKg + mcKg + fcKg + fsKg
}
