package eco

import "time"

// Record aggregates the energy drawn by one vehicle over one day of runs.
type Record struct {
	VehicleID   string
	Date        time.Time
	FuelKWh     float64
	ElectricKWh float64
	DistMi      float64
	Runs        int
}

// Merge adds one run's energy and distance to r and counts the run.
func (r Record) Merge(run Record) Record {
	r.FuelKWh += run.FuelKWh
	r.ElectricKWh += run.ElectricKWh
	r.DistMi += run.DistMi
	r.Runs++
	return r
}

// CO2Emitted returns grams of CO2 from fuel using the emission factor in g/kWh.
func (r Record) CO2Emitted(factor float64) float64 {
	return r.FuelKWh * factor
}

// ElectricShare returns the fraction of the total energy that was electric.
func (r Record) ElectricShare() float64 {
	total := r.FuelKWh + r.ElectricKWh
	if total == 0 {
		return 0
	}
	return r.ElectricKWh / total
}

// KWhPerMi returns the combined energy intensity, 0 without distance.
func (r Record) KWhPerMi() float64 {
	if r.DistMi == 0 {
		return 0
	}
	return (r.FuelKWh + r.ElectricKWh) / r.DistMi
}

// FromRun builds the contribution of one run. Energies are in kJ.
func FromRun(vehicleID string, at time.Time, fuelKJ, electricKJ, distMi float64) Record {
	return Record{
		VehicleID:   vehicleID,
		Date:        at,
		FuelKWh:     fuelKJ / 3600,
		ElectricKWh: electricKJ / 3600,
		DistMi:      distMi,
	}
}
