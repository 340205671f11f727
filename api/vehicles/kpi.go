package vehicles

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	eco "github.com/kilianp07/drivesim/core/metrics/eco"
)

// NewKPIHandler exposes daily energy KPIs via GET /api/vehicles/{id}/kpis.
func NewKPIHandler(store eco.Store, factor float64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/api/vehicles/")
		parts := strings.Split(path, "/")
		if len(parts) < 2 || parts[1] != "kpis" {
			http.NotFound(w, r)
			return
		}
		id := parts[0]
		start, _ := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
		end, _ := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
		if end.IsZero() {
			end = time.Now()
		}
		recs, err := store.Query(id, start, end)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		type out struct {
			Date          string  `json:"date"`
			Runs          int     `json:"runs"`
			FuelKWh       float64 `json:"fuel_kwh"`
			ElectricKWh   float64 `json:"electric_kwh"`
			DistMi        float64 `json:"dist_mi"`
			ElectricShare float64 `json:"electric_share"`
			KWhPerMi      float64 `json:"kwh_per_mi"`
			CO2Grams      float64 `json:"co2_grams"`
		}
		outSlice := make([]out, len(recs))
		for i, r := range recs {
			outSlice[i] = out{
				Date:          r.Date.Format("2006-01-02"),
				Runs:          r.Runs,
				FuelKWh:       r.FuelKWh,
				ElectricKWh:   r.ElectricKWh,
				DistMi:        r.DistMi,
				ElectricShare: r.ElectricShare(),
				KWhPerMi:      r.KWhPerMi(),
				CO2Grams:      r.CO2Emitted(factor),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(outSlice)
	})
}

// NewRouter mounts the preset and KPI handlers under /api/vehicles. The KPI
// routes are only served when store is non-nil.
func NewRouter(store eco.Store, factor float64) http.Handler {
	presets := NewPresetHandler()
	if store == nil {
		return presets
	}
	kpis := NewKPIHandler(store, factor)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/kpis") {
			kpis.ServeHTTP(w, r)
			return
		}
		presets.ServeHTTP(w, r)
	})
}
