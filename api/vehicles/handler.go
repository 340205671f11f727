// Package vehicles exposes vehicle presets and per-vehicle energy KPIs over
// HTTP.
package vehicles

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kilianp07/drivesim/core/vehicle"
)

// NewPresetHandler serves GET /api/vehicles with the preset names and
// GET /api/vehicles/{name} with the preset's parameters.
func NewPresetHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/vehicles"), "/")
		var body any = vehicle.PresetNames()
		if name != "" {
			p, err := vehicle.Preset(name)
			if err != nil {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			body = p
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
