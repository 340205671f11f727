package vehicles

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	eco "github.com/kilianp07/drivesim/core/metrics/eco"
	"github.com/kilianp07/drivesim/core/vehicle"
)

func TestPresetHandler_List(t *testing.T) {
	h := NewPresetHandler()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/vehicles", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out []string
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(vehicle.PresetNames()) {
		t.Fatalf("unexpected output %#v", out)
	}
}

func TestPresetHandler_Detail(t *testing.T) {
	h := NewPresetHandler()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/vehicles/compact_bev", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out vehicle.Params
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Name != "compact_bev" {
		t.Fatalf("unexpected preset %q", out.Name)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/vehicles/hovercraft", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("DELETE", "/api/vehicles", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rr.Code)
	}
}

func TestRouter_KPIs(t *testing.T) {
	store := eco.NewMemoryStore()
	day := time.Now().UTC()
	if err := store.Add(eco.Record{VehicleID: "midsize_hev", Date: day, FuelKWh: 3, ElectricKWh: 1, DistMi: 2}); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(eco.Record{VehicleID: "midsize_hev", Date: day, FuelKWh: 1, DistMi: 2}); err != nil {
		t.Fatal(err)
	}
	h := NewRouter(store, 250)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/vehicles/midsize_hev/kpis", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out []struct {
		Runs          int     `json:"runs"`
		ElectricShare float64 `json:"electric_share"`
		KWhPerMi      float64 `json:"kwh_per_mi"`
		CO2Grams      float64 `json:"co2_grams"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Runs != 2 {
		t.Fatalf("unexpected kpis %#v", out)
	}
	if out[0].ElectricShare != 0.2 || out[0].KWhPerMi != 1.25 || out[0].CO2Grams != 1000 {
		t.Fatalf("unexpected values %#v", out[0])
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/vehicles", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("presets through router: status %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	NewRouter(nil, 0).ServeHTTP(rr, httptest.NewRequest("GET", "/api/vehicles/midsize_hev/kpis", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without store, got %d", rr.Code)
	}
}
