package kpi

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/kilianp07/drivesim/core/metrics/eco"
)

func TestSQLiteStore_Aggregation(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kpi.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	d := time.Date(2025, 7, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.Add(core.Record{VehicleID: "v1", Date: d, FuelKWh: 4, DistMi: 10}))
	require.NoError(t, s.Add(core.Record{VehicleID: "v1", Date: d.Add(3 * time.Hour), ElectricKWh: 2, DistMi: 6}))
	require.NoError(t, s.Add(core.Record{VehicleID: "v2", Date: d, FuelKWh: 9}))

	recs, err := s.Query("v1", d, d)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, core.Day(d), recs[0].Date)
	assert.Equal(t, 4.0, recs[0].FuelKWh)
	assert.Equal(t, 2.0, recs[0].ElectricKWh)
	assert.Equal(t, 16.0, recs[0].DistMi)
	assert.Equal(t, 2, recs[0].Runs)
}
