package ecokpi

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eco "github.com/kilianp07/drivesim/core/metrics/eco"
	"github.com/kilianp07/drivesim/core/postproc"
	"github.com/kilianp07/drivesim/infra/runstore"
)

type failingStore struct{ eco.Store }

func (failingStore) Add(eco.Record) error { return errors.New("disk full") }

func TestBackfill(t *testing.T) {
	day := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	history := []runstore.Record{
		{Vehicle: "midsize_hev", Timestamp: day, Summary: &postproc.Summary{FuelKJ: 7200, ESSDischgKJ: 1800, RoadwayChgKJ: 1800, DistMi: 3}},
		{Vehicle: "midsize_hev", Timestamp: day.Add(2 * time.Hour), Summary: &postproc.Summary{FuelKJ: 3600, DistMi: 1}},
		{Vehicle: "midsize_hev", Timestamp: day, Error: "unknown kind"},
		{Vehicle: "compact_bev", Timestamp: day, Summary: &postproc.Summary{ESSDischgKJ: 3600, DistMi: 4}},
	}
	store := eco.NewMemoryStore()
	n, err := Backfill(store, history)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	recs, err := store.Query("midsize_hev", day, day)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].Runs)
	assert.InDelta(t, 3.0, recs[0].FuelKWh, 1e-12)
	assert.InDelta(t, 1.0, recs[0].ElectricKWh, 1e-12)
	assert.InDelta(t, 4.0, recs[0].DistMi, 1e-12)

	recs, err = store.Query("compact_bev", day, day)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1.0, recs[0].ElectricShare())
}

func TestBackfillStopsOnError(t *testing.T) {
	history := []runstore.Record{{Vehicle: "v", Summary: &postproc.Summary{}}}
	n, err := Backfill(failingStore{}, history)
	assert.Error(t, err)
	assert.Zero(t, n)
}
