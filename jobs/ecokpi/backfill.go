// Package ecokpi rebuilds daily energy records from stored run history.
package ecokpi

import (
	eco "github.com/kilianp07/drivesim/core/metrics/eco"
	"github.com/kilianp07/drivesim/infra/runstore"
)

// Backfill folds every successful run in history into store. It returns the
// number of runs added.
func Backfill(store eco.Store, history []runstore.Record) (int, error) {
	n := 0
	for _, h := range history {
		s := h.Summary
		if s == nil || h.Error != "" {
			continue
		}
		rec := eco.FromRun(h.Vehicle, h.Timestamp, s.FuelKJ, s.ESSDischgKJ+s.RoadwayChgKJ, s.DistMi)
		if err := store.Add(rec); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
