package eco

import (
	"slices"
	"sync"
	"time"
)

type dayKey struct {
	vehicle string
	day     time.Time
}

// MemoryStore keeps daily records in a map. Nothing survives a restart.
type MemoryStore struct {
	mu   sync.Mutex
	days map[dayKey]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{days: map[dayKey]Record{}}
}

// Add implements Store.
func (s *MemoryStore) Add(r Record) error {
	k := dayKey{vehicle: r.VehicleID, day: Day(r.Date)}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.days[k]
	if !ok {
		acc = Record{VehicleID: k.vehicle, Date: k.day}
	}
	s.days[k] = acc.Merge(r)
	return nil
}

// Query implements Store. Records come back oldest first.
func (s *MemoryStore) Query(vehicleID string, start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	var out []Record
	for k, r := range s.days {
		if k.vehicle == vehicleID && InRange(k.day, start, end) {
			out = append(out, r)
		}
	}
	s.mu.Unlock()
	slices.SortFunc(out, func(a, b Record) int { return a.Date.Compare(b.Date) })
	return out, nil
}
