package eco

import "time"

// Store persists daily energy records. Add folds a run's contribution into
// the record of its vehicle and UTC day.
type Store interface {
	Add(Record) error
	Query(vehicleID string, start, end time.Time) ([]Record, error)
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InRange reports whether day falls in [start,end] once all three are
// truncated to days.
func InRange(day, start, end time.Time) bool {
	day = Day(day)
	return !day.Before(Day(start)) && !day.After(Day(end))
}
