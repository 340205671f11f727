// Package kpi stores daily per-vehicle energy records in SQLite.
package kpi

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	core "github.com/kilianp07/drivesim/core/metrics/eco"
)

// SQLiteStore persists daily energy records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS vehicle_energy_daily (
        vehicle_id TEXT,
        day INTEGER,
        fuel_kwh REAL,
        electric_kwh REAL,
        dist_mi REAL,
        runs INTEGER,
        PRIMARY KEY(vehicle_id, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add folds one run into the record for its vehicle and day.
func (s *SQLiteStore) Add(r core.Record) error {
	d := core.Day(r.Date)
	_, err := s.db.Exec(`INSERT INTO vehicle_energy_daily (vehicle_id, day, fuel_kwh, electric_kwh, dist_mi, runs)
        VALUES (?, ?, ?, ?, ?, 1)
        ON CONFLICT(vehicle_id, day) DO UPDATE SET
            fuel_kwh = fuel_kwh + excluded.fuel_kwh,
            electric_kwh = electric_kwh + excluded.electric_kwh,
            dist_mi = dist_mi + excluded.dist_mi,
            runs = runs + 1`,
		r.VehicleID, d.Unix(), r.FuelKWh, r.ElectricKWh, r.DistMi)
	return err
}

// Query returns records in the range [start,end].
func (s *SQLiteStore) Query(vehicleID string, start, end time.Time) ([]core.Record, error) {
	start = core.Day(start)
	end = core.Day(end)
	rows, err := s.db.Query(`SELECT vehicle_id, day, fuel_kwh, electric_kwh, dist_mi, runs
        FROM vehicle_energy_daily WHERE vehicle_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		vehicleID, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []core.Record
	for rows.Next() {
		var rec core.Record
		var ts int64
		if err := rows.Scan(&rec.VehicleID, &ts, &rec.FuelKWh, &rec.ElectricKWh, &rec.DistMi, &rec.Runs); err != nil {
			return nil, err
		}
		rec.Date = time.Unix(ts, 0).UTC()
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

var _ core.Store = (*SQLiteStore)(nil)
