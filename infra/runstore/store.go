// Package runstore persists simulation run records as JSON lines or in a
// SQLite database and reads them back with simple filters.
package runstore

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/drivesim/core/postproc"
)

// Record captures one simulation request and its post-processed result.
type Record struct {
	RunID     string            `json:"run_id"`
	Timestamp time.Time         `json:"timestamp"`
	Vehicle   string            `json:"vehicle"`
	Cycle     string            `json:"cycle"`
	InitSOC   *float64          `json:"init_soc,omitempty"`
	Elapsed   time.Duration     `json:"elapsed_ns"`
	Summary   *postproc.Summary `json:"summary,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// TraceMissed reports whether the run finished outside its trace tolerances.
func (r Record) TraceMissed() bool {
	return r.Summary != nil && r.Summary.TraceMiss.Flagged
}

// Query defines filters for retrieving records. Zero fields match everything.
type Query struct {
	Start         time.Time
	End           time.Time
	Vehicle       string
	Cycle         string
	TraceMissOnly bool
}

func (q Query) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Vehicle != "" && r.Vehicle != q.Vehicle {
		return false
	}
	if q.Cycle != "" && r.Cycle != q.Cycle {
		return false
	}
	return !q.TraceMissOnly || r.TraceMissed()
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Options configures the file-backed stores. Rotation is enabled when
// MaxSizeMB is positive.
type Options struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewStore opens the store selected by backend: "jsonl" or "sqlite".
func NewStore(backend string, o Options) (Store, error) {
	switch backend {
	case "jsonl", "":
		if o.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(o.Path, o.MaxSizeMB, o.MaxBackups, o.MaxAgeDays)
		}
		return NewJSONLStore(o.Path)
	case "sqlite":
		return NewSQLiteStore(o.Path)
	default:
		return nil, fmt.Errorf("unknown run store backend %q", backend)
	}
}
