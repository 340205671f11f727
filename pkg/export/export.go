// Package export writes the achieved trace of a finished run as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/kilianp07/drivesim/core/simdrive"
)

// Trace is a column view of a finished run.
type Trace struct {
	Vehicle string            `json:"vehicle"`
	Cycle   string            `json:"cycle"`
	TimeS   []float64         `json:"time_s"`
	CycMPS  []float64         `json:"cyc_mps"`
	Columns []simdrive.Series `json:"-"`
	Flags   map[string][]bool `json:"flags,omitempty"`
	Iters   map[string][]int  `json:"iters,omitempty"`
}

// FromSimDrive collects the requested float columns of sd's latest walk, or
// every column when none are named. Boolean flags and iteration counters are
// always included.
func FromSimDrive(sd *simdrive.SimDrive, columns ...string) (Trace, error) {
	st, cyc := sd.State(), sd.Cycle()
	t := Trace{
		Vehicle: sd.Vehicle().Name,
		Cycle:   sd.BaseCycle().Name,
		TimeS:   cyc.TimeS,
		CycMPS:  cyc.MPS,
		Flags:   st.Bools(),
		Iters:   map[string][]int{"newton_iters": st.NewtonIters, "trace_miss_iters": st.TraceMissIters},
	}
	all := st.Series()
	if len(columns) == 0 {
		t.Columns = all
		return t, nil
	}
	byName := make(map[string]simdrive.Series, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}
	for _, c := range columns {
		s, ok := byName[c]
		if !ok {
			return Trace{}, fmt.Errorf("unknown trace column %q", c)
		}
		t.Columns = append(t.Columns, s)
	}
	return t, nil
}

// WriteJSON writes the trace to w as one JSON object with a "series" map.
func WriteJSON(w io.Writer, t Trace) error {
	series := make(map[string][]float64, len(t.Columns))
	for _, c := range t.Columns {
		series[c.Name] = c.Values
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Trace
		Series map[string][]float64 `json:"series"`
	}{t, series})
}

// WriteCSV writes the trace to w with one row per time step.
func WriteCSV(w io.Writer, t Trace) error {
	cw := csv.NewWriter(w)
	header := []string{"time_s", "cyc_mps"}
	for _, c := range t.Columns {
		header = append(header, c.Name)
	}
	flagNames := sortedKeys(t.Flags)
	iterNames := sortedKeys(t.Iters)
	header = append(header, flagNames...)
	header = append(header, iterNames...)
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for i := range t.TimeS {
		rec = rec[:0]
		rec = append(rec, formatFloat(t.TimeS[i]), formatFloat(t.CycMPS[i]))
		for _, c := range t.Columns {
			rec = append(rec, formatFloat(c.Values[i]))
		}
		for _, n := range flagNames {
			rec = append(rec, strconv.FormatBool(t.Flags[n][i]))
		}
		for _, n := range iterNames {
			rec = append(rec, strconv.Itoa(t.Iters[n][i]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the trace under dir as "<name>.<format>" where format is
// "csv" or "json", and returns the file path.
func WriteFile(dir, name, format string, t Trace) (string, error) {
	var write func(io.Writer, Trace) error
	switch format {
	case "csv":
		write = WriteCSV
	case "json":
		write = WriteJSON
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+"."+format)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := write(f, t); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
