// Package cycle reads drive cycles from CSV files and builds synthetic ones.
package cycle

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilianp07/drivesim/core/model"
)

// Column aliases accepted in the header row.
var columns = map[string][]string{
	"time":  {"time_s", "cycsecs", "time"},
	"mps":   {"mps", "cycmps", "speed_mps"},
	"mph":   {"mph", "speed_mph"},
	"grade": {"grade", "cycgrade"},
	"road":  {"road_type", "cycroadtype"},
}

// LoadCSV reads a cycle from a CSV file. The header must name a time column
// and either an mps or an mph column; grade and road_type are optional.
func LoadCSV(path string) (model.Cycle, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Cycle{}, err
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	c, err := ReadCSV(name, f)
	if err != nil {
		return model.Cycle{}, fmt.Errorf("cycle %s: %w", path, err)
	}
	return c, nil
}

// ReadCSV parses CSV cycle data from r.
func ReadCSV(name string, r io.Reader) (model.Cycle, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return model.Cycle{}, model.ErrEmptyCycle
		}
		return model.Cycle{}, err
	}
	idx := indexColumns(header)
	if idx["time"] < 0 || (idx["mps"] < 0 && idx["mph"] < 0) {
		return model.Cycle{}, fmt.Errorf("header %v: need a time column and a speed column", header)
	}

	var timeS, mps, grade []float64
	var road []int
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Cycle{}, err
		}
		line++
		t, err := field(rec, idx["time"], line)
		if err != nil {
			return model.Cycle{}, err
		}
		var v float64
		if idx["mps"] >= 0 {
			v, err = field(rec, idx["mps"], line)
		} else {
			v, err = field(rec, idx["mph"], line)
			v /= model.MPHPerMPS
		}
		if err != nil {
			return model.Cycle{}, err
		}
		g := 0.0
		if idx["grade"] >= 0 {
			if g, err = field(rec, idx["grade"], line); err != nil {
				return model.Cycle{}, err
			}
		}
		rt := 0
		if idx["road"] >= 0 {
			f, err := field(rec, idx["road"], line)
			if err != nil {
				return model.Cycle{}, err
			}
			rt = int(f)
		}
		timeS = append(timeS, t)
		mps = append(mps, v)
		grade = append(grade, g)
		road = append(road, rt)
	}
	return model.NewCycle(name, timeS, mps, grade, road)
}

func indexColumns(header []string) map[string]int {
	idx := map[string]int{"time": -1, "mps": -1, "mph": -1, "grade": -1, "road": -1}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for key, aliases := range columns {
			for _, a := range aliases {
				if h == a && idx[key] < 0 {
					idx[key] = i
				}
			}
		}
	}
	return idx
}

func field(rec []string, i, line int) (float64, error) {
	if i >= len(rec) {
		return 0, fmt.Errorf("line %d: missing column %d", line, i)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", line, err)
	}
	return v, nil
}
