package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drivesim/core/cycle"
	"github.com/kilianp07/drivesim/core/model"
	"github.com/kilianp07/drivesim/core/simdrive"
	"github.com/kilianp07/drivesim/core/vehicle"
)

func finishedRun(t *testing.T) *simdrive.SimDrive {
	t.Helper()
	p, err := vehicle.Preset("midsize_conventional")
	require.NoError(t, err)
	v, err := vehicle.Build(p, model.DefaultProperties())
	require.NoError(t, err)
	c, err := cycle.Trapezoid("trap", 15, 5, 10, 5, 1)
	require.NoError(t, err)
	sd, err := simdrive.New(c, v)
	require.NoError(t, err)
	sd.Run(nil)
	return sd
}

func TestWriteCSV(t *testing.T) {
	sd := finishedRun(t)
	tr, err := FromSimDrive(sd, "mps_ach", "fc_kw_out_ach")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tr))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, sd.Len()+1)
	assert.Equal(t, []string{"time_s", "cyc_mps", "mps_ach", "fc_kw_out_ach"}, rows[0][:4])
	assert.Contains(t, rows[0], "cyc_met")
	assert.Contains(t, rows[0], "newton_iters")
	assert.Equal(t, "0", rows[1][0])
	assert.Len(t, rows[1], len(rows[0]))
}

func TestWriteJSON(t *testing.T) {
	sd := finishedRun(t)
	tr, err := FromSimDrive(sd)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, tr))
	var out struct {
		Vehicle string               `json:"vehicle"`
		TimeS   []float64            `json:"time_s"`
		Series  map[string][]float64 `json:"series"`
		Flags   map[string][]bool    `json:"flags"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, sd.Vehicle().Name, out.Vehicle)
	assert.Len(t, out.TimeS, sd.Len())
	assert.Len(t, out.Series, len(sd.State().Series()))
	assert.Equal(t, sd.State().SOC, out.Series["soc"])
	assert.Len(t, out.Flags["cyc_met"], sd.Len())
}

func TestFromSimDriveUnknownColumn(t *testing.T) {
	_, err := FromSimDrive(finishedRun(t), "warp_drive_kw")
	assert.ErrorContains(t, err, "warp_drive_kw")
}

func TestWriteFile(t *testing.T) {
	tr, err := FromSimDrive(finishedRun(t), "soc")
	require.NoError(t, err)
	dir := filepath.Join(t.TempDir(), "out")

	path, err := WriteFile(dir, "run-1", "csv", tr)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run-1.csv"), path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = WriteFile(dir, "run-1", "xml", tr)
	assert.Error(t, err)
}
