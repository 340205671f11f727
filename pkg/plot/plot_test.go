package plot

import (
	"bytes"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drivesim/core/cycle"
	"github.com/kilianp07/drivesim/core/model"
	"github.com/kilianp07/drivesim/core/simdrive"
	"github.com/kilianp07/drivesim/core/vehicle"
)

func run(t *testing.T, preset string) *simdrive.SimDrive {
	t.Helper()
	p, err := vehicle.Preset(preset)
	require.NoError(t, err)
	v, err := vehicle.Build(p, model.DefaultProperties())
	require.NoError(t, err)
	c, err := cycle.Trapezoid("trap", 20, 10, 20, 10, 1)
	require.NoError(t, err)
	sd, err := simdrive.New(c, v)
	require.NoError(t, err)
	sd.Run(nil)
	return sd
}

func TestWritePNG(t *testing.T) {
	sd := run(t, "compact_bev")
	p, err := Speed(sd)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, p))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, int(WidthIn*DPI), img.Bounds().Dx())
	assert.Equal(t, int(HeightIn*DPI), img.Bounds().Dy())
}

func TestSOCAxisRange(t *testing.T) {
	p, err := SOC(run(t, "compact_bev"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Y.Min)
	assert.Equal(t, 1.0, p.Y.Max)
}

func TestSaveAll(t *testing.T) {
	dir := t.TempDir()
	paths, err := SaveAll(dir, "bev", run(t, "compact_bev"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "bev_speed.png"),
		filepath.Join(dir, "bev_power.png"),
		filepath.Join(dir, "bev_soc.png"),
	}, paths)

	paths, err = SaveAll(dir, "conv", run(t, "midsize_conventional"))
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestLinePlotLengthMismatch(t *testing.T) {
	_, err := linePlot("bad", "y", []float64{0, 1}, line{name: "short", ys: []float64{1}})
	assert.Error(t, err)
}
