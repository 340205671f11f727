// Package plot renders speed, state of charge and power traces of a finished
// run to PNG.
package plot

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/kilianp07/drivesim/core/model"
	"github.com/kilianp07/drivesim/core/simdrive"
)

// Size of the rendered images.
const (
	WidthIn  = 8.0
	HeightIn = 5.0
	DPI      = 150
)

type line struct {
	name  string
	ys    []float64
	dash  bool
	color color.Color
}

func linePlot(title, ylabel string, xs []float64, lines ...line) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = ylabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	for i, l := range lines {
		if len(l.ys) != len(xs) || len(xs) == 0 {
			return nil, fmt.Errorf("plot %q: series %q has %d points for %d times", title, l.name, len(l.ys), len(xs))
		}
		pts := make(plotter.XYs, len(xs))
		for j := range xs {
			pts[j].X, pts[j].Y = xs[j], l.ys[j]
		}
		ln, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		ln.LineStyle.Width = vg.Points(1.5)
		ln.LineStyle.Color = plotutil.Color(i)
		if l.color != nil {
			ln.LineStyle.Color = l.color
		}
		if l.dash {
			ln.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		}
		p.Add(ln)
		p.Legend.Add(l.name, ln)
	}
	return p, nil
}

// Speed plots the prescribed and achieved speed in mph.
func Speed(sd *simdrive.SimDrive) (*plot.Plot, error) {
	cyc, st := sd.Cycle(), sd.State()
	target := make([]float64, cyc.Len())
	for i := range target {
		target[i] = cyc.MPH(i)
	}
	return linePlot(fmt.Sprintf("%s on %s: speed", sd.Vehicle().Name, sd.BaseCycle().Name), "speed (mph)", cyc.TimeS,
		line{name: "cycle", ys: target, dash: true, color: color.Gray{Y: 96}},
		line{name: "achieved", ys: st.MPHAch},
	)
}

// SOC plots the battery state of charge against its operating window.
func SOC(sd *simdrive.SimDrive) (*plot.Plot, error) {
	cyc, st, v := sd.Cycle(), sd.State(), sd.Vehicle()
	n := cyc.Len()
	minSOC, maxSOC := make([]float64, n), make([]float64, n)
	for i := range minSOC {
		minSOC[i], maxSOC[i] = v.MinSOC, v.MaxSOC
	}
	p, err := linePlot(fmt.Sprintf("%s on %s: state of charge", v.Name, sd.BaseCycle().Name), "soc", cyc.TimeS,
		line{name: "soc", ys: st.SOC},
		line{name: "min", ys: minSOC, dash: true, color: color.Gray{Y: 128}},
		line{name: "max", ys: maxSOC, dash: true, color: color.Gray{Y: 128}},
	)
	if err != nil {
		return nil, err
	}
	p.Y.Min, p.Y.Max = 0, 1
	return p, nil
}

// Power plots the fuel converter, battery and motor output in kW.
func Power(sd *simdrive.SimDrive) (*plot.Plot, error) {
	cyc, st := sd.Cycle(), sd.State()
	return linePlot(fmt.Sprintf("%s on %s: power", sd.Vehicle().Name, sd.BaseCycle().Name), "power (kW)", cyc.TimeS,
		line{name: "fuel converter", ys: st.FCKWOutAch},
		line{name: "battery", ys: st.ESSKWOutAch},
		line{name: "motor", ys: st.MCMechKWOutAch},
		line{name: "traction req", ys: st.CycTracKWReq, dash: true},
	)
}

// WritePNG draws p onto a PNG canvas and writes it to w.
func WritePNG(w io.Writer, p *plot.Plot) error {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(WidthIn)*vg.Inch, vg.Length(HeightIn)*vg.Inch),
		vgimg.UseDPI(DPI),
	)
	p.Draw(draw.New(c))
	_, err := vgimg.PngCanvas{Canvas: c}.WriteTo(w)
	return err
}

type builder struct {
	kind  string
	build func(*simdrive.SimDrive) (*plot.Plot, error)
}

// SaveAll renders every trace of sd under dir as "<name>_<kind>.png". The
// state of charge plot is skipped for vehicles without a battery.
func SaveAll(dir, name string, sd *simdrive.SimDrive) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create directory: %w", err)
	}
	builders := []builder{{"speed", Speed}, {"power", Power}}
	if sd.Vehicle().PowertrainType != model.Conventional {
		builders = append(builders, builder{"soc", SOC})
	}
	var paths []string
	for _, b := range builders {
		p, err := b.build(sd)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, name+"_"+b.kind+".png")
		if err := save(path, p); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func save(path string, p *plot.Plot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := WritePNG(bw, p); err != nil {
		_ = f.Close()
		return fmt.Errorf("cannot write png: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
