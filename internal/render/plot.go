// Package render draws tracks and placed vehicles as PNG images (gonum/plot)
// and as an interactive HTML chart (go-echarts).
package render

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/trackviz/internal/curve"
	"github.com/banshee-data/trackviz/internal/fsutil"
	"github.com/banshee-data/trackviz/internal/geom"
	"github.com/banshee-data/trackviz/internal/monitoring"
	"github.com/banshee-data/trackviz/internal/sim"
	"github.com/banshee-data/trackviz/internal/vehicle"
)

var (
	trackColour = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
	edgeColour  = color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}
	trajColour  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
)

var namedColours = map[string]color.RGBA{
	"black": {A: 0xff},
	"red":   {R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	"blue":  {R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	"green": {R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	"grey":  {R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
	"gray":  {R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
}

// Colour resolves a colour name, defaulting to black for unknown names.
func Colour(name string) color.Color {
	if c, ok := namedColours[strings.ToLower(name)]; ok {
		return c
	}
	return namedColours["black"]
}

// FramePlotter is a sim.FrameSink that writes every Every-th frame as
// frame_%05d.png under Dir. The view is a square of side 2·Window metres
// centred on the rear axle.
type FramePlotter struct {
	FS     fsutil.FileSystem
	Dir    string
	Every  int
	Curve  *curve.Curve
	Width  float64 // track width; edges are drawn when positive
	Colour color.Color
	Window float64 // metres; defaults to 10
	Size   vg.Length

	written int
}

// Written returns the number of images produced so far.
func (p *FramePlotter) Written() int { return p.written }

// WriteFrame implements sim.FrameSink.
func (p *FramePlotter) WriteFrame(step int, st vehicle.State, f vehicle.Frame) error {
	if p.Every <= 0 || step%p.Every != 0 {
		return nil
	}
	window := p.Window
	if window <= 0 {
		window = 10
	}
	size := p.Size
	if size <= 0 {
		size = 6 * vg.Inch
	}
	colour := p.Colour
	if colour == nil {
		colour = Colour("black")
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("step %d  s=%.2f m  v=%.2f m/s  steer=%.3f rad", step, st.S, st.V, st.Steer)
	pl.X.Label.Text = "X (m)"
	pl.Y.Label.Text = "Y (m)"

	if p.Curve != nil {
		if err := addTrack(pl, p.Curve, p.Width); err != nil {
			return err
		}
	}
	for _, poly := range f.Polygons() {
		if err := addPolygon(pl, poly, colour); err != nil {
			return err
		}
	}

	// Fix the view after adding data; Add widens the axes to fit.
	pl.X.Min, pl.X.Max = f.X-window, f.X+window
	pl.Y.Min, pl.Y.Max = f.Y-window, f.Y+window

	fsys := p.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	path := filepath.Join(p.Dir, fmt.Sprintf("frame_%05d.png", step))
	if err := savePlot(fsys, pl, size, size, path); err != nil {
		return err
	}
	p.written++
	monitoring.Tracef("wrote %s", path)
	return nil
}

// PlotTrajectory writes the track and the rear-axle trajectory of a run.
func PlotTrajectory(fsys fsutil.FileSystem, path string, c *curve.Curve, width float64, sum sim.Summary) error {
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("Trajectory (%d steps)", sum.Steps)
	pl.X.Label.Text = "X (m)"
	pl.Y.Label.Text = "Y (m)"

	if c != nil {
		if err := addTrack(pl, c, width); err != nil {
			return err
		}
	}
	if len(sum.Trajectory) > 1 {
		xys := make(plotter.XYs, len(sum.Trajectory))
		for i, pt := range sum.Trajectory {
			xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Color = trajColour
		line.Width = vg.Points(1.5)
		pl.Add(line)
		pl.Legend.Add("rear axle", line)
	}
	squareAxes(pl)
	pl.Legend.Top = true

	return savePlot(fsys, pl, 8*vg.Inch, 8*vg.Inch, path)
}

// PlotCurveProfile writes heading and curvature against the spline
// parameter, one above the other.
func PlotCurveProfile(fsys fsutil.FileSystem, path string, c *curve.Curve) error {
	if c == nil || c.Len() < 2 {
		return fmt.Errorf("curve profile needs at least 2 samples")
	}

	yaw := plot.New()
	yaw.Title.Text = "Heading"
	yaw.X.Label.Text = "s (m)"
	yaw.Y.Label.Text = "yaw (rad)"

	k := plot.New()
	k.Title.Text = "Curvature"
	k.X.Label.Text = "s (m)"
	k.Y.Label.Text = "k (1/m)"

	for _, series := range []struct {
		p *plot.Plot
		v []float64
	}{{yaw, c.Yaw}, {k, c.K}} {
		xys := make(plotter.XYs, c.Len())
		for i := range xys {
			xys[i] = plotter.XY{X: c.S[i], Y: series.v[i]}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Width = vg.Points(1)
		series.p.Add(line)
		series.p.Add(plotter.NewGrid())
	}

	w, h := 10*vg.Inch, 8*vg.Inch
	img := vgimg.New(w, h)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Millimeter * 4, PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2}
	canvases := plot.Align([][]*plot.Plot{{yaw}, {k}}, tiles, dc)
	yaw.Draw(canvases[0][0])
	k.Draw(canvases[1][0])

	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func addTrack(pl *plot.Plot, c *curve.Curve, width float64) error {
	centre := make(plotter.XYs, c.Len())
	for i := range centre {
		centre[i] = plotter.XY{X: c.X[i], Y: c.Y[i]}
	}
	line, err := plotter.NewLine(centre)
	if err != nil {
		return err
	}
	line.Color = trackColour
	line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	pl.Add(line)

	if width <= 0 {
		return nil
	}
	for _, side := range []float64{0.5 * width, -0.5 * width} {
		edge := make(plotter.XYs, c.Len())
		for i := range edge {
			n := geom.Heading(c.Yaw[i] + math.Pi/2).Mul(side)
			edge[i] = plotter.XY{X: c.X[i] + n.X, Y: c.Y[i] + n.Y}
		}
		l, err := plotter.NewLine(edge)
		if err != nil {
			return err
		}
		l.Color = edgeColour
		pl.Add(l)
	}
	return nil
}

func addPolygon(pl *plot.Plot, poly geom.Polygon, c color.Color) error {
	xs, ys := poly.XY()
	xys := make(plotter.XYs, len(xs))
	for i := range xs {
		xys[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(1)
	pl.Add(line)
	return nil
}

// squareAxes widens the shorter axis so that metres look the same in x and
// y on a square image.
func squareAxes(pl *plot.Plot) {
	dx := pl.X.Max - pl.X.Min
	dy := pl.Y.Max - pl.Y.Min
	if dx > dy {
		mid := 0.5 * (pl.Y.Min + pl.Y.Max)
		pl.Y.Min, pl.Y.Max = mid-dx/2, mid+dx/2
	} else {
		mid := 0.5 * (pl.X.Min + pl.X.Max)
		pl.X.Min, pl.X.Max = mid-dy/2, mid+dy/2
	}
}

func savePlot(fsys fsutil.FileSystem, pl *plot.Plot, w, h vg.Length, path string) error {
	wt, err := pl.WriterTo(w, h, "png")
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
