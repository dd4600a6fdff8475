package render

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/trackviz/internal/curve"
	"github.com/banshee-data/trackviz/internal/sim"
)

// maxChartPoints caps each series so the page stays responsive.
const maxChartPoints = 2000

// WriteTrajectoryHTML renders the track centre line and the rear-axle
// trajectory as an interactive scatter chart.
func WriteTrajectoryHTML(w io.Writer, title string, c *curve.Curve, sum sim.Summary) error {
	var trackData, trajData []opts.ScatterData
	minV, maxV := math.Inf(1), math.Inf(-1)
	extend := func(x, y float64) {
		minV = math.Min(minV, math.Min(x, y))
		maxV = math.Max(maxV, math.Max(x, y))
	}

	if c != nil {
		step := stride(c.Len())
		trackData = make([]opts.ScatterData, 0, c.Len()/step+1)
		for i := 0; i < c.Len(); i += step {
			trackData = append(trackData, opts.ScatterData{Value: []interface{}{c.X[i], c.Y[i]}})
			extend(c.X[i], c.Y[i])
		}
	}
	step := stride(len(sum.Trajectory))
	trajData = make([]opts.ScatterData, 0, len(sum.Trajectory)/step+1)
	for i := 0; i < len(sum.Trajectory); i += step {
		p := sum.Trajectory[i]
		trajData = append(trajData, opts.ScatterData{Value: []interface{}{p.X, p.Y, i}})
		extend(p.X, p.Y)
	}
	if len(trackData) == 0 && len(trajData) == 0 {
		return fmt.Errorf("nothing to chart")
	}

	// Equal axis ranges keep the track round.
	pad := 0.05 * (maxV - minV)
	lower, upper := minV-pad, maxV+pad

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("steps=%d samples=%d", sum.Steps, len(trackData))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: lower, Max: upper, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: lower, Max: upper, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)
	if len(trackData) > 0 {
		scatter.AddSeries("track", trackData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))
	}
	if len(trajData) > 0 {
		scatter.AddSeries("rear axle", trajData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func stride(n int) int {
	if n <= maxChartPoints {
		return 1
	}
	return (n + maxChartPoints - 1) / maxChartPoints
}
