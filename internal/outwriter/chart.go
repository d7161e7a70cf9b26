package outwriter

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/huangsam/vertimeter/schema"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Chart colors.
var (
	traceColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	peakColor    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	takeOffColor = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// WriteChart renders the session height trace to path. The format follows the
// extension: .png uses gonum/plot, .html uses go-echarts.
func WriteChart(path string, summary schema.SessionSummary) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return writePNGChart(path, summary)
	case ".html":
		return writeHTMLChart(path, summary)
	default:
		return fmt.Errorf("unsupported chart format %q: use .png or .html", path)
	}
}

func chartTitle(summary schema.SessionSummary) string {
	return fmt.Sprintf("Jump height trace (%d jumps, max %.1f %s)", len(summary.Events), summary.MaxHeight, summary.Unit)
}

// writePNGChart draws the trace line with peaks and take-off markers.
func writePNGChart(path string, summary schema.SessionSummary) error {
	p := plot.New()
	p.Title.Text = chartTitle(summary)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = fmt.Sprintf("Height (%s)", summary.Unit)

	pts := make(plotter.XYs, 0, len(summary.Trace))
	for _, tp := range summary.Trace {
		if tp.Valid {
			pts = append(pts, plotter.XY{X: tp.Time, Y: tp.Height})
		}
	}
	if len(pts) > 0 {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to create trace line: %w", err)
		}
		line.Color = traceColor
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("height", line)
	}

	if len(summary.Peaks) > 0 {
		peakPts := make(plotter.XYs, len(summary.Peaks))
		for i, pk := range summary.Peaks {
			peakPts[i] = plotter.XY{X: pk.Time, Y: pk.Value}
		}
		scatter, err := plotter.NewScatter(peakPts)
		if err != nil {
			return fmt.Errorf("failed to create peak markers: %w", err)
		}
		scatter.Color = peakColor
		scatter.Shape = draw.TriangleGlyph{}
		scatter.Radius = vg.Points(4)
		p.Add(scatter)
		p.Legend.Add("peaks", scatter)
	}

	if len(summary.Events) > 0 {
		eventPts := make(plotter.XYs, len(summary.Events))
		for i, e := range summary.Events {
			eventPts[i] = plotter.XY{X: e.TakeOffTime, Y: 0}
		}
		scatter, err := plotter.NewScatter(eventPts)
		if err != nil {
			return fmt.Errorf("failed to create take-off markers: %w", err)
		}
		scatter.Color = takeOffColor
		scatter.Shape = draw.CircleGlyph{}
		scatter.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add("take-off", scatter)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(12*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save chart %s: %w", path, err)
	}
	return nil
}

// writeHTMLChart renders an interactive line chart with peak markers overlaid.
func writeHTMLChart(path string, summary schema.SessionSummary) error {
	peakAt := make(map[int]float64, len(summary.Peaks))
	for _, pk := range summary.Peaks {
		peakAt[pk.FrameIndex] = pk.Value
	}

	x := make([]string, 0, len(summary.Trace))
	heights := make([]opts.LineData, 0, len(summary.Trace))
	peaks := make([]opts.ScatterData, 0, len(summary.Peaks))
	for _, tp := range summary.Trace {
		if !tp.Valid {
			continue
		}
		label := fmt.Sprintf("%.3f", tp.Time)
		x = append(x, label)
		heights = append(heights, opts.LineData{Value: tp.Height})
		if v, ok := peakAt[tp.FrameIndex]; ok {
			peaks = append(peaks, opts.ScatterData{Value: []any{label, v}, Symbol: "triangle", SymbolSize: 12})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "vertimeter", Width: "1200px", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: chartTitle(summary), Subtitle: summary.SessionID}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: fmt.Sprintf("Height (%s)", summary.Unit), NameLocation: "middle", NameGap: 35}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(x).
		AddSeries("height", heights, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	scatter := charts.NewScatter()
	scatter.SetXAxis(x).AddSeries("peaks", peaks)
	line.Overlap(scatter)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write chart %s: %w", path, err)
	}
	return nil
}
