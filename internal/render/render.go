// Package render draws aggregated charts as PNG images with gonum/plot.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/analysis"
)

// ErrNoData is returned for charts without any points.
var ErrNoData = errors.New("chart has no data")

// Default canvas size in inches.
const (
	DefaultWidthIn  = 6.4
	DefaultHeightIn = 4.8
)

// Options controls the image size.
type Options struct {
	WidthIn  float64
	HeightIn float64
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.WidthIn, o.HeightIn
	if w <= 0 {
		w = DefaultWidthIn
	}
	if h <= 0 {
		h = DefaultHeightIn
	}
	return vg.Length(w) * vg.Inch, vg.Length(h) * vg.Inch
}

var (
	barColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	lineColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// Render draws chart and returns PNG bytes.
func Render(chart analysis.Chart, opt Options) ([]byte, error) {
	if len(chart.Points) == 0 {
		return nil, fmt.Errorf("%s: %w", chart.Title, ErrNoData)
	}
	var (
		p   *plot.Plot
		err error
	)
	switch chart.Spec.Kind {
	case analysis.ChartBar:
		p, err = barPlot(chart)
	case analysis.ChartLine:
		p, err = linePlot(chart)
	default:
		return nil, fmt.Errorf("unsupported chart kind %q", chart.Spec.Kind)
	}
	if err != nil {
		return nil, err
	}
	return writePNG(p, opt)
}

func barPlot(chart analysis.Chart) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = chart.Title
	p.X.Label.Text = chart.Spec.X
	p.Y.Label.Text = chart.Spec.Y

	values := make(plotter.Values, len(chart.Points))
	labels := make([]string, len(chart.Points))
	for i, pt := range chart.Points {
		values[i] = pt.Value
		labels[i] = pt.Label
	}
	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return nil, fmt.Errorf("bar chart %s: %w", chart.Title, err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	return p, nil
}

func linePlot(chart analysis.Chart) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = chart.Title
	p.X.Label.Text = chart.Spec.X
	p.Y.Label.Text = chart.Spec.Y
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}

	pts := make(plotter.XYs, len(chart.Points))
	for i, pt := range chart.Points {
		pts[i] = plotter.XY{X: float64(pt.Time.Unix()), Y: pt.Value}
	}
	line, marks, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("line chart %s: %w", chart.Title, err)
	}
	line.Color = lineColor
	line.LineStyle.Width = vg.Points(1.5)
	marks.Color = lineColor
	p.Add(plotter.NewGrid(), line, marks)
	return p, nil
}

func writePNG(p *plot.Plot, opt Options) ([]byte, error) {
	w, h := opt.size()
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("create plot writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write plot: %w", err)
	}
	return buf.Bytes(), nil
}
