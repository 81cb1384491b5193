// Package charts renders scenario and comparison data as PNG figures
// (gonum/plot) and as interactive HTML pages (go-echarts).
package charts

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/scenario.report/internal/routes"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to plot")

var (
	edgeBlue    = color.RGBA{R: 0x00, G: 0x78, B: 0xD7, A: 0xFF}
	cleanBlue   = color.RGBA{R: 0x1f, G: 0x4e, B: 0xd8, A: 0xFF}
	blockedRed  = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xFF}
	cleanFill   = color.RGBA{R: 0x87, G: 0xce, B: 0xeb, A: 0xFF}
	blockedFill = color.RGBA{R: 0xfa, G: 0x80, B: 0x72, A: 0xFF}
)

// EdgeUsageBarPNG draws the usage ranking as a horizontal bar chart with the
// most used edge on top and saves it to path. The file format follows the
// extension of path.
func EdgeUsageBarPNG(top []routes.EdgeCount, title, path string) error {
	if len(top) == 0 {
		return ErrNoData
	}

	// Bars are drawn bottom-up, so reverse to put rank 1 at the top.
	n := len(top)
	values := make(plotter.Values, n)
	labels := make([]string, n)
	for i, ec := range top {
		values[n-1-i] = float64(ec.Count)
		labels[n-1-i] = ec.EdgeID
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Number of Vehicles Traversed"

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return fmt.Errorf("edge usage bars: %w", err)
	}
	bars.Horizontal = true
	bars.Color = edgeBlue
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(labels...)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save edge usage plot: %w", err)
	}
	return nil
}
