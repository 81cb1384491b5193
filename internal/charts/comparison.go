package charts

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/scenario.report/internal/compare"
)

// Comparison figure names; each is saved as Research_<name>.png.
const (
	FigureCongestion   = "congestion"
	FigureDistribution = "distribution"
	FigureScatter      = "scatter"
	FigureLength       = "length"
	FigureBars         = "bars"
)

// HistogramBins is the bin count of the time-loss distribution.
const HistogramBins = 30

// FigurePath returns dir/Research_<name>.png.
func FigurePath(dir, name string) string {
	return filepath.Join(dir, "Research_"+name+".png")
}

// ComparisonPNGs renders the five comparison figures into dir and returns
// the written paths in figure order. A figure whose series are all empty is
// skipped.
func ComparisonPNGs(dir string, in *compare.Inputs) ([]string, error) {
	report := in.Compare()
	figures := []struct {
		name  string
		build func() (*plot.Plot, error)
	}{
		{FigureCongestion, func() (*plot.Plot, error) { return congestionPlot(in.CleanSummary, in.BlockedSummary) }},
		{FigureDistribution, func() (*plot.Plot, error) { return distributionPlot(in.CleanTrips, in.BlockedTrips) }},
		{FigureScatter, func() (*plot.Plot, error) { return scatterPlot(in.CleanTrips, in.BlockedTrips) }},
		{FigureLength, func() (*plot.Plot, error) { return lengthPlot(in.CleanTrips, in.BlockedTrips) }},
		{FigureBars, func() (*plot.Plot, error) { return averagesPlot(report) }},
	}

	var written []string
	for _, f := range figures {
		p, err := f.build()
		if err != nil {
			return written, fmt.Errorf("%s plot: %w", f.name, err)
		}
		if p == nil {
			continue
		}
		path := FigurePath(dir, f.name)
		if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
			return written, fmt.Errorf("save %s plot: %w", f.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func topRightLegend(p *plot.Plot) {
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
}

func congestionPlot(clean, blocked compare.SummarySeries) (*plot.Plot, error) {
	if len(clean.Samples) == 0 && len(blocked.Samples) == 0 {
		return nil, nil
	}
	p := plot.New()
	p.Title.Text = "Network Congestion (Active Vehicles)"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Running vehicles"

	for _, s := range []struct {
		series compare.SummarySeries
		label  string
		col    colorFor
	}{
		{clean, "Clean", cleanColor},
		{blocked, "Blocked", blockedColor},
	} {
		if len(s.series.Samples) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(s.series.Samples))
		for i, v := range s.series.Samples {
			xys[i] = plotter.XY{X: v.Time, Y: float64(v.Running)}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		line.Color = s.col.stroke()
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.label, line)
	}
	topRightLegend(p)
	return p, nil
}

func distributionPlot(clean, blocked compare.TripSet) (*plot.Plot, error) {
	if clean.Count() == 0 && blocked.Count() == 0 {
		return nil, nil
	}
	p := plot.New()
	p.Title.Text = "Time Loss Probability Density"
	p.X.Label.Text = "Seconds Lost"
	p.Y.Label.Text = "Density"

	for _, s := range []struct {
		set   compare.TripSet
		label string
		col   colorFor
	}{
		{clean, "Clean", cleanColor},
		{blocked, "Blocked", blockedColor},
	} {
		if s.set.Count() == 0 {
			continue
		}
		h, err := plotter.NewHist(plotter.Values(s.set.TimeLosses()), HistogramBins)
		if err != nil {
			return nil, err
		}
		h.Normalize(1)
		h.FillColor = s.col.translucent()
		h.LineStyle.Color = s.col.stroke()
		p.Add(h)
		p.Legend.Add(s.label, h)
	}
	topRightLegend(p)
	return p, nil
}

func scatterPlot(clean, blocked compare.TripSet) (*plot.Plot, error) {
	if clean.Count() == 0 && blocked.Count() == 0 {
		return nil, nil
	}
	p := plot.New()
	p.Title.Text = "Impact Timing (Departure vs Delay)"
	p.X.Label.Text = "Departure Time (s)"
	p.Y.Label.Text = "Time Loss (s)"

	for _, s := range []struct {
		set    compare.TripSet
		label  string
		col    colorFor
		radius vg.Length
	}{
		{clean, "Clean", cleanColor, vg.Points(1.5)},
		{blocked, "Blocked", blockedColor, vg.Points(2)},
	} {
		if s.set.Count() == 0 {
			continue
		}
		xys := make(plotter.XYs, s.set.Count())
		for i, r := range s.set.Records {
			xys[i] = plotter.XY{X: r.Depart, Y: r.TimeLoss}
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = s.col.translucent()
		sc.GlyphStyle.Radius = s.radius
		p.Add(sc)
		p.Legend.Add(s.label, sc)
	}
	topRightLegend(p)
	return p, nil
}

func lengthPlot(clean, blocked compare.TripSet) (*plot.Plot, error) {
	if clean.Count() == 0 && blocked.Count() == 0 {
		return nil, nil
	}
	p := plot.New()
	p.Title.Text = "Route Length Comparison"
	p.Y.Label.Text = "Distance (m)"

	var names []string
	for _, s := range []struct {
		set   compare.TripSet
		label string
	}{
		{clean, "Clean"},
		{blocked, "Blocked"},
	} {
		if s.set.Count() == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(len(names)), plotter.Values(s.set.RouteLengths()))
		if err != nil {
			return nil, err
		}
		p.Add(box)
		names = append(names, s.label)
	}
	p.NominalX(names...)
	return p, nil
}

func averagesPlot(r compare.Report) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Average Impact per Vehicle"
	p.Y.Label.Text = "Seconds"

	width := vg.Points(20)
	clean := plotter.Values{r.Duration.Clean, r.TimeLoss.MeanClean, r.Waiting.Clean}
	blocked := plotter.Values{r.Duration.Blocked, r.TimeLoss.MeanBlocked, r.Waiting.Blocked}

	cleanBars, err := plotter.NewBarChart(clean, width)
	if err != nil {
		return nil, err
	}
	cleanBars.Color = cleanFill
	cleanBars.LineStyle.Width = 0
	cleanBars.Offset = -width / 2

	blockedBars, err := plotter.NewBarChart(blocked, width)
	if err != nil {
		return nil, err
	}
	blockedBars.Color = blockedFill
	blockedBars.LineStyle.Width = 0
	blockedBars.Offset = width / 2

	p.Add(cleanBars, blockedBars)
	p.Legend.Add("Clean", cleanBars)
	p.Legend.Add("Blocked", blockedBars)
	topRightLegend(p)
	p.NominalX("Duration", "TimeLoss", "Waiting")
	return p, nil
}
