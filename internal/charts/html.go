package charts

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/scenario.report/internal/compare"
)

// AssetsHost is where rendered pages load the echarts scripts from.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// ComparisonHTML writes an interactive page for the base scenario: the
// congestion time series and the per-vehicle averages.
func ComparisonHTML(w io.Writer, base string, in *compare.Inputs, r compare.Report) error {
	page := components.NewPage()
	page.SetAssetsHost(AssetsHost)
	page.PageTitle = fmt.Sprintf("%s: clean vs blocked", base)
	page.AddCharts(congestionLine(base, in), averagesBar(base, r))

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render comparison page: %w", err)
	}
	return nil
}

func congestionLine(base string, in *compare.Inputs) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Network Congestion (Active Vehicles)", Subtitle: base}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Running vehicles"}),
	)
	line.AddSeries("Clean", runningPoints(in.CleanSummary))
	line.AddSeries("Blocked", runningPoints(in.BlockedSummary))
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

func runningPoints(s compare.SummarySeries) []opts.LineData {
	out := make([]opts.LineData, len(s.Samples))
	for i, v := range s.Samples {
		out[i] = opts.LineData{Value: []interface{}{v.Time, v.Running}}
	}
	return out
}

func averagesBar(base string, r compare.Report) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Average Impact per Vehicle", Subtitle: base}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis([]string{"Duration", "TimeLoss", "Waiting"}).
		AddSeries("Clean", []opts.BarData{
			{Value: round2(r.Duration.Clean)},
			{Value: round2(r.TimeLoss.MeanClean)},
			{Value: round2(r.Waiting.Clean)},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})).
		AddSeries("Blocked", []opts.BarData{
			{Value: round2(r.Duration.Blocked)},
			{Value: round2(r.TimeLoss.MeanBlocked)},
			{Value: round2(r.Waiting.Blocked)},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
