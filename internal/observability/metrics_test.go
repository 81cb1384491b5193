package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/banshee-data/scenario.report/internal/fsutil"
	"github.com/banshee-data/scenario.report/internal/geometry"
	"github.com/banshee-data/scenario.report/internal/scenario"
	"github.com/banshee-data/scenario.report/internal/toolexec"
)

var _ scenario.StageObserver = (*PipelineMetrics)(nil)

func TestObserveStage(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPipelineMetrics(reg)
	if err != nil {
		t.Fatalf("NewPipelineMetrics: %v", err)
	}

	m.ObserveStage("ConvertNetwork", 2*time.Second, "")
	m.ObserveStage("ConvertNetwork", 3*time.Second, "ConversionError")
	m.ObserveRun(scenario.RunFailed)

	if got := histogramSampleCount(t, reg, "scenario_stage_duration_seconds", map[string]string{"stage": "ConvertNetwork"}); got != 2 {
		t.Errorf("stage duration samples = %d, want 2", got)
	}
	if got := testutil.ToFloat64(m.StageFailures.WithLabelValues("ConvertNetwork", "ConversionError")); got != 1 {
		t.Errorf("stage failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Runs.WithLabelValues(scenario.RunFailed)); got != 1 {
		t.Errorf("failed runs = %v, want 1", got)
	}
}

func TestObserveComparison(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPipelineMetrics(reg)
	if err != nil {
		t.Fatalf("NewPipelineMetrics: %v", err)
	}

	m.ObserveComparison(nil)
	m.ObserveComparison(nil)
	m.ObserveComparison(errors.New("missing tripinfo"))

	if got := testutil.ToFloat64(m.Comparisons.WithLabelValues(ComparisonSucceeded)); got != 2 {
		t.Errorf("succeeded = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Comparisons.WithLabelValues(ComparisonFailed)); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
}

func TestNewPipelineMetrics_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPipelineMetrics(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewPipelineMetrics(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.Runs != second.Runs {
		t.Error("expected the second registration to reuse the existing collector")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *PipelineMetrics
	m.ObserveStage("Init", time.Second, "ConfigError")
	m.ObserveRun(scenario.RunSucceeded)
	m.ObserveComparison(nil)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPipelineMetrics(reg)
	if err != nil {
		t.Fatalf("NewPipelineMetrics: %v", err)
	}
	m.ObserveRun(scenario.RunSucceeded)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `scenario_runs_total{status="succeeded"} 1`) {
		t.Errorf("metrics output missing run counter:\n%s", body)
	}
}

// A failing pipeline run drives the observer through the real stage loop.
func TestPipelineReportsToMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPipelineMetrics(reg)
	if err != nil {
		t.Fatalf("NewPipelineMetrics: %v", err)
	}

	fsys := fsutil.NewMemoryFileSystem()
	runner := toolexec.NewMockRunner()
	p := scenario.New(fsys, runner, scenario.Options{WorkDir: "/work", ToolRoot: "/missing"})
	p.SetProgress(nil)
	p.SetObserver(m)

	_, err = p.Run(context.Background(), scenario.Config{
		Name:         "city",
		BBox:         geometry.BoundingBox{West: 2.15, South: 41.38, East: 2.18, North: 41.4},
		Duration:     3600,
		VehicleCount: 100,
	})
	if err == nil {
		t.Fatal("expected run to fail without a tool root")
	}

	if got := testutil.ToFloat64(m.Runs.WithLabelValues(scenario.RunFailed)); got != 1 {
		t.Errorf("failed runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StageFailures.WithLabelValues(string(scenario.StageInit), string(scenario.KindToolInvocation))); got != 1 {
		t.Errorf("init failures = %v, want 1", got)
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if matchLabels(metric.GetLabel(), labels) && metric.GetHistogram() != nil {
				return metric.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
