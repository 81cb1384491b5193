package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/scenario.report/internal/compare"
	"github.com/banshee-data/scenario.report/internal/geometry"
	"github.com/banshee-data/scenario.report/internal/routes"
	"github.com/banshee-data/scenario.report/internal/scenario"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func okResult(id string, started time.Time) *scenario.Result {
	return &scenario.Result{
		RunID:         id,
		Name:          "city",
		TopEdges:      []routes.EdgeCount{{EdgeID: "a", Count: 3}, {EdgeID: "b", Count: 2}},
		Geometry:      geometry.Result{PlaygroundWidth: 1500, PlaygroundHeight: 750, ReferenceX: 750, ReferenceY: 375},
		CacheDecision: scenario.CacheHit,
		Warnings:      []string{"polygon conversion skipped"},
		StartedAt:     started,
		FinishedAt:    started.Add(90 * time.Second),
	}
}

func TestOpen_AppliesMigrations(t *testing.T) {
	db := setupTestDB(t)

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("version = %d dirty = %v, want 1 clean", version, dirty)
	}

	for _, table := range []string{"scenario_runs", "scenario_edge_usage", "comparison_reports"} {
		var n int
		if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n); err != nil {
			t.Fatalf("query %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.RecordRun(okResult("r1", t0)); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("got %d runs after reopen, want 1", len(runs))
	}
}

func TestMigrateDown(t *testing.T) {
	db := setupTestDB(t)
	if err := db.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='scenario_runs'`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("scenario_runs still present after down migration")
	}
}

func TestOpenUnmigrated(t *testing.T) {
	db, err := OpenUnmigrated(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenUnmigrated: %v", err)
	}
	defer db.Close()

	version, _, err := db.MigrateVersion()
	if err != nil || version != 0 {
		t.Fatalf("fresh database version = %d, err %v; want 0", version, err)
	}
	if err := db.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if version, _, _ = db.MigrateVersion(); version != 1 {
		t.Errorf("version after up = %d, want 1", version)
	}
}

func TestRecordRun_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	res := okResult("run-1", t0)
	if err := db.RecordRun(res); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	want := &RunRecord{
		RunID:         "run-1",
		Name:          "city",
		Status:        scenario.RunSucceeded,
		CacheDecision: "CacheHit",
		PlaygroundX:   1500,
		PlaygroundY:   750,
		RSUX:          750,
		RSUY:          375,
		Warnings:      1,
		StartedAt:     t0,
		FinishedAt:    t0.Add(90 * time.Second),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetRun mismatch (-want +got):\n%s", diff)
	}

	edges, err := db.RunEdges("run-1")
	if err != nil {
		t.Fatalf("RunEdges: %v", err)
	}
	if diff := cmp.Diff(res.TopEdges, edges); diff != "" {
		t.Errorf("RunEdges mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRun_Failure(t *testing.T) {
	db := setupTestDB(t)
	res := &scenario.Result{
		RunID:     "run-f",
		Name:      "city",
		StartedAt: t0,
		Failure: &scenario.StageError{
			Stage: scenario.StageConvertNetwork,
			Kind:  scenario.KindConversion,
			Err:   errors.New("netconvert: exit 1"),
		},
	}
	if err := db.RecordRun(res); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	got, err := db.GetRun("run-f")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != scenario.RunFailed || got.FailedStage != "ConvertNetwork" || got.Cause != string(scenario.KindConversion) {
		t.Errorf("got status=%s stage=%s cause=%s", got.Status, got.FailedStage, got.Cause)
	}
	edges, err := db.RunEdges("run-f")
	if err != nil {
		t.Fatalf("RunEdges: %v", err)
	}
	if len(edges) != 0 {
		t.Errorf("failed run has %d edges", len(edges))
	}
}

func TestRecordRun_DuplicateID(t *testing.T) {
	db := setupTestDB(t)
	if err := db.RecordRun(okResult("dup", t0)); err != nil {
		t.Fatalf("first RecordRun: %v", err)
	}
	if err := db.RecordRun(okResult("dup", t0)); err == nil {
		t.Fatal("expected duplicate run id to fail")
	}
	edges, _ := db.RunEdges("dup")
	if len(edges) != 2 {
		t.Errorf("duplicate insert changed edges: %v", edges)
	}
}

func TestGetRun_Unknown(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.GetRun("nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestListRuns_OrderAndLimit(t *testing.T) {
	db := setupTestDB(t)
	for i, id := range []string{"old", "mid", "new"} {
		if err := db.RecordRun(okResult(id, t0.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("RecordRun %s: %v", id, err)
		}
	}

	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.RunID)
	}
	if diff := cmp.Diff([]string{"new", "mid", "old"}, ids); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	runs, err = db.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns(2): %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "new" {
		t.Errorf("limited list = %+v", runs)
	}
}

func TestComparisons(t *testing.T) {
	db := setupTestDB(t)

	first := compare.Report{Vehicles: compare.VehicleStats{TotalClean: 10, TotalBlocked: 9}}
	second := compare.Report{TimeLoss: compare.TimeLossStats{MeanClean: 4, MeanBlocked: 9, Delta: 5}}

	id1, err := db.RecordComparison("city", "/work/city-logs", first, t0)
	if err != nil {
		t.Fatalf("RecordComparison: %v", err)
	}
	id2, err := db.RecordComparison("city", "/work/city-logs", second, t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("RecordComparison: %v", err)
	}
	if id1 == id2 || id1 == "" {
		t.Fatalf("ids not distinct: %q %q", id1, id2)
	}

	got, err := db.ListComparisons(0)
	if err != nil {
		t.Fatalf("ListComparisons: %v", err)
	}
	want := []ComparisonRecord{
		{ReportID: id2, BaseName: "city", Folder: "/work/city-logs", Report: second, CreatedAt: t0.Add(time.Minute)},
		{ReportID: id1, BaseName: "city", Folder: "/work/city-logs", Report: first, CreatedAt: t0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListComparisons mismatch (-want +got):\n%s", diff)
	}

	got, err = db.ListComparisons(1)
	if err != nil {
		t.Fatalf("ListComparisons(1): %v", err)
	}
	if len(got) != 1 || got[0].ReportID != id2 {
		t.Errorf("limited list = %+v", got)
	}
}
