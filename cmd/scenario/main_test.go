package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scenario.report/internal/api"
	"github.com/banshee-data/scenario.report/internal/db"
	"github.com/banshee-data/scenario.report/internal/fsutil"
	"github.com/banshee-data/scenario.report/internal/scenario"
	"github.com/banshee-data/scenario.report/internal/testutil"
	"github.com/banshee-data/scenario.report/internal/toolexec"
)

func testApp(fsys fsutil.FileSystem, runner toolexec.Runner) (*app, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &app{
		stdout: &stdout,
		stderr: &stderr,
		getenv: func(string) string { return "" },
		fs:     fsys,
		newRunner: func(string, bool, bool) toolexec.Runner {
			return runner
		},
	}, &stdout, &stderr
}

func TestRun_Dispatch(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		stdout   string
		stderr   string
	}{
		{"no args", nil, 1, "Usage: scenario", ""},
		{"help", []string{"help"}, 0, "Commands:", ""},
		{"version", []string{"version"}, 0, "scenario ", ""},
		{"unknown", []string{"deploy"}, 1, "Usage: scenario", "Unknown command: deploy"},
		{"generate without name", []string{"generate", "--no-history"}, 1, "", "--name is required"},
		{"bad flag", []string{"generate", "--bogus"}, 1, "", "flag provided but not defined"},
		{"stray argument", []string{"history", "extra"}, 1, "", "unexpected arguments"},
		{"flag help", []string{"compare", "-h"}, 0, "", "-base"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, stdout, stderr := testApp(fsutil.NewMemoryFileSystem(), toolexec.NewMockRunner())
			assert.Equal(t, tt.wantCode, a.run(tt.args))
			assert.Contains(t, stdout.String(), tt.stdout)
			assert.Contains(t, stderr.String(), tt.stderr)
		})
	}
}

func TestGenerate_BadBoundingBox(t *testing.T) {
	a, _, stderr := testApp(fsutil.NewMemoryFileSystem(), toolexec.NewMockRunner())
	code := a.run([]string{"generate", "--name", "city", "--bbox", "1,2,3", "--no-history"})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error:")
}

// cachedWorkDir seeds a work dir whose map is already downloaded and a
// runner that produces the network, trips and routes.
func cachedWorkDir(t *testing.T) (*fsutil.MemoryFileSystem, *toolexec.MockRunner) {
	t.Helper()
	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, mem.MkdirAll("/sumo/tools", 0o755))
	require.NoError(t, mem.MkdirAll("/work", 0o755))
	require.NoError(t, mem.WriteFile("/work/city.osm", []byte(strings.Repeat("x", 20000)), 0o644))

	runner := toolexec.NewMockRunner()
	runner.Handler = func(c toolexec.Call) (toolexec.Output, error) {
		key := c.Base()
		if key == "python3" && len(c.Args) > 0 {
			key = filepath.Base(c.Args[0])
		}
		switch key {
		case "netconvert":
			_ = mem.WriteFile("/work/city.net.xml", []byte(`<net><location convBoundary="0.00,0.00,1000.00,500.00"/></net>`), 0o644)
		case "randomTrips.py":
			_ = mem.WriteFile("/work/city.trip.xml", []byte("<routes/>"), 0o644)
		case "duarouter":
			_ = mem.WriteFile("/work/city.rou.xml", []byte(`<routes><vehicle id="0"><route edges="a b a"/></vehicle></routes>`), 0o644)
		}
		return toolexec.Output{}, nil
	}
	return mem, runner
}

func TestGenerate_CachedMap(t *testing.T) {
	mem, runner := cachedWorkDir(t)
	a, stdout, stderr := testApp(mem, runner)

	code := a.run([]string{
		"generate", "--name", "city", "--workdir", "/work", "--tool-root", "/sumo",
		"--duration", "600", "--vehicles", "50", "--no-history", "--no-chart", "--env", "",
	})
	require.Equal(t, 0, code, stderr.String())

	assert.Contains(t, stdout.String(), "complete: /work/city.launchd.xml")
	assert.True(t, mem.Exists("/work/city.sumo.cfg"))
	assert.True(t, mem.Exists("/work/city.omnetpp.ini"))
	assert.True(t, runner.Called("netconvert"))
	assert.True(t, runner.Called("duarouter"))
}

func TestGenerate_ToolFailureExitsNonZero(t *testing.T) {
	mem, runner := cachedWorkDir(t)
	runner.Handler = func(c toolexec.Call) (toolexec.Output, error) {
		return toolexec.Failure(c, 1, "cannot read input")
	}
	a, _, stderr := testApp(mem, runner)

	code := a.run([]string{
		"generate", "--name", "city", "--workdir", "/work", "--tool-root", "/sumo",
		"--no-history", "--env", "",
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error:")
}

func TestGenerate_RecordsHistory(t *testing.T) {
	mem, runner := cachedWorkDir(t)
	a, _, stderr := testApp(mem, runner)
	dbPath := filepath.Join(t.TempDir(), "history.db")

	code := a.run([]string{
		"generate", "--name", "city", "--workdir", "/work", "--tool-root", "/sumo",
		"--no-chart", "--db", dbPath, "--env", "",
	})
	require.Equal(t, 0, code, stderr.String())

	history, err := db.Open(dbPath)
	require.NoError(t, err)
	defer history.Close()
	runs, err := history.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "city", runs[0].Name)
	assert.Equal(t, scenario.RunSucceeded, runs[0].Status)
}

func TestCompare_WritesReportAndHistory(t *testing.T) {
	parent := t.TempDir()
	folder := testutil.WriteComparisonLogs(t, filepath.Join(parent, "Attack-logs"), "Attack")
	dbPath := filepath.Join(t.TempDir(), "history.db")
	htmlPath := filepath.Join(t.TempDir(), "report", "attack.html")

	a, stdout, stderr := testApp(fsutil.OSFileSystem{}, toolexec.NewMockRunner())
	code := a.run([]string{
		"compare", "--base", "Attack", "--parent", parent,
		"--html", htmlPath, "--db", dbPath, "--env", "",
	})
	require.Equal(t, 0, code, stderr.String())

	assert.Contains(t, stdout.String(), "RESEARCH SUMMARY: Attack")
	assert.Contains(t, stdout.String(), "Avg Time Loss (Blocked):     50.0s")
	assert.FileExists(t, htmlPath)
	assert.FileExists(t, filepath.Join(folder, "Research_bars.png"))

	stdout.Reset()
	code = a.run([]string{"history", "--comparisons", "--db", dbPath, "--env", ""})
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Attack")
	assert.Contains(t, stdout.String(), folder)
}

func TestCompare_MissingFolder(t *testing.T) {
	a, _, stderr := testApp(fsutil.OSFileSystem{}, toolexec.NewMockRunner())
	code := a.run([]string{"compare", "--parent", t.TempDir(), "--no-history", "--env", ""})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "VeinsScenario-logs")
}

func TestHistory_ListsRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	history, err := db.Open(dbPath)
	require.NoError(t, err)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, history.RecordRun(&scenario.Result{
		RunID:      "run-1",
		Name:       "harbor",
		StartedAt:  start,
		FinishedAt: start.Add(time.Minute),
	}))
	require.NoError(t, history.Close())

	a, stdout, stderr := testApp(fsutil.OSFileSystem{}, toolexec.NewMockRunner())
	code := a.run([]string{"history", "--db", dbPath, "--env", ""})
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "run-1")
	assert.Contains(t, stdout.String(), "harbor")
	assert.Contains(t, stdout.String(), "succeeded")
}

func TestCommonFlags_DotenvFillsToolRoot(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("SUMO_HOME=/opt/sumo\n"), 0o644))

	a, _, _ := testApp(fsutil.OSFileSystem{}, toolexec.NewMockRunner())
	a.getenv = func(key string) string {
		if key == "OTHER" {
			return "set"
		}
		return ""
	}
	c := commonFlags{envPath: envPath}
	cfg, getenv, err := c.load(a)
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "/opt/sumo", getenv("SUMO_HOME"))
	assert.Equal(t, "set", getenv("OTHER"))
}

func TestServeMux_DebugRoutes(t *testing.T) {
	mem, runner := cachedWorkDir(t)
	p := scenario.New(mem, runner, scenario.Options{WorkDir: "/work", ToolRoot: "/sumo"})

	history, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer history.Close()

	mux, err := serveMux(api.NewServer(p, mem, history, nil), history)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/tailsql/", nil))
	assert.NotEqual(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	bare, err := serveMux(api.NewServer(p, mem, nil, nil), nil)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	bare.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/tailsql/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMigrate_Actions(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	a, stdout, stderr := testApp(fsutil.OSFileSystem{}, toolexec.NewMockRunner())

	steps := []struct {
		action  string
		version string
	}{
		{"status", "Current version: 0"},
		{"up", "Current version: 1"},
		{"status", "Current version: 1"},
		{"down", "Current version: 0"},
	}
	for _, step := range steps {
		stdout.Reset()
		code := a.run([]string{"migrate", "--db", dbPath, "--env", "", step.action})
		require.Equal(t, 0, code, "%s: %s", step.action, stderr.String())
		assert.Contains(t, stdout.String(), step.version, step.action)
	}

	assert.Equal(t, 1, a.run([]string{"migrate", "--db", dbPath, "--env", "", "sideways"}))
	assert.Contains(t, stderr.String(), "Unknown migrate action: sideways")
	assert.Equal(t, 1, a.run([]string{"migrate", "--db", dbPath, "--env", ""}))
}
