// Package api serves scenario generation, comparison reports and run
// history over HTTP.
package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/banshee-data/scenario.report/internal/charts"
	"github.com/banshee-data/scenario.report/internal/compare"
	"github.com/banshee-data/scenario.report/internal/db"
	"github.com/banshee-data/scenario.report/internal/fsutil"
	"github.com/banshee-data/scenario.report/internal/httputil"
	"github.com/banshee-data/scenario.report/internal/monitoring"
	"github.com/banshee-data/scenario.report/internal/observability"
	"github.com/banshee-data/scenario.report/internal/routes"
	"github.com/banshee-data/scenario.report/internal/scenario"
	"github.com/banshee-data/scenario.report/internal/security"
	"github.com/banshee-data/scenario.report/internal/timeutil"
)

// ANSI escape codes for the request log
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// DefaultRunLimit bounds GET /api/runs when no limit is given.
const DefaultRunLimit = 50

// maxBodyBytes caps the scenario request body.
const maxBodyBytes = 64 * 1024

type Server struct {
	pipeline *scenario.Pipeline
	// fs serves comparison inputs; it is rooted at the pipeline work dir.
	fs      fsutil.FileSystem
	workDir string
	history *db.DB
	metrics *observability.PipelineMetrics
	clock   timeutil.Clock

	mu     sync.Mutex
	active map[string]bool
}

// NewServer wires the HTTP surface. history and metrics may be nil, which
// disables run history and the /metrics endpoint respectively.
func NewServer(p *scenario.Pipeline, fsys fsutil.FileSystem, history *db.DB, metrics *observability.PipelineMetrics) *Server {
	if metrics != nil {
		p.SetObserver(metrics)
	}
	return &Server{
		pipeline: p,
		fs:       fsys,
		workDir:  p.Options().WorkDir,
		history:  history,
		metrics:  metrics,
		clock:    timeutil.RealClock{},
		active:   make(map[string]bool),
	}
}

// SetClock replaces the clock used to timestamp comparison reports.
func (s *Server) SetClock(c timeutil.Clock) { s.clock = c }

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/scenarios", s.handleScenarios)
	mux.HandleFunc("/api/compare", s.handleCompare)
	mux.HandleFunc("/api/compare/chart", s.handleCompareChart)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/runs/", s.handleRunDetail)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

// acquire marks name as running. It fails if a run of the same name is
// already in flight, since both would write the same artifacts.
func (s *Server) acquire(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[name] {
		return false
	}
	s.active[name] = true
	return true
}

func (s *Server) release(name string) {
	s.mu.Lock()
	delete(s.active, name)
	s.mu.Unlock()
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var cfg scenario.Config
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		httputil.BadRequest(w, "invalid scenario JSON: "+err.Error())
		return
	}
	if err := security.ValidateScenarioName(cfg.Name); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	if !s.acquire(cfg.Name) {
		httputil.Conflict(w, "a run for scenario "+cfg.Name+" is already in progress")
		return
	}
	defer s.release(cfg.Name)

	res, err := s.pipeline.Run(r.Context(), cfg)
	if res != nil && s.history != nil {
		if herr := s.history.RecordRun(res); herr != nil {
			monitoring.Logf("failed to record run %s: %v", res.RunID, herr)
		}
	}
	if err != nil {
		if se, ok := scenario.IsStageError(err); ok {
			httputil.WriteStageError(w, string(se.Stage), string(se.Kind), se.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, res)
}

// compareResponse is the JSON body of GET /api/compare.
type compareResponse struct {
	ReportID string         `json:"report_id,omitempty"`
	Base     string         `json:"base"`
	Folder   string         `json:"folder"`
	Report   compare.Report `json:"report"`
	Text     string         `json:"text"`
}

// loadComparison resolves and parses the comparison inputs named by the
// base and folder query parameters. It writes the error response itself
// and returns ok=false on failure.
func (s *Server) loadComparison(w http.ResponseWriter, r *http.Request) (base, folder string, in *compare.Inputs, ok bool) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return "", "", nil, false
	}

	q := r.URL.Query()
	base = q.Get("base")
	if err := security.ValidateScenarioName(base); err != nil {
		httputil.BadRequest(w, "base: "+err.Error())
		return "", "", nil, false
	}

	folder = q.Get("folder")
	if folder == "" {
		folder = filepath.Join(s.workDir, base+"-logs")
	} else if !filepath.IsAbs(folder) {
		folder = filepath.Join(s.workDir, folder)
	}
	if err := security.ValidatePathWithinDirectory(folder, s.workDir); err != nil {
		httputil.BadRequest(w, "folder: "+err.Error())
		return "", "", nil, false
	}

	in, err := compare.LoadScenario(s.fs, folder, base)
	s.metrics.ObserveComparison(err)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			httputil.NotFound(w, err.Error())
		} else {
			httputil.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
		}
		return "", "", nil, false
	}
	return base, folder, in, true
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	base, folder, in, ok := s.loadComparison(w, r)
	if !ok {
		return
	}

	report := in.Compare()
	resp := compareResponse{
		Base:   base,
		Folder: folder,
		Report: report,
		Text:   report.Text(base),
	}
	if s.history != nil {
		id, err := s.history.RecordComparison(base, folder, report, s.clock.Now())
		if err != nil {
			monitoring.Logf("failed to record comparison for %s: %v", base, err)
		}
		resp.ReportID = id
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) handleCompareChart(w http.ResponseWriter, r *http.Request) {
	base, _, in, ok := s.loadComparison(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := charts.ComparisonHTML(&buf, base, in, in.Compare()); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if r.URL.Query().Get("download") != "" {
		name := security.SanitizeFilename(base) + "_comparison.html"
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	httputil.WriteHTML(w, buf.Bytes())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.history == nil {
		httputil.NotFound(w, "run history is disabled")
		return
	}

	limit := DefaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.history.ListRuns(limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if runs == nil {
		runs = []db.RunRecord{}
	}
	httputil.WriteJSONOK(w, runs)
}

// runDetail is the JSON body of GET /api/runs/{id}.
type runDetail struct {
	db.RunRecord
	TopEdges []routes.EdgeCount `json:"top_edges"`
}

func (s *Server) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.history == nil {
		httputil.NotFound(w, "run history is disabled")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if id == "" || strings.Contains(id, "/") {
		httputil.NotFound(w, "unknown run")
		return
	}

	rec, err := s.history.GetRun(id)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.NotFound(w, "unknown run "+id)
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	edges, err := s.history.RunEdges(id)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if edges == nil {
		edges = []routes.EdgeCount{}
	}
	httputil.WriteJSONOK(w, runDetail{RunRecord: *rec, TopEdges: edges})
}
