package scenario

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/scenario.report/internal/fsutil"
	"github.com/banshee-data/scenario.report/internal/geometry"
	"github.com/banshee-data/scenario.report/internal/monitoring"
	"github.com/banshee-data/scenario.report/internal/routes"
	"github.com/banshee-data/scenario.report/internal/security"
	"github.com/banshee-data/scenario.report/internal/timeutil"
	"github.com/banshee-data/scenario.report/internal/toolexec"
)

const (
	// DefaultTopN is the number of edges kept in the usage ranking.
	DefaultTopN = 10
	// DefaultPythonBin runs the downloader and trip generator scripts.
	DefaultPythonBin = "python3"
	// logPreview bounds the tool output copied into progress lines.
	logPreview = 500
)

// EdgeChartFunc renders the usage ranking to path.
type EdgeChartFunc func(top []routes.EdgeCount, title, path string) error

// StageObserver receives stage and run outcomes, typically for metrics.
// failureKind is empty for stages that did not fail.
type StageObserver interface {
	ObserveStage(stage string, d time.Duration, failureKind string)
	ObserveRun(status string)
}

// Options configure a Pipeline. Zero values select the defaults.
type Options struct {
	// WorkDir holds every artifact. The Runner must start tools in this
	// directory since tool arguments use bare artifact names.
	WorkDir string
	// ToolRoot is the simulator installation holding tools/ and data/.
	ToolRoot   string
	PythonBin  string
	Padding    float64
	TopN       int
	MinMapSize int64
	// EdgeChart, when set, renders the top edges into the log directory.
	EdgeChart EdgeChartFunc
}

func (o Options) withDefaults() Options {
	if o.WorkDir == "" {
		o.WorkDir = "."
	}
	if o.PythonBin == "" {
		o.PythonBin = DefaultPythonBin
	}
	if o.Padding == 0 {
		o.Padding = geometry.DefaultPadding
	}
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.MinMapSize <= 0 {
		o.MinMapSize = MinMapFileSize
	}
	return o
}

// Result is the outcome of a run. A failed run still returns the partial
// Result, with the stage trail up to and including the failed stage.
type Result struct {
	RunID          string             `json:"run_id"`
	Name           string             `json:"name"`
	LaunchFile     string             `json:"launch_file,omitempty"`
	SumoConfigFile string             `json:"sumo_config_file,omitempty"`
	IniFile        string             `json:"ini_file,omitempty"`
	TopEdges       []routes.EdgeCount `json:"top_edges"`
	Geometry       geometry.Result    `json:"geometry"`
	CacheDecision  CacheDecision      `json:"cache_decision,omitempty"`
	Warnings       []string           `json:"warnings,omitempty"`
	Stages         []StageRecord      `json:"stages"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
	Failure        *StageError        `json:"-"`
}

// Run status values reported to the StageObserver.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Pipeline executes scenario runs against a filesystem and a tool runner.
// A Pipeline holds no per-run state; runs with distinct names may execute
// concurrently.
type Pipeline struct {
	fs       fsutil.FileSystem
	runner   toolexec.Runner
	opts     Options
	progress func(string)
	clock    timeutil.Clock
	observer StageObserver
}

// New creates a Pipeline. Progress defaults to monitoring.Progress.
func New(fsys fsutil.FileSystem, runner toolexec.Runner, opts Options) *Pipeline {
	return &Pipeline{
		fs:       fsys,
		runner:   runner,
		opts:     opts.withDefaults(),
		progress: monitoring.Progress,
		clock:    timeutil.RealClock{},
	}
}

// SetProgress replaces the progress callback. Passing nil mutes progress.
func (p *Pipeline) SetProgress(f func(string)) {
	if f == nil {
		f = func(string) {}
	}
	p.progress = f
}

// SetClock replaces the clock used for stage timing.
func (p *Pipeline) SetClock(c timeutil.Clock) { p.clock = c }

// SetObserver attaches a StageObserver.
func (p *Pipeline) SetObserver(o StageObserver) { p.observer = o }

// Options returns the effective options.
func (p *Pipeline) Options() Options { return p.opts }

// run carries the state of a single execution.
type run struct {
	cfg   Config
	paths Paths
	res   *Result
}

func (r *run) warn(p *Pipeline, msg string) {
	r.res.Warnings = append(r.res.Warnings, msg)
	p.progress("WARNING: " + msg)
}

type step struct {
	stage Stage
	title string
	kind  ErrorKind
	fn    func(ctx context.Context, r *run) (StageStatus, error)
}

func (p *Pipeline) steps() []step {
	return []step{
		{StageInit, "", KindConfig, p.initRun},
		{StageAcquireMap, "Step 1: Map Data Setup", KindAcquisition, p.acquireMap},
		{StageConvertNetwork, "Step 2: Converting to Network (netconvert)", KindConversion, p.convertNetwork},
		{StageConvertPolygons, "Step 3: Generating Polygons (polyconvert)", KindConversion, p.convertPolygons},
		{StageGenerateTrips, "Step 4: Generating Random Trips", KindConversion, p.generateTrips},
		{StageComputeRoutes, "Step 5: Calculating Routes (duarouter)", KindConversion, p.computeRoutes},
		{StageAnalyzeUsage, "Step 6: Analyzing Route Usage", KindAnalysis, p.analyzeUsage},
		{StageComputeGeometry, "Step 7: Computing Playground Geometry", KindGeometry, p.computeGeometry},
		{StageWriteConfigs, "Step 8: Writing Configuration Files", KindOutput, p.writeConfigs},
		{StageCleanup, "Step 9: Cleaning up", KindOutput, p.cleanup},
	}
}

// Run executes every stage in order and stops at the first mandatory
// failure. The context is consulted between stages only; a tool that has
// started runs to completion.
func (p *Pipeline) Run(ctx context.Context, cfg Config) (*Result, error) {
	r := &run{
		cfg:   cfg,
		paths: NewPaths(p.opts.WorkDir, cfg.Name),
		res: &Result{
			RunID:     uuid.NewString(),
			Name:      cfg.Name,
			StartedAt: p.clock.Now(),
		},
	}
	p.progress(fmt.Sprintf("--- Starting scenario generation for %q ---", cfg.Name))

	for _, s := range p.steps() {
		if err := p.runStep(ctx, r, s); err != nil {
			r.res.FinishedAt = p.clock.Now()
			r.res.Failure = err
			p.progress(fmt.Sprintf("Scenario generation failed: %v", err))
			p.observeRun(RunFailed)
			return r.res, err
		}
	}

	r.res.FinishedAt = p.clock.Now()
	p.progress("PROCESS COMPLETE")
	p.progress("Veins launch file: " + r.res.LaunchFile)
	p.progress("SUMO config file: " + r.res.SumoConfigFile)
	p.observeRun(RunSucceeded)
	return r.res, nil
}

func (p *Pipeline) runStep(ctx context.Context, r *run, s step) *StageError {
	if err := ctx.Err(); err != nil {
		se := &StageError{Stage: s.stage, Kind: KindCanceled, Err: err}
		r.res.Stages = append(r.res.Stages, StageRecord{Stage: s.stage, Status: StatusFailed, Detail: err.Error()})
		p.observeStage(s.stage, 0, se.Kind)
		return se
	}
	if s.title != "" {
		p.progress("--- " + s.title + " ---")
	}

	start := p.clock.Now()
	status, err := s.fn(ctx, r)
	elapsed := p.clock.Since(start)

	if err != nil {
		se := &StageError{Stage: s.stage, Kind: classify(err, s.kind), Err: err}
		r.res.Stages = append(r.res.Stages, StageRecord{Stage: s.stage, Status: StatusFailed, Duration: elapsed, Detail: err.Error()})
		p.observeStage(s.stage, elapsed, se.Kind)
		return se
	}
	r.res.Stages = append(r.res.Stages, StageRecord{Stage: s.stage, Status: status, Duration: elapsed})
	p.observeStage(s.stage, elapsed, "")
	return nil
}

func (p *Pipeline) observeStage(s Stage, d time.Duration, kind ErrorKind) {
	if p.observer != nil {
		p.observer.ObserveStage(string(s), d, string(kind))
	}
}

func (p *Pipeline) observeRun(status string) {
	if p.observer != nil {
		p.observer.ObserveRun(status)
	}
}

// tool runs one external tool and mirrors its output into the progress
// stream.
func (p *Pipeline) tool(ctx context.Context, description, name string, args ...string) error {
	p.progress(fmt.Sprintf("Running: %s...", description))
	out, err := p.runner.Run(ctx, name, args...)
	if out.Stdout != "" {
		p.progress("[STDOUT] " + toolexec.Truncate(out.Stdout, logPreview))
	}
	if out.Stderr != "" {
		p.progress("[STDERR] " + toolexec.Truncate(out.Stderr, logPreview))
	}
	if err != nil {
		p.progress(fmt.Sprintf("%s failed: %v", description, err))
		return fmt.Errorf("%s: %w", description, err)
	}
	p.progress(description + " finished successfully.")
	return nil
}

func (p *Pipeline) initRun(_ context.Context, r *run) (StageStatus, error) {
	if err := security.ValidateScenarioName(r.cfg.Name); err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfig, err)
	}
	root := p.opts.ToolRoot
	if root == "" || !p.fs.Exists(root) {
		return "", fmt.Errorf("%w: simulator tool root %q not found (set SUMO_HOME)", ErrToolInvocation, root)
	}
	p.progress("Found SUMO_HOME: " + root)
	return StatusOK, nil
}

func (p *Pipeline) acquireMap(ctx context.Context, r *run) (StageStatus, error) {
	osm := r.paths.OSM()
	decision, size := DecideCache(p.fs, osm, p.opts.MinMapSize)
	r.res.CacheDecision = decision

	if decision == CacheHit {
		p.progress(fmt.Sprintf("Found existing OSM file: '%s' (Size: %d KB)", r.paths.Rel(".osm"), size/1024))
		p.progress("Skipping download step and using existing file.")
		return StatusCached, nil
	}
	if size >= 0 {
		p.progress(fmt.Sprintf("Found file '%s', but size (%d bytes) is too small (<%d bytes).", r.paths.Rel(".osm"), size, p.opts.MinMapSize))
		p.progress("Re-downloading map data to ensure completeness.")
	}

	if err := r.cfg.BBox.Validate(); err != nil {
		return "", fmt.Errorf("%w: no valid cached map and no usable bounding box: %v", ErrAcquisition, err)
	}

	p.progress("Starting download...")
	script := filepath.Join(p.opts.ToolRoot, "tools", "osmGet.py")
	if err := p.tool(ctx, "OSM Download", p.opts.PythonBin, script,
		"--bbox="+r.cfg.BBox.Normalized().String(), "-p", r.cfg.Name, "-d", "."); err != nil {
		return "", err
	}

	downloaded, err := p.findDownload(r.paths)
	if err != nil {
		return "", err
	}

	if p.fs.Exists(osm) {
		if err := p.fs.Remove(osm); err != nil {
			return "", fmt.Errorf("%w: removing stale map: %v", ErrAcquisition, err)
		}
	}
	if err := p.fs.Rename(downloaded, osm); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAcquisition, err)
	}
	p.progress(fmt.Sprintf("Renamed downloaded file '%s' to '%s'", filepath.Base(downloaded), r.paths.Rel(".osm")))
	return StatusOK, nil
}

// findDownload locates the downloader's output: the exact N_bbox.osm.xml,
// then any N_*_bbox.osm.xml, then N.osm.xml.
func (p *Pipeline) findDownload(paths Paths) (string, error) {
	if p.fs.Exists(paths.BBox()) {
		return paths.BBox(), nil
	}
	matches, err := p.fs.Glob(paths.BBoxGlob())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAcquisition, err)
	}
	for _, m := range matches {
		if paths.OwnsDownload(m) {
			return m, nil
		}
	}
	if p.fs.Exists(paths.OSMXML()) {
		return paths.OSMXML(), nil
	}
	return "", fmt.Errorf("%w: download finished but expected output file not found", ErrAcquisition)
}

func (p *Pipeline) convertNetwork(ctx context.Context, r *run) (StageStatus, error) {
	err := p.tool(ctx, "Netconvert", "netconvert",
		"--osm-files", r.paths.Rel(".osm"),
		"-o", r.paths.Rel(".net.xml"),
		"--junctions.join",
		"--tls.guess-signals",
		"--tls.discard-simple",
		"--tls.join",
	)
	if err != nil {
		return "", err
	}
	return StatusOK, nil
}

func (p *Pipeline) convertPolygons(ctx context.Context, r *run) (StageStatus, error) {
	typemap := filepath.Join(p.opts.ToolRoot, "data", "typemap", "osmPolyconvert.typ.xml")
	if !p.fs.Exists(typemap) {
		r.warn(p, "Typemap not found, skipping polyconvert.")
		return StatusSkipped, nil
	}
	err := p.tool(ctx, "Polyconvert", "polyconvert",
		"--osm-files", r.paths.Rel(".osm"),
		"--type-file", typemap,
		"-o", r.paths.Rel(".poly.xml"),
	)
	if err != nil {
		r.warn(p, fmt.Sprintf("polygon conversion failed: %v", err))
		return StatusWarning, nil
	}
	return StatusOK, nil
}

func (p *Pipeline) generateTrips(ctx context.Context, r *run) (StageStatus, error) {
	period, err := TripPeriod(r.cfg.Duration, r.cfg.VehicleCount)
	if err != nil {
		return "", err
	}
	script := filepath.Join(p.opts.ToolRoot, "tools", "randomTrips.py")
	err = p.tool(ctx, "Random Trips", p.opts.PythonBin, script,
		"-n", r.paths.Rel(".net.xml"),
		"-o", r.paths.Rel(".trip.xml"),
		"-e", strconv.Itoa(r.cfg.Duration),
		"-p", formatPeriod(period),
		"--validate",
	)
	if err != nil {
		return "", err
	}
	return StatusOK, nil
}

func (p *Pipeline) computeRoutes(ctx context.Context, r *run) (StageStatus, error) {
	err := p.tool(ctx, "DUAROUTER", "duarouter",
		"-n", r.paths.Rel(".net.xml"),
		"-t", r.paths.Rel(".trip.xml"),
		"-o", r.paths.Rel(".rou.xml"),
	)
	if err != nil {
		return "", err
	}
	return StatusOK, nil
}

func (p *Pipeline) analyzeUsage(_ context.Context, r *run) (StageStatus, error) {
	p.progress(fmt.Sprintf("Starting analysis of most used edges in '%s'...", r.paths.Rel(".rou.xml")))
	top, usage, err := routes.Analyze(p.fs, r.paths.Routes(), p.opts.TopN)
	if err != nil {
		r.warn(p, fmt.Sprintf("route analysis skipped: %v", err))
		return StatusWarning, nil
	}
	for _, line := range usage.Summary(p.opts.TopN) {
		p.progress(line)
	}
	r.res.TopEdges = top

	if len(top) == 0 {
		r.warn(p, "plotting skipped: no edges found in the route file")
		return StatusWarning, nil
	}
	if p.opts.EdgeChart == nil {
		return StatusOK, nil
	}
	if err := p.fs.MkdirAll(r.paths.LogDir(), 0o755); err != nil {
		r.warn(p, fmt.Sprintf("edge usage chart skipped: %v", err))
		return StatusWarning, nil
	}
	title := fmt.Sprintf("Top %d Most Used Edges in Route File", len(top))
	if err := p.opts.EdgeChart(top, title, r.paths.EdgeChart()); err != nil {
		r.warn(p, fmt.Sprintf("edge usage chart failed: %v", err))
		return StatusWarning, nil
	}
	p.progress("Edge usage chart written to " + r.paths.EdgeChart())
	return StatusOK, nil
}

func (p *Pipeline) computeGeometry(_ context.Context, r *run) (StageStatus, error) {
	p.progress("Extracting coordinates from net.xml...")
	f, err := p.fs.Open(r.paths.Net())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeometry, err)
	}
	defer f.Close()

	bound, err := geometry.ReadNetBoundary(f)
	if err != nil {
		return "", err
	}
	g, err := geometry.Buffer(bound, p.opts.Padding)
	if err != nil {
		return "", err
	}
	r.res.Geometry = g
	p.progress(fmt.Sprintf("Playground %sm x %sm, RSU at (%s, %s)",
		geometry.FormatFloat(g.PlaygroundWidth), geometry.FormatFloat(g.PlaygroundHeight),
		geometry.FormatFloat(g.ReferenceX), geometry.FormatFloat(g.ReferenceY)))
	return StatusOK, nil
}

func (p *Pipeline) writeConfigs(_ context.Context, r *run) (StageStatus, error) {
	logDir := r.paths.LogDir()
	if !p.fs.Exists(logDir) {
		if err := p.fs.MkdirAll(logDir, 0o755); err != nil {
			return "", fmt.Errorf("%w: %v", ErrOutput, err)
		}
		p.progress(fmt.Sprintf("Created output directory: %s/", r.paths.Rel("-logs")))
	}

	launch, err := RenderLaunch(r.cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOutput, err)
	}
	sumocfg, err := RenderSumoConfig(r.cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOutput, err)
	}
	ini, err := RenderIni(r.cfg, r.res.Geometry)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOutput, err)
	}

	files := []struct {
		path string
		data []byte
		dst  *string
	}{
		{r.paths.Launch(), launch, &r.res.LaunchFile},
		{r.paths.SumoConfig(), sumocfg, &r.res.SumoConfigFile},
		{r.paths.Ini(), ini, &r.res.IniFile},
	}
	for _, f := range files {
		if err := p.fs.WriteFile(f.path, f.data, 0o644); err != nil {
			return "", fmt.Errorf("%w: %v", ErrOutput, err)
		}
		*f.dst = f.path
		p.progress("Created " + filepath.Base(f.path))
	}
	return StatusOK, nil
}

func (p *Pipeline) cleanup(_ context.Context, r *run) (StageStatus, error) {
	status := StatusOK
	for _, tmp := range r.paths.Temporaries() {
		if !p.fs.Exists(tmp) {
			continue
		}
		if err := p.fs.Remove(tmp); err != nil {
			r.warn(p, fmt.Sprintf("could not remove %s: %v", filepath.Base(tmp), err))
			status = StatusWarning
			continue
		}
		p.progress("Removed temp file: " + filepath.Base(tmp))
	}
	return status, nil
}

// IsStageError reports whether err is a pipeline failure and returns it.
func IsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
