package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/banshee-data/scenario.report/internal/charts"
	"github.com/banshee-data/scenario.report/internal/db"
	"github.com/banshee-data/scenario.report/internal/geometry"
	"github.com/banshee-data/scenario.report/internal/monitoring"
	"github.com/banshee-data/scenario.report/internal/scenario"
)

func (a *app) handleGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	var common commonFlags
	common.register(fs)
	name := fs.String("name", "", "Scenario name (required)")
	bbox := fs.String("bbox", "", "Map area as west,south,east,north (required unless the map is cached)")
	duration := fs.Int("duration", 3600, "Simulation length in seconds")
	vehicles := fs.Int("vehicles", 10000, "Number of vehicles to generate")
	workDir := fs.String("workdir", "", "Directory for generated files (overrides config)")
	toolRoot := fs.String("tool-root", "", "Simulator install directory (overrides SUMO_HOME)")
	dbPath := fs.String("db", "", "History database path (overrides config)")
	noHistory := fs.Bool("no-history", false, "Do not record the run in the history database")
	noChart := fs.Bool("no-chart", false, "Skip the edge usage chart")
	dryRun := fs.Bool("dry-run", false, "Log tool invocations without running them")
	debug := fs.Bool("debug", false, "Log every tool command line")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *name == "" {
		fmt.Fprintln(a.stderr, "--name is required")
		return errUsage
	}

	cfg, getenv, err := common.load(a)
	if err != nil {
		return err
	}
	if *workDir != "" {
		cfg.WorkDir = workDir
	}
	if *toolRoot != "" {
		cfg.ToolRoot = toolRoot
	}
	if *dbPath != "" {
		cfg.DatabasePath = dbPath
	}

	var box geometry.BoundingBox
	if *bbox != "" {
		if box, err = geometry.ParseBoundingBox(*bbox); err != nil {
			return err
		}
	}

	root, err := cfg.ResolveToolRoot(getenv, a.fs.Exists)
	if err != nil {
		// The pipeline reports the missing root as a tool invocation failure
		// at its first stage.
		monitoring.Logf("%v", err)
	}

	opts := cfg.ScenarioOptions(root)
	if cfg.GetEdgeChart() && !*noChart {
		opts.EdgeChart = charts.EdgeUsageBarPNG
	}
	p := scenario.New(a.fs, a.newRunner(opts.WorkDir, *debug, *dryRun), opts)
	p.SetProgress(monitoring.Tee(monitoring.Progress, monitoring.WriterProgress(a.stdout)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, runErr := p.Run(ctx, scenario.Config{
		Name:         *name,
		BBox:         box,
		Duration:     *duration,
		VehicleCount: *vehicles,
	})

	if res != nil && !*noHistory {
		if err := recordRun(cfg.GetDatabasePath(), res); err != nil {
			monitoring.Logf("history not recorded: %v", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(a.stdout, "warning: %s\n", w)
	}
	fmt.Fprintf(a.stdout, "run %s complete: %s, %s, %s\n", res.RunID, res.LaunchFile, res.SumoConfigFile, res.IniFile)
	return nil
}

func recordRun(path string, res *scenario.Result) error {
	history, err := db.Open(path)
	if err != nil {
		return err
	}
	defer history.Close()
	return history.RecordRun(res)
}
