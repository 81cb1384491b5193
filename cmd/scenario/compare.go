package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/scenario.report/internal/charts"
	"github.com/banshee-data/scenario.report/internal/compare"
	"github.com/banshee-data/scenario.report/internal/db"
	"github.com/banshee-data/scenario.report/internal/monitoring"
)

// defaultBaseName is the scenario name the simulator project ships with.
const defaultBaseName = "VeinsScenario"

func (a *app) handleCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	var common commonFlags
	common.register(fs)
	base := fs.String("base", defaultBaseName, "Scenario base name used in the log file names")
	folder := fs.String("folder", "", "Folder holding the four log files")
	parent := fs.String("parent", ".", "Directory holding <base>-logs (ignored when --folder is set)")
	outDir := fs.String("out", "", "Directory for figures (defaults to the log folder)")
	htmlPath := fs.String("html", "", "Also write an interactive HTML report to this file")
	noFigures := fs.Bool("no-figures", false, "Skip PNG figures")
	dbPath := fs.String("db", "", "History database path (overrides config)")
	noHistory := fs.Bool("no-history", false, "Do not record the report in the history database")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, _, err := common.load(a)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.DatabasePath = dbPath
	}

	dir := *folder
	if dir == "" {
		if dir, err = compare.ResolveLogFolder(a.fs, *parent, *base); err != nil {
			return err
		}
	}

	in, err := compare.LoadScenario(a.fs, dir, *base)
	if err != nil {
		return err
	}
	report := in.Compare()

	if !*noFigures {
		target := *outDir
		if target == "" {
			target = dir
		}
		written, err := charts.ComparisonPNGs(target, in)
		if err != nil {
			return fmt.Errorf("failed to render figures: %w", err)
		}
		for _, path := range written {
			monitoring.Logf("wrote %s", path)
		}
	}

	if *htmlPath != "" {
		if err := writeComparisonHTML(*htmlPath, *base, in, report); err != nil {
			return err
		}
		monitoring.Logf("wrote %s", *htmlPath)
	}

	fmt.Fprint(a.stdout, report.Text(*base))

	if !*noHistory {
		if err := recordComparison(cfg.GetDatabasePath(), *base, dir, report); err != nil {
			monitoring.Logf("history not recorded: %v", err)
		}
	}
	return nil
}

func writeComparisonHTML(path, base string, in *compare.Inputs, report compare.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := charts.ComparisonHTML(f, base, in, report); err != nil {
		f.Close()
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return f.Close()
}

func recordComparison(path, base, folder string, report compare.Report) error {
	history, err := db.Open(path)
	if err != nil {
		return err
	}
	defer history.Close()
	_, err = history.RecordComparison(base, folder, report, time.Now())
	return err
}
