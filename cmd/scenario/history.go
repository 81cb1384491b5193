package main

import (
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/banshee-data/scenario.report/internal/db"
)

func (a *app) handleHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	var common commonFlags
	common.register(fs)
	dbPath := fs.String("db", "", "History database path (overrides config)")
	limit := fs.Int("limit", 20, "Maximum entries per table (0 for all)")
	comparisons := fs.Bool("comparisons", false, "List comparison reports instead of runs")
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

	history, err := db.Open(cfg.GetDatabasePath())
	if err != nil {
		return err
	}
	defer history.Close()

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if *comparisons {
		reports, err := history.ListComparisons(*limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "REPORT\tBASE\tCREATED\tCLEAN TRIPS\tBLOCKED TRIPS\tFOLDER")
		for _, c := range reports {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
				c.ReportID, c.BaseName, c.CreatedAt.Format("2006-01-02 15:04:05"),
				c.Report.Vehicles.TotalClean, c.Report.Vehicles.TotalBlocked, c.Folder)
		}
		return nil
	}

	runs, err := history.ListRuns(*limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "RUN\tNAME\tSTATUS\tSTARTED\tFAILED STAGE\tWARNINGS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			r.RunID, r.Name, r.Status, r.StartedAt.Format("2006-01-02 15:04:05"),
			dash(r.FailedStage), r.Warnings)
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
