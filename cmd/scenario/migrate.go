package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/banshee-data/scenario.report/internal/db"
)

func (a *app) handleMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	var common commonFlags
	common.register(fs)
	dbPath := fs.String("db", "", "History database path (overrides config)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.stderr, "usage: scenario migrate [--db path] <up|down|status>")
		return errUsage
	}

	cfg, _, err := common.load(a)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.DatabasePath = dbPath
	}

	history, err := db.OpenUnmigrated(cfg.GetDatabasePath())
	if err != nil {
		return err
	}
	defer history.Close()

	switch action := fs.Arg(0); action {
	case "up":
		if err := history.MigrateUp(); err != nil {
			return err
		}
	case "down":
		if err := history.MigrateDown(); err != nil {
			return err
		}
	case "status":
	default:
		fmt.Fprintf(a.stderr, "Unknown migrate action: %s\n", action)
		return errUsage
	}

	version, dirty, err := history.MigrateVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Current version: %d\n", version)
	fmt.Fprintf(a.stdout, "Dirty: %v\n", dirty)
	return nil
}
