package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/scenario.report/internal/api"
	"github.com/banshee-data/scenario.report/internal/charts"
	"github.com/banshee-data/scenario.report/internal/db"
	"github.com/banshee-data/scenario.report/internal/monitoring"
	"github.com/banshee-data/scenario.report/internal/observability"
	"github.com/banshee-data/scenario.report/internal/scenario"
)

func (a *app) handleServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	var common commonFlags
	common.register(fs)
	listen := fs.String("listen", "", "HTTP listen address (overrides config)")
	dbPath := fs.String("db", "", "History database path (overrides config)")
	noHistory := fs.Bool("no-history", false, "Serve without run history")
	noMetrics := fs.Bool("no-metrics", false, "Disable the /metrics endpoint")
	debug := fs.Bool("debug", false, "Log every tool command line")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, getenv, err := common.load(a)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.ListenAddr = listen
	}
	if *dbPath != "" {
		cfg.DatabasePath = dbPath
	}

	root, err := cfg.ResolveToolRoot(getenv, a.fs.Exists)
	if err != nil {
		monitoring.Logf("%v", err)
	}
	opts := cfg.ScenarioOptions(root)
	if cfg.GetEdgeChart() {
		opts.EdgeChart = charts.EdgeUsageBarPNG
	}
	p := scenario.New(a.fs, a.newRunner(opts.WorkDir, *debug, false), opts)

	var history *db.DB
	if !*noHistory {
		if history, err = db.Open(cfg.GetDatabasePath()); err != nil {
			return err
		}
		defer history.Close()
	}

	var metrics *observability.PipelineMetrics
	if !*noMetrics {
		if metrics, err = observability.NewPipelineMetrics(nil); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	mux, err := serveMux(api.NewServer(p, a.fs, history, metrics), history)
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              cfg.GetListenAddr(),
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("scenario API listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	monitoring.Logf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// serveMux combines the API routes with the history debug pages.
func serveMux(srv *api.Server, history *db.DB) (*http.ServeMux, error) {
	mux := srv.ServeMux()
	if history != nil {
		if err := history.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
	}
	return mux, nil
}
