package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/banshee-data/scenario.report/internal/config"
	"github.com/banshee-data/scenario.report/internal/fsutil"
	"github.com/banshee-data/scenario.report/internal/monitoring"
	"github.com/banshee-data/scenario.report/internal/toolexec"
	"github.com/banshee-data/scenario.report/internal/version"
)

// errUsage marks flag errors; the flag package has already printed them.
var errUsage = errors.New("usage error")

// app carries the process environment so commands can run against fakes.
type app struct {
	stdout    io.Writer
	stderr    io.Writer
	getenv    func(string) string
	fs        fsutil.FileSystem
	newRunner func(workDir string, debug, dryRun bool) toolexec.Runner
}

func newApp() *app {
	return &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		fs:     fsutil.OSFileSystem{},
		newRunner: func(workDir string, debug, dryRun bool) toolexec.Runner {
			r := toolexec.NewExecRunner(workDir)
			r.DryRun = dryRun
			if debug || dryRun {
				r.SetLogger(logfLogger{})
			}
			return r
		},
	}
}

// logfLogger routes runner debug output into the process log.
type logfLogger struct{}

func (logfLogger) Debugf(format string, args ...interface{}) { monitoring.Logf(format, args...) }

func main() {
	os.Exit(newApp().run(os.Args[1:]))
}

func (a *app) run(args []string) int {
	if len(args) < 1 {
		a.printUsage()
		return 1
	}

	command, rest := args[0], args[1:]
	var err error
	switch command {
	case "generate":
		err = a.handleGenerate(rest)
	case "compare":
		err = a.handleCompare(rest)
	case "serve":
		err = a.handleServe(rest)
	case "history":
		err = a.handleHistory(rest)
	case "migrate":
		err = a.handleMigrate(rest)
	case "version":
		fmt.Fprintln(a.stdout, version.String())
	case "help", "-h", "--help":
		a.printUsage()
	default:
		fmt.Fprintf(a.stderr, "Unknown command: %s\n\n", command)
		a.printUsage()
		return 1
	}

	if err == nil || errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if !errors.Is(err, errUsage) {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return 1
}

func (a *app) printUsage() {
	fmt.Fprintln(a.stdout, `scenario - Vehicular network scenario generator and comparison reporter

Usage: scenario <command> [options]

Commands:
  generate   Build a simulation scenario for a map area
  compare    Compare a clean and a blocked simulation run
  serve      Run the HTTP API
  history    List recorded runs and comparison reports
  migrate    Show, apply or roll back the history schema (up|down|status)
  version    Show build information
  help       Show this help message

Common Flags:
  --config <file>   Pipeline config (JSON); defaults to config/pipeline.json if present
  --env <file>      Dotenv file read before resolving SUMO_HOME (default .env)

Examples:
  scenario generate --name barcelona --bbox 2.15,41.38,2.18,41.40 --duration 3600 --vehicles 10000
  scenario compare --base VeinsScenario --parent ./results
  scenario serve --listen :8090`)
}

// commonFlags are shared by every command that needs the pipeline config.
type commonFlags struct {
	configPath string
	envPath    string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Pipeline config file (JSON)")
	fs.StringVar(&c.envPath, "env", ".env", "Dotenv file loaded before resolving the tool root")
}

// load reads the dotenv file (if present) into a local lookup, then the
// pipeline config. The process environment is not modified; values from
// the real environment win over the dotenv file.
func (c *commonFlags) load(a *app) (*config.PipelineConfig, func(string) string, error) {
	getenv := a.getenv
	if c.envPath != "" && a.fs.Exists(c.envPath) {
		vars, err := godotenv.Read(c.envPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", c.envPath, err)
		}
		base := a.getenv
		getenv = func(key string) string {
			if v := base(key); v != "" {
				return v
			}
			return vars[key]
		}
	}

	path := c.configPath
	if path == "" {
		if !a.fs.Exists(config.DefaultConfigPath) {
			return config.EmptyPipelineConfig(), getenv, nil
		}
		path = config.DefaultConfigPath
	}
	cfg, err := config.LoadPipelineConfig(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, getenv, nil
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %v\n", fs.Args())
		return errUsage
	}
	return nil
}
