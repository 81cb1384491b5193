package toolexec

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"unicode/utf8"
)

var (
	// ErrToolNotFound means the executable could not be located or started.
	ErrToolNotFound = errors.New("tool not found")
	// ErrNonZeroExit means the tool ran and terminated with a non-zero status.
	ErrNonZeroExit = errors.New("tool exited with non-zero status")
)

// Output is what a finished tool produced.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ToolError describes a failed invocation.
type ToolError struct {
	Name     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	if errors.Is(e.Err, ErrNonZeroExit) {
		return fmt.Sprintf("%s failed with return code %d", e.Name, e.ExitCode)
	}
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Runner is the single seam through which stages invoke external tools.
type Runner interface {
	// Run executes name with args synchronously. Success is exit status 0.
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// Logger defines the interface for debug logging.
type Logger interface {
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}

// ExecRunner runs tools as local subprocesses.
type ExecRunner struct {
	Builder CommandBuilder
	DryRun  bool
	Logger  Logger
}

// NewExecRunner creates a runner whose commands execute in dir.
func NewExecRunner(dir string) *ExecRunner {
	return &ExecRunner{
		Builder: NewRealCommandBuilder(dir),
		Logger:  nopLogger{},
	}
}

// SetLogger sets the debug logger. Nil is ignored.
func (r *ExecRunner) SetLogger(logger Logger) {
	if logger != nil {
		r.Logger = logger
	}
}

// Run executes a tool. A context that is already done prevents the tool from
// starting; once started the process is never interrupted.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{ExitCode: -1}, err
	}
	if r.DryRun {
		r.Logger.Debugf("[DRY-RUN] Would execute: %s", CommandLine(name, args))
		return Output{Stdout: "[DRY-RUN] " + CommandLine(name, args)}, nil
	}

	r.Logger.Debugf("Executing: %s", CommandLine(name, args))
	stdout, stderr, err := r.Builder.BuildCommand(name, args...).Run()
	out := Output{Stdout: string(stdout), Stderr: string(stderr), ExitCode: exitCode(err)}
	if err == nil {
		return out, nil
	}

	te := &ToolError{Name: name, Args: args, ExitCode: out.ExitCode, Stderr: out.Stderr}
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		te.Err = fmt.Errorf("%w: %v", ErrToolNotFound, err)
	case out.ExitCode > 0:
		te.Err = ErrNonZeroExit
	default:
		te.Err = err
	}
	r.Logger.Debugf("Command failed: %v, stderr: %s", te, Truncate(out.Stderr, 500))
	return out, te
}

// CommandLine renders an invocation for logs.
func CommandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// Truncate shortens s to at most n bytes, appending "..." when cut. The cut
// never splits a UTF-8 sequence.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
