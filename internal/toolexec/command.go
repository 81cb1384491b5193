// Package toolexec runs the external scenario tools (map downloader,
// converters, trip and route generators) and reports their outcome purely by
// exit status.
package toolexec

import (
	"bytes"
	"errors"
	"os/exec"
)

// CommandExecutor runs a single prepared command.
// This abstraction enables unit testing without spawning processes.
type CommandExecutor interface {
	// Run executes the command to completion and returns stdout and stderr
	// separately.
	Run() (stdout, stderr []byte, err error)
}

// CommandBuilder prepares commands for execution.
type CommandBuilder interface {
	BuildCommand(name string, args ...string) CommandExecutor
}

// RealCommandExecutor wraps exec.Cmd.
type RealCommandExecutor struct {
	cmd *exec.Cmd
}

// Run executes the command and captures both output streams.
func (r *RealCommandExecutor) Run() ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	r.cmd.Stdout = &stdout
	r.cmd.Stderr = &stderr
	err := r.cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// RealCommandBuilder implements CommandBuilder using exec.Command. Commands
// are deliberately not bound to a context: an in-flight tool always runs to
// completion.
type RealCommandBuilder struct {
	// Dir, when set, is the working directory for every built command.
	Dir string
}

// NewRealCommandBuilder creates a RealCommandBuilder rooted at dir.
func NewRealCommandBuilder(dir string) *RealCommandBuilder {
	return &RealCommandBuilder{Dir: dir}
}

// BuildCommand creates a CommandExecutor for the given command and arguments.
func (b *RealCommandBuilder) BuildCommand(name string, args ...string) CommandExecutor {
	cmd := exec.Command(name, args...)
	cmd.Dir = b.Dir
	return &RealCommandExecutor{cmd: cmd}
}

// exitCode extracts the process exit status from an exec error.
// Returns -1 when the process never produced one.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
