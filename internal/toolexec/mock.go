package toolexec

import (
	"context"
	"path/filepath"
	"sync"
)

// Call records one tool invocation seen by MockRunner.
type Call struct {
	Name string
	Args []string
}

// Base returns the tool's base name, so "/opt/sumo/bin/netconvert" and
// "netconvert" compare equal.
func (c Call) Base() string { return filepath.Base(c.Name) }

// MockRunner implements Runner for tests. Every call is recorded; Handler,
// when set, decides the outcome and may create files the real tool would
// have produced.
type MockRunner struct {
	mu      sync.Mutex
	calls   []Call
	Handler func(call Call) (Output, error)
}

// NewMockRunner creates a MockRunner that succeeds for every tool.
func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

// Run records the call and delegates to Handler.
func (m *MockRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{ExitCode: -1}, err
	}
	call := Call{Name: name, Args: append([]string(nil), args...)}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	handler := m.Handler
	m.mu.Unlock()

	if handler == nil {
		return Output{}, nil
	}
	return handler(call)
}

// Calls returns a copy of the recorded invocations.
func (m *MockRunner) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Called reports whether a tool with the given base name was invoked.
func (m *MockRunner) Called(base string) bool {
	for _, c := range m.Calls() {
		if c.Base() == base {
			return true
		}
	}
	return false
}

// Failure builds the error a tool exiting with code would produce.
func Failure(call Call, code int, stderr string) (Output, error) {
	out := Output{Stderr: stderr, ExitCode: code}
	return out, &ToolError{Name: call.Name, Args: call.Args, ExitCode: code, Stderr: stderr, Err: ErrNonZeroExit}
}

// MockCommandExecutor implements CommandExecutor for testing ExecRunner.
type MockCommandExecutor struct {
	Stdout    []byte
	Stderr    []byte
	Err       error
	RunCalled bool
}

// Run returns the configured output and error.
func (m *MockCommandExecutor) Run() ([]byte, []byte, error) {
	m.RunCalled = true
	return m.Stdout, m.Stderr, m.Err
}

// MockBuiltCommand records details of a built command.
type MockBuiltCommand struct {
	Name string
	Args []string
}

// MockCommandBuilder implements CommandBuilder for testing.
type MockCommandBuilder struct {
	Commands     []MockBuiltCommand
	NextExecutor *MockCommandExecutor
}

// BuildCommand records the command and returns the pending executor.
func (b *MockCommandBuilder) BuildCommand(name string, args ...string) CommandExecutor {
	b.Commands = append(b.Commands, MockBuiltCommand{Name: name, Args: args})
	if b.NextExecutor != nil {
		e := b.NextExecutor
		b.NextExecutor = nil
		return e
	}
	return &MockCommandExecutor{}
}
