package monitoring

import (
	"bytes"
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	// Save original logger
	original := Logf
	defer func() { Logf = original }()

	// Test setting a custom logger
	called := false
	customLogger := func(format string, v ...interface{}) {
		called = true
	}

	SetLogger(customLogger)
	Logf("test message")

	if !called {
		t.Error("Custom logger was not called")
	}

	// Test setting nil logger (should create no-op)
	SetLogger(nil)
	// This should not panic
	Logf("test message")

	// Verify the logger is a no-op by checking it doesn't panic
	// and doesn't call anything
	noOpCalled := false
	testLogger := func(format string, v ...interface{}) {
		noOpCalled = true
	}
	SetLogger(testLogger)
	// First verify our test logger works
	Logf("test")
	if !noOpCalled {
		t.Error("Test logger should have been called")
	}

	// Now set to nil and verify it doesn't call our logger
	noOpCalled = false
	SetLogger(nil)
	Logf("test")
	if noOpCalled {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	// Test that Logf is not nil by default
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}

	// Test that we can call it without panic
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()

	Logf("test message: %s", "value")
}

func TestProgress_UsesLogf(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	Progress("--- Step 1: Map Data Setup ---")
	if got != "--- Step 1: Map Data Setup ---" {
		t.Errorf("Progress logged %q", got)
	}
	// A percent sign in the line must not be treated as a verb.
	Progress("* e1: 3 times (50.00%)")
	if got != "* e1: 3 times (50.00%)" {
		t.Errorf("Progress logged %q", got)
	}
}

func TestWriterProgress(t *testing.T) {
	var buf bytes.Buffer
	p := WriterProgress(&buf)
	p("one")
	p("two\n")
	if buf.String() != "one\ntwo\n" {
		t.Errorf("buffer = %q", buf.String())
	}
}

func TestRecorderAndTee(t *testing.T) {
	var a, b Recorder
	p := Tee(a.Record, nil, b.Record)
	p("x")
	p("y")

	for _, r := range []*Recorder{&a, &b} {
		lines := r.Lines()
		if len(lines) != 2 || lines[0] != "x" || lines[1] != "y" {
			t.Errorf("lines = %v", lines)
		}
	}
}
