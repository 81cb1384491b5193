// Package monitoring holds the process-wide diagnostic logger and the
// progress sinks the scenario pipeline reports through.
package monitoring

import (
	"io"
	"log"
	"strings"
	"sync"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Progress writes one pipeline progress line through Logf. It is the default
// progress callback for scenario runs.
func Progress(line string) {
	Logf("%s", line)
}

// WriterProgress returns a progress callback that writes each line, newline
// terminated, to w. Calls are serialised.
func WriterProgress(w io.Writer) func(string) {
	var mu sync.Mutex
	return func(line string) {
		mu.Lock()
		defer mu.Unlock()
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		_, _ = io.WriteString(w, line)
	}
}

// Recorder collects progress lines in memory. Handlers use it to return the
// run log alongside a result; tests use it to assert on stage order.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

// Record appends a line. Its method value is a valid progress callback.
func (r *Recorder) Record(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

// Lines returns a copy of the recorded lines.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Tee fans one progress line out to several callbacks. Nil entries are skipped.
func Tee(sinks ...func(string)) func(string) {
	return func(line string) {
		for _, s := range sinks {
			if s != nil {
				s(line)
			}
		}
	}
}
