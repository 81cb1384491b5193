// Package testutil provides shared test helpers and simulator output
// fixtures.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// NewJSONRequest builds a test request whose body is body encoded as JSON.
// A nil body sends no content.
func NewJSONRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("encode request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// Trip is a tripinfo fixture row.
type Trip struct {
	Depart, Duration, TimeLoss, Waiting, RouteLength float64
	Reroutes                                         int
}

// Step is a summary fixture row.
type Step struct {
	Time      float64
	Running   int
	MeanSpeed float64
}

// TripInfoXML renders trips as a simulator tripinfo document.
func TripInfoXML(trips ...Trip) string {
	var b strings.Builder
	b.WriteString("<tripinfos>\n")
	for i, tr := range trips {
		fmt.Fprintf(&b, `    <tripinfo id="%d" depart="%.2f" duration="%.2f" routeLength="%.2f" waitingTime="%.2f" timeLoss="%.2f" rerouteNo="%d"/>`+"\n",
			i, tr.Depart, tr.Duration, tr.RouteLength, tr.Waiting, tr.TimeLoss, tr.Reroutes)
	}
	b.WriteString("</tripinfos>\n")
	return b.String()
}

// SummaryXML renders steps as a simulator summary document.
func SummaryXML(steps ...Step) string {
	var b strings.Builder
	b.WriteString("<summary>\n")
	for _, s := range steps {
		fmt.Fprintf(&b, `    <step time="%.2f" running="%d" meanSpeed="%.2f"/>`+"\n", s.Time, s.Running, s.MeanSpeed)
	}
	b.WriteString("</summary>\n")
	return b.String()
}

// WriteComparisonLogs writes a small clean/blocked log set for base into
// dir and returns dir.
func WriteComparisonLogs(t *testing.T, dir, base string) string {
	t.Helper()
	files := map[string]string{
		"Clean_tripinfo": TripInfoXML(
			Trip{Depart: 0, Duration: 60, TimeLoss: 10, Waiting: 1, RouteLength: 100},
			Trip{Depart: 5, Duration: 70, TimeLoss: 20, Waiting: 2, RouteLength: 200},
		),
		"Blocked_tripinfo": TripInfoXML(
			Trip{Depart: 0, Duration: 100, TimeLoss: 40, Waiting: 5, RouteLength: 150, Reroutes: 1},
			Trip{Depart: 5, Duration: 120, TimeLoss: 60, Waiting: 7, RouteLength: 250},
		),
		"Clean_summary":   SummaryXML(Step{0, 2, 10}, Step{1, 2, 14}),
		"Blocked_summary": SummaryXML(Step{0, 2, 6}, Step{1, 2, 8}),
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for stem, body := range files {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s_output.xml", base, stem))
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return dir
}
