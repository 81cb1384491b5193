package testutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAssertStatusCode_FailurePath(t *testing.T) {
	t.Parallel()

	AssertStatusCode(t, http.StatusOK, http.StatusOK)
	ok := t.Run("status mismatch", func(t *testing.T) {
		AssertStatusCode(t, http.StatusOK, http.StatusBadRequest)
	})
	if ok {
		t.Fatal("expected subtest to fail on mismatched status code")
	}
}

func TestAssertNoError_FailurePath(t *testing.T) {
	t.Parallel()

	AssertNoError(t, nil)
	ok := t.Run("unexpected error", func(t *testing.T) {
		AssertNoError(t, errors.New("boom"))
	})
	if ok {
		t.Fatal("expected subtest to fail when error is non-nil")
	}
}

func TestNewJSONRequest(t *testing.T) {
	t.Parallel()

	req := NewJSONRequest(t, http.MethodPost, "/api/scenarios", map[string]int{"vehicle_count": 5})
	if req.Method != http.MethodPost || req.URL.Path != "/api/scenarios" {
		t.Errorf("got %s %s", req.Method, req.URL.Path)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}
	var body map[string]int
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["vehicle_count"] != 5 {
		t.Errorf("body = %v", body)
	}

	if req := NewJSONRequest(t, http.MethodGet, "/", nil); req.Header.Get("Content-Type") != "" {
		t.Error("nil body should not set a content type")
	}
}

func TestFixtureDocuments(t *testing.T) {
	t.Parallel()

	trips := TripInfoXML(Trip{Depart: 1, Duration: 2, TimeLoss: 3, Waiting: 4, RouteLength: 5, Reroutes: 1})
	want := `<tripinfo id="0" depart="1.00" duration="2.00" routeLength="5.00" waitingTime="4.00" timeLoss="3.00" rerouteNo="1"/>`
	if !strings.Contains(trips, want) {
		t.Errorf("tripinfo fixture = %s", trips)
	}

	summary := SummaryXML(Step{Time: 1, Running: 7, MeanSpeed: 12.5})
	if !strings.Contains(summary, `<step time="1.00" running="7" meanSpeed="12.50"/>`) {
		t.Errorf("summary fixture = %s", summary)
	}
}

func TestWriteComparisonLogs(t *testing.T) {
	t.Parallel()

	dir := WriteComparisonLogs(t, filepath.Join(t.TempDir(), "city-logs"), "city")
	for _, name := range []string{
		"city_Clean_tripinfo_output.xml",
		"city_Blocked_tripinfo_output.xml",
		"city_Clean_summary_output.xml",
		"city_Blocked_summary_output.xml",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
