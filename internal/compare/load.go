package compare

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/scenario.report/internal/fsutil"
)

// ErrInput matches every InputError.
var ErrInput = errors.New("comparison input unavailable")

// InputError reports a missing or unreadable comparison input. A report is
// never produced from partial inputs.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("comparison input %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInput) true for every InputError.
func (e *InputError) Is(target error) bool { return target == ErrInput }

// ScenarioPaths names the four log files compared for one base name.
type ScenarioPaths struct {
	CleanTrips     string
	BlockedTrips   string
	CleanSummary   string
	BlockedSummary string
}

// NewScenarioPaths returns folder/base_{Clean,Blocked}_{tripinfo,summary}_output.xml.
func NewScenarioPaths(folder, base string) ScenarioPaths {
	name := func(variant, kind string) string {
		return filepath.Join(folder, fmt.Sprintf("%s_%s_%s_output.xml", base, variant, kind))
	}
	return ScenarioPaths{
		CleanTrips:     name("Clean", "tripinfo"),
		BlockedTrips:   name("Blocked", "tripinfo"),
		CleanSummary:   name("Clean", "summary"),
		BlockedSummary: name("Blocked", "summary"),
	}
}

// Inputs are the parsed logs of a clean/blocked pair.
type Inputs struct {
	CleanTrips     TripSet
	BlockedTrips   TripSet
	CleanSummary   SummarySeries
	BlockedSummary SummarySeries
}

// Compare derives the report for these inputs.
func (in *Inputs) Compare() Report {
	return Compare(in.CleanTrips, in.BlockedTrips, in.CleanSummary, in.BlockedSummary)
}

// ResolveLogFolder returns parent/base-logs, failing when it does not exist.
func ResolveLogFolder(fsys fsutil.FileSystem, parent, base string) (string, error) {
	folder := filepath.Join(parent, base+"-logs")
	if !fsys.Exists(folder) {
		return "", &InputError{Path: folder, Err: errors.New("folder not found")}
	}
	return folder, nil
}

// LoadScenario parses all four logs in folder. The first missing or
// malformed file aborts the load.
func LoadScenario(fsys fsutil.FileSystem, folder, base string) (*Inputs, error) {
	paths := NewScenarioPaths(folder, base)
	in := &Inputs{}

	trips := []struct {
		path  string
		label string
		dst   *TripSet
	}{
		{paths.CleanTrips, "Clean", &in.CleanTrips},
		{paths.BlockedTrips, "Blocked", &in.BlockedTrips},
	}
	for _, t := range trips {
		set, err := loadWith(fsys, t.path, func(r io.Reader) (TripSet, error) { return ParseTripInfo(r, t.label) })
		if err != nil {
			return nil, err
		}
		*t.dst = set
	}

	summaries := []struct {
		path  string
		label string
		dst   *SummarySeries
	}{
		{paths.CleanSummary, "Clean", &in.CleanSummary},
		{paths.BlockedSummary, "Blocked", &in.BlockedSummary},
	}
	for _, s := range summaries {
		series, err := loadWith(fsys, s.path, func(r io.Reader) (SummarySeries, error) { return ParseSummary(r, s.label) })
		if err != nil {
			return nil, err
		}
		*s.dst = series
	}
	return in, nil
}

func loadWith[T any](fsys fsutil.FileSystem, path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := fsys.Open(path)
	if err != nil {
		return zero, &InputError{Path: path, Err: err}
	}
	defer f.Close()

	v, err := parse(f)
	if err != nil {
		return zero, &InputError{Path: path, Err: err}
	}
	return v, nil
}
