package routes

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/banshee-data/scenario.report/internal/fsutil"
)

// ErrAnalysis is the sentinel every AnalysisError matches.
var ErrAnalysis = errors.New("route analysis failed")

// AnalysisKind distinguishes why an analysis produced no data.
type AnalysisKind int

const (
	FileNotFound AnalysisKind = iota + 1
	ParseError
)

func (k AnalysisKind) String() string {
	switch k {
	case FileNotFound:
		return "FileNotFound"
	case ParseError:
		return "ParseError"
	default:
		return "Unknown"
	}
}

// AnalysisError reports a missing or unreadable route file. Callers treat it
// as "no data" rather than a hard failure.
type AnalysisError struct {
	Kind AnalysisKind
	Path string
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("route analysis %s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrAnalysis) true for every AnalysisError.
func (e *AnalysisError) Is(target error) bool { return target == ErrAnalysis }

// Analyze counts edge traversals in the route file at path and returns the
// topN ranking along with the full table. On error the ranking is empty.
func Analyze(fsys fsutil.FileSystem, path string, topN int) ([]EdgeCount, *Usage, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, &AnalysisError{Kind: FileNotFound, Path: path, Err: err}
		}
		return nil, nil, &AnalysisError{Kind: ParseError, Path: path, Err: err}
	}
	defer f.Close()

	usage, err := Count(f)
	if err != nil {
		return nil, nil, &AnalysisError{Kind: ParseError, Path: path, Err: err}
	}
	return usage.Top(topN), usage, nil
}

// Count streams a route document. For every <vehicle>, the edges attribute
// of its first direct <route> child is split on whitespace and tallied.
// Vehicles without an inline route (e.g. referencing a route by id) are
// skipped.
func Count(r io.Reader) (*Usage, error) {
	type openVehicle struct {
		depth      int
		routeTaken bool
	}

	dec := xml.NewDecoder(r)
	usage := NewUsage()
	depth := 0
	var vehicles []openVehicle

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "vehicle" {
				vehicles = append(vehicles, openVehicle{depth: depth})
				continue
			}
			if t.Name.Local != "route" || len(vehicles) == 0 {
				continue
			}
			v := &vehicles[len(vehicles)-1]
			if depth != v.depth+1 || v.routeTaken {
				continue
			}
			v.routeTaken = true
			if edges := attr(t, "edges"); edges != "" {
				usage.Add(strings.Fields(edges))
			}
		case xml.EndElement:
			if n := len(vehicles); n > 0 && vehicles[n-1].depth == depth {
				vehicles = vehicles[:n-1]
			}
			depth--
		}
	}

	if depth != 0 {
		return nil, io.ErrUnexpectedEOF
	}
	return usage, nil
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
