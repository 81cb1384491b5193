// Package geometry computes the padded simulation playground for a converted
// road network and handles the geographic bounding boxes used to request map
// downloads.
package geometry

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// DefaultPadding enlarges the playground by 50% in each dimension.
const DefaultPadding = 0.50

// ErrGeometry is returned for missing or malformed spatial metadata.
var ErrGeometry = errors.New("geometry error")

// Result is the padded playground and the shifted reference (RSU) position.
type Result struct {
	PlaygroundWidth  float64 `json:"playground_width"`
	PlaygroundHeight float64 `json:"playground_height"`
	ReferenceX       float64 `json:"reference_x"`
	ReferenceY       float64 `json:"reference_y"`
}

// Buffer pads the net rectangle b by the given fraction. The original map is
// centred inside the padded playground, so the reference point sits at the
// map centre shifted by half the buffer.
func Buffer(b orb.Bound, padding float64) (Result, error) {
	width := b.Max[0] - b.Min[0]
	height := b.Max[1] - b.Min[1]
	if !(width > 0) || !(height > 0) {
		return Result{}, fmt.Errorf("%w: non-positive extent %gx%g", ErrGeometry, width, height)
	}
	if padding < 0 {
		return Result{}, fmt.Errorf("%w: negative padding %g", ErrGeometry, padding)
	}

	bufferX := width * padding
	bufferY := height * padding

	return Result{
		PlaygroundWidth:  width + bufferX,
		PlaygroundHeight: height + bufferY,
		ReferenceX:       width/2.0 + bufferX/2.0,
		ReferenceY:       height/2.0 + bufferY/2.0,
	}, nil
}

// ParseConvBoundary parses a "minX,minY,maxX,maxY" attribute value.
func ParseConvBoundary(s string) (orb.Bound, error) {
	return parseBound("convBoundary", s)
}

// parseBound reads "minX,minY,maxX,maxY" without checking the ordering.
func parseBound(label, s string) (orb.Bound, error) {
	var v [4]float64
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("%w: %s %q must have 4 values", ErrGeometry, label, s)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("%w: %s %q: %v", ErrGeometry, label, s, err)
		}
		v[i] = f
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

// ReadNetBoundary scans a network file for the first <location> element and
// returns its convBoundary.
func ReadNetBoundary(r io.Reader) (orb.Bound, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return orb.Bound{}, fmt.Errorf("%w: location tag not found in network", ErrGeometry)
		}
		if err != nil {
			return orb.Bound{}, fmt.Errorf("%w: %v", ErrGeometry, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "location" {
			continue
		}
		for _, a := range se.Attr {
			if a.Name.Local == "convBoundary" {
				return ParseConvBoundary(a.Value)
			}
		}
		return orb.Bound{}, fmt.Errorf("%w: location tag has no convBoundary", ErrGeometry)
	}
}

// FormatFloat renders v without trailing zeros, e.g. 1500 -> "1500".
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
