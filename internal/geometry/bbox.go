package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// BoundingBox is a geographic selection in degrees.
type BoundingBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// NormalizeLongitude wraps lon into [-180, 180). Values already in
// [-180, 180] are returned unchanged, so 180 stays a valid east edge.
func NormalizeLongitude(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	return math.Mod(math.Mod(lon+180, 360)+360, 360) - 180
}

// IsZero reports the all-zero "no selection" sentinel.
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// Normalized returns b with both longitudes wrapped.
func (b BoundingBox) Normalized() BoundingBox {
	b.West = NormalizeLongitude(b.West)
	b.East = NormalizeLongitude(b.East)
	return b
}

// Validate checks that b is a usable download area.
func (b BoundingBox) Validate() error {
	if b.IsZero() {
		return fmt.Errorf("%w: no area selected", ErrGeometry)
	}
	ob := b.Bound()
	if ob.Bottom() < -90 || ob.Top() > 90 {
		return fmt.Errorf("%w: latitude out of range in %s", ErrGeometry, b)
	}
	if !(ob.Left() < ob.Right()) {
		return fmt.Errorf("%w: west %g must be less than east %g", ErrGeometry, ob.Left(), ob.Right())
	}
	if !(ob.Bottom() < ob.Top()) {
		return fmt.Errorf("%w: south %g must be less than north %g", ErrGeometry, ob.Bottom(), ob.Top())
	}
	return nil
}

// Bound converts to an orb.Bound with X as the wrapped longitude and Y as
// latitude.
func (b BoundingBox) Bound() orb.Bound {
	n := b.Normalized()
	return orb.Bound{Min: orb.Point{n.West, n.South}, Max: orb.Point{n.East, n.North}}
}

// FromBound builds a BoundingBox from an orb.Bound.
func FromBound(ob orb.Bound) BoundingBox {
	return BoundingBox{West: ob.Min[0], South: ob.Min[1], East: ob.Max[0], North: ob.Max[1]}
}

// String renders "west,south,east,north", the form the downloader expects.
func (b BoundingBox) String() string {
	return fmt.Sprintf("%s,%s,%s,%s", FormatFloat(b.West), FormatFloat(b.South), FormatFloat(b.East), FormatFloat(b.North))
}

// ParseBoundingBox parses "west,south,east,north". The result is not
// validated.
func ParseBoundingBox(s string) (BoundingBox, error) {
	ob, err := parseBound("bbox", s)
	if err != nil {
		return BoundingBox{}, err
	}
	return FromBound(ob), nil
}
