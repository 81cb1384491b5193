// Package scenario runs the ordered generation pipeline that turns a map
// selection into a ready-to-simulate scenario: map download, network and
// polygon conversion, trip and route generation, edge usage analysis,
// playground geometry and the simulator configuration files.
package scenario

import (
	"fmt"
	"strconv"

	"github.com/banshee-data/scenario.report/internal/geometry"
)

// Config describes one scenario run. It is passed by value and never
// modified once a run starts.
type Config struct {
	Name         string               `json:"name"`
	BBox         geometry.BoundingBox `json:"bbox"`
	Duration     int                  `json:"duration"`
	VehicleCount int                  `json:"vehicle_count"`
}

// TripPeriod is the spawn interval in seconds between generated vehicles.
func TripPeriod(duration, vehicles int) (float64, error) {
	if vehicles <= 0 {
		return 0, fmt.Errorf("%w: vehicle count must be positive, got %d", ErrConfig, vehicles)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive, got %d", ErrConfig, duration)
	}
	return float64(duration) / float64(vehicles), nil
}

func formatPeriod(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
