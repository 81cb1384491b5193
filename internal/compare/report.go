package compare

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// VehicleStats counts trips and reroutes per run.
type VehicleStats struct {
	TotalClean         int     `json:"total_clean"`
	TotalBlocked       int     `json:"total_blocked"`
	ReroutedClean      int     `json:"rerouted_clean"`
	ReroutedBlocked    int     `json:"rerouted_blocked"`
	RerouteRateClean   float64 `json:"reroute_rate_clean"`
	RerouteRateBlocked float64 `json:"reroute_rate_blocked"`
}

// SpeedStats compares the network mean speed over time.
type SpeedStats struct {
	MeanClean    float64 `json:"mean_clean"`
	MeanBlocked  float64 `json:"mean_blocked"`
	Reduction    float64 `json:"reduction"`
	ReductionPct float64 `json:"reduction_pct"`
}

// TimeLossStats compares mean per-trip time loss.
type TimeLossStats struct {
	MeanClean   float64 `json:"mean_clean"`
	MeanBlocked float64 `json:"mean_blocked"`
	// Delta is blocked minus clean, the delay added by the blockage.
	Delta float64 `json:"delta"`
}

// ExtremeStats holds the maximum and population standard deviation of
// time loss.
type ExtremeStats struct {
	MaxClean      float64 `json:"max_clean"`
	MaxBlocked    float64 `json:"max_blocked"`
	StdDevClean   float64 `json:"std_dev_clean"`
	StdDevBlocked float64 `json:"std_dev_blocked"`
}

// MeanPair is a clean/blocked pair of means.
type MeanPair struct {
	Clean   float64 `json:"clean"`
	Blocked float64 `json:"blocked"`
}

// Report is the differential summary of a clean and a blocked run.
type Report struct {
	Vehicles    VehicleStats  `json:"vehicles"`
	Speed       SpeedStats    `json:"speed"`
	TimeLoss    TimeLossStats `json:"time_loss"`
	Extremes    ExtremeStats  `json:"extremes"`
	Waiting     MeanPair      `json:"waiting"`
	RouteLength MeanPair      `json:"route_length"`
	Duration    MeanPair      `json:"duration"`
}

// Compare derives the report. Inputs are not modified and every aggregate
// over an empty set is 0.
func Compare(cleanTrips, blockedTrips TripSet, cleanSummary, blockedSummary SummarySeries) Report {
	var r Report

	r.Vehicles = VehicleStats{
		TotalClean:         cleanTrips.Count(),
		TotalBlocked:       blockedTrips.Count(),
		ReroutedClean:      cleanTrips.Rerouted(),
		ReroutedBlocked:    blockedTrips.Rerouted(),
		RerouteRateClean:   RerouteRate(cleanTrips),
		RerouteRateBlocked: RerouteRate(blockedTrips),
	}

	r.Speed.MeanClean = mean(cleanSummary.MeanSpeeds())
	r.Speed.MeanBlocked = mean(blockedSummary.MeanSpeeds())
	r.Speed.Reduction = r.Speed.MeanClean - r.Speed.MeanBlocked
	if r.Speed.MeanClean > 0 {
		r.Speed.ReductionPct = r.Speed.Reduction / r.Speed.MeanClean * 100
	}

	cleanLoss, blockedLoss := cleanTrips.TimeLosses(), blockedTrips.TimeLosses()
	r.TimeLoss.MeanClean = mean(cleanLoss)
	r.TimeLoss.MeanBlocked = mean(blockedLoss)
	r.TimeLoss.Delta = r.TimeLoss.MeanBlocked - r.TimeLoss.MeanClean

	r.Extremes = ExtremeStats{
		MaxClean:      maxOrZero(cleanLoss),
		MaxBlocked:    maxOrZero(blockedLoss),
		StdDevClean:   popStdDev(cleanLoss),
		StdDevBlocked: popStdDev(blockedLoss),
	}

	r.Waiting = MeanPair{mean(cleanTrips.WaitingTimes()), mean(blockedTrips.WaitingTimes())}
	r.RouteLength = MeanPair{mean(cleanTrips.RouteLengths()), mean(blockedTrips.RouteLengths())}
	r.Duration = MeanPair{mean(cleanTrips.Durations()), mean(blockedTrips.Durations())}
	return r
}

// RerouteRate is the percentage of trips rerouted at least once, 0 for an
// empty set.
func RerouteRate(s TripSet) float64 {
	if s.Count() == 0 {
		return 0
	}
	return float64(s.Rerouted()) / float64(s.Count()) * 100
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

func popStdDev(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(stat.PopVariance(x, nil))
}

func maxOrZero(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Max(x)
}

// Text renders the research summary for base.
func (r Report) Text(base string) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("RESEARCH SUMMARY: %s", base)
	line("%s", strings.Repeat("=", 45))
	line("[VEHICLE STATS]")
	line("Total Vehicles (Clean):      %d", r.Vehicles.TotalClean)
	line("Total Vehicles (Blocked):    %d", r.Vehicles.TotalBlocked)
	line("Vehicles Rerouted (Clean):   %d (%.1f%%)", r.Vehicles.ReroutedClean, r.Vehicles.RerouteRateClean)
	line("Vehicles Rerouted (Blocked): %d (%.1f%%)", r.Vehicles.ReroutedBlocked, r.Vehicles.RerouteRateBlocked)
	line("")
	line("[SPEED & THROUGHPUT]")
	line("Avg Mean Speed (Clean):      %.2f m/s", r.Speed.MeanClean)
	line("Avg Mean Speed (Blocked):    %.2f m/s", r.Speed.MeanBlocked)
	line("SPEED REDUCTION:             %+.2f m/s (%.1f%%)", r.Speed.MeanBlocked-r.Speed.MeanClean, r.Speed.ReductionPct)
	line("")
	line("[TIME LOSS ANALYSIS]")
	line("Avg Time Loss (Clean):       %.1fs", r.TimeLoss.MeanClean)
	line("Avg Time Loss (Blocked):     %.1fs", r.TimeLoss.MeanBlocked)
	line("ATTACK IMPACT (Added Delay): %+.2fs", r.TimeLoss.Delta)
	line("")
	line("[EXTREME VALUES & VARIANCE]")
	line("Max Time Loss (Clean):       %.1fs", r.Extremes.MaxClean)
	line("Max Time Loss (Blocked):     %.1fs", r.Extremes.MaxBlocked)
	line("Std Dev Time Loss (Clean):   %.2f", r.Extremes.StdDevClean)
	line("Std Dev Time Loss (Blocked): %.2f", r.Extremes.StdDevBlocked)
	line("")
	line("[WAITING TIME]")
	line("Avg Waiting (Clean):         %.1fs", r.Waiting.Clean)
	line("Avg Waiting (Blocked):       %.1fs", r.Waiting.Blocked)
	line("")
	line("[ROUTE ANALYSIS]")
	line("Avg Route Length (Clean):    %.1fm", r.RouteLength.Clean)
	line("Avg Route Length (Blocked):  %.1fm", r.RouteLength.Blocked)
	return b.String()
}
