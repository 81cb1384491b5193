// Package compare ingests the trip-level and time-series logs of a clean and
// a blocked simulation run and derives the differential research report.
package compare

// TripRecord is one <tripinfo> entry.
type TripRecord struct {
	Depart      float64 `json:"depart"`
	Duration    float64 `json:"duration"`
	TimeLoss    float64 `json:"time_loss"`
	WaitingTime float64 `json:"waiting_time"`
	RouteLength float64 `json:"route_length"`
	Rerouted    bool    `json:"rerouted"`
}

// TripSet holds every trip of one run in file order.
type TripSet struct {
	Label   string
	Records []TripRecord
}

// Count is the number of trips.
func (s TripSet) Count() int { return len(s.Records) }

// Rerouted counts trips rerouted at least once.
func (s TripSet) Rerouted() int {
	n := 0
	for _, r := range s.Records {
		if r.Rerouted {
			n++
		}
	}
	return n
}

func (s TripSet) column(f func(TripRecord) float64) []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = f(r)
	}
	return out
}

func (s TripSet) Departs() []float64 {
	return s.column(func(r TripRecord) float64 { return r.Depart })
}

func (s TripSet) Durations() []float64 {
	return s.column(func(r TripRecord) float64 { return r.Duration })
}

func (s TripSet) TimeLosses() []float64 {
	return s.column(func(r TripRecord) float64 { return r.TimeLoss })
}

func (s TripSet) WaitingTimes() []float64 {
	return s.column(func(r TripRecord) float64 { return r.WaitingTime })
}

func (s TripSet) RouteLengths() []float64 {
	return s.column(func(r TripRecord) float64 { return r.RouteLength })
}

// SummarySample is one <step> of the simulator summary output.
type SummarySample struct {
	Time      float64 `json:"time"`
	Running   int     `json:"running"`
	MeanSpeed float64 `json:"mean_speed"`
}

// SummarySeries is a run's summary time series in source order.
type SummarySeries struct {
	Label   string
	Samples []SummarySample
}

func (s SummarySeries) Times() []float64 {
	out := make([]float64, len(s.Samples))
	for i, v := range s.Samples {
		out[i] = v.Time
	}
	return out
}

func (s SummarySeries) Running() []float64 {
	out := make([]float64, len(s.Samples))
	for i, v := range s.Samples {
		out[i] = float64(v.Running)
	}
	return out
}

func (s SummarySeries) MeanSpeeds() []float64 {
	out := make([]float64, len(s.Samples))
	for i, v := range s.Samples {
		out[i] = v.MeanSpeed
	}
	return out
}
