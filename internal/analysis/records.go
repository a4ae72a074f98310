package analysis

import (
	"fmt"
	"time"

	"github.com/lowaak/ride-metrics/internal/history"
)

// Metric names for personal-record events.
const (
	MetricMaxPower     = "max_power"
	MetricMaxHeartRate = "max_heartrate"
	MetricPower1Min    = "power_60s"
	MetricPower5Min    = "power_300s"
	MetricPower20Min   = "power_1200s"
)

// recordCurveDurations are the sustained-power durations tracked for
// personal records.
var recordCurveDurations = []int{60, 300, 1200}

// Record is one personal-record event: the first time a metric was
// seen, or a later improvement over the running maximum.
type Record struct {
	Date      time.Time
	Metric    string
	Value     float64
	Delta     float64 // improvement over the previous best; 0 when First
	First     bool
	WorkoutID string
}

// DeltaLabel renders the improvement for display: "New" for the first
// occurrence, "+Δ" afterwards.
func (r Record) DeltaLabel() string {
	if r.First {
		return "New"
	}
	return fmt.Sprintf("+%.0f", r.Delta)
}

// PersonalRecords scans workouts in ascending chronological order and
// emits an event each time a tracked metric exceeds its running
// maximum. The input slice is not modified.
func PersonalRecords(workouts []history.Workout) []Record {
	ordered := make([]history.Workout, len(workouts))
	copy(ordered, workouts)
	history.SortChronological(ordered)

	running := make(map[string]float64)
	var records []Record

	observe := func(w history.Workout, metric string, value float64) {
		if value <= 0 {
			return
		}
		prev, seen := running[metric]
		if seen && value <= prev {
			return
		}
		rec := Record{
			Date:      w.StartTime,
			Metric:    metric,
			Value:     value,
			WorkoutID: w.ID,
		}
		if seen {
			rec.Delta = value - prev
		} else {
			rec.First = true
		}
		running[metric] = value
		records = append(records, rec)
	}

	for _, w := range ordered {
		observe(w, MetricMaxPower, w.Summary.MaxPower)
		observe(w, MetricMaxHeartRate, w.Summary.MaxHeartRate)
		for _, d := range recordCurveDurations {
			if watts, ok := w.Summary.PowerCurve[d]; ok {
				observe(w, fmt.Sprintf("power_%ds", d), watts)
			}
		}
	}
	return records
}

// DisplayOrder returns a reversed copy: most recent record first, the
// order record history is shown in.
func DisplayOrder(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[len(records)-1-i] = r
	}
	return out
}
