package analysis

import (
	"sort"

	"github.com/lowaak/ride-metrics/internal/history"
)

// PowerCurvePoint is the best observed average power sustained for at
// least DurationSeconds, across all considered workouts.
type PowerCurvePoint struct {
	DurationSeconds int
	BestWatts       float64
}

// PowerCurve merges the per-workout curve summaries into one all-time
// curve over the standard durations. Durations no workout covers are
// omitted, not zero-filled. A workout without a curve but with a max
// power contributes that value to the one-second bucket only.
func PowerCurve(workouts []history.Workout) []PowerCurvePoint {
	best := make(map[int]float64)
	for _, w := range workouts {
		if len(w.Summary.PowerCurve) == 0 {
			if w.Summary.MaxPower > best[1] {
				best[1] = w.Summary.MaxPower
			}
			continue
		}
		for _, d := range history.CurveDurations {
			if watts, ok := w.Summary.PowerCurve[d]; ok && watts > best[d] {
				best[d] = watts
			}
		}
	}

	points := make([]PowerCurvePoint, 0, len(best))
	for d, watts := range best {
		if watts > 0 {
			points = append(points, PowerCurvePoint{DurationSeconds: d, BestWatts: watts})
		}
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].DurationSeconds < points[j].DurationSeconds
	})
	return points
}
