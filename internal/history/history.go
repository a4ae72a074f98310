// Package history models completed workouts as supplied by an
// external store, plus a FIT-file importer for loading them from
// disk. Analytics (fitness trend, power curve, personal records)
// consume these records as a frozen snapshot.
package history

import (
	"sort"
	"time"
)

// Summary is the precomputed per-workout roll-up the analytics
// components read. PowerCurve maps duration in seconds to the best
// average power held for that long within the workout.
type Summary struct {
	AvgPower        float64
	MaxPower        float64
	NormalizedPower float64
	IntensityFactor float64
	TrainingLoad    float64
	AvgHeartRate    float64
	MaxHeartRate    float64
	DistanceMeters  float64
	PowerCurve      map[int]float64
}

// Workout is one completed session.
type Workout struct {
	ID        string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Summary   Summary
}

// SortChronological orders workouts by start time ascending, in
// place.
func SortChronological(workouts []Workout) {
	sort.Slice(workouts, func(i, j int) bool {
		return workouts[i].StartTime.Before(workouts[j].StartTime)
	})
}
