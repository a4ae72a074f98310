// Package analysis derives longer-horizon training signals from
// workout history: the fitness/fatigue trend, weekly load buckets,
// the aggregated power curve, and personal-record events. Everything
// here runs on demand against a frozen history snapshot and is
// recomputed whenever the snapshot changes.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/lowaak/ride-metrics/internal/history"
)

// Exponential decay per day for the two moving averages. CTL carries
// a ~42 day time constant (fitness), ATL ~7 days (fatigue).
var (
	ctlDecay = math.Exp(-1.0 / 42.0)
	atlDecay = math.Exp(-1.0 / 7.0)
)

// LoadSample is one calendar day's summed training stress.
type LoadSample struct {
	Date time.Time
	TSS  float64
}

// FitnessPoint is the derived fitness state for one calendar day.
// TSB is always CTL minus ATL.
type FitnessPoint struct {
	Date time.Time
	CTL  float64
	ATL  float64
	TSB  float64
}

// day truncates a time to its calendar day in UTC.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DailyLoads buckets workout training stress by the calendar day each
// workout ended, summing same-day workouts. The result is sorted by
// date.
func DailyLoads(workouts []history.Workout) []LoadSample {
	byDay := make(map[time.Time]float64)
	for _, w := range workouts {
		end := w.EndTime
		if end.IsZero() {
			end = w.StartTime
		}
		if end.IsZero() || w.Summary.TrainingLoad <= 0 {
			continue
		}
		byDay[day(end)] += w.Summary.TrainingLoad
	}

	samples := make([]LoadSample, 0, len(byDay))
	for d, tss := range byDay {
		samples = append(samples, LoadSample{Date: d, TSS: tss})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Date.Before(samples[j].Date) })
	return samples
}

// FitnessTrend walks every calendar day from the first sample through
// `until` inclusive, feeding each day's TSS (zero on rest days) into
// the two moving averages. Rest days still decay both curves; no day
// is skipped. Returns nil when there are no samples.
func FitnessTrend(samples []LoadSample, until time.Time) []FitnessPoint {
	if len(samples) == 0 {
		return nil
	}

	byDay := make(map[time.Time]float64, len(samples))
	first := day(samples[0].Date)
	for _, s := range samples {
		d := day(s.Date)
		byDay[d] += s.TSS
		if d.Before(first) {
			first = d
		}
	}
	last := day(until)
	if last.Before(first) {
		last = first
	}

	var points []FitnessPoint
	var ctl, atl float64
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		tss := byDay[d]
		ctl = ctl*ctlDecay + tss*(1-ctlDecay)
		atl = atl*atlDecay + tss*(1-atlDecay)
		points = append(points, FitnessPoint{Date: d, CTL: ctl, ATL: atl, TSB: ctl - atl})
	}
	return points
}

// WeekLoad is the summed training stress of one ISO week.
type WeekLoad struct {
	Year int
	Week int
	TSS  float64
}

// WeeklyLoads buckets samples by ISO-8601 week (Monday start, week 1
// contains January 4th) and returns the buckets in chronological
// order.
func WeeklyLoads(samples []LoadSample) []WeekLoad {
	type key struct{ year, week int }
	byWeek := make(map[key]float64)
	for _, s := range samples {
		y, w := s.Date.UTC().ISOWeek()
		byWeek[key{y, w}] += s.TSS
	}

	loads := make([]WeekLoad, 0, len(byWeek))
	for k, tss := range byWeek {
		loads = append(loads, WeekLoad{Year: k.year, Week: k.week, TSS: tss})
	}
	sort.Slice(loads, func(i, j int) bool {
		if loads[i].Year != loads[j].Year {
			return loads[i].Year < loads[j].Year
		}
		return loads[i].Week < loads[j].Week
	})
	return loads
}
