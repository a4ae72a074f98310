package history

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tormoder/fit"

	"github.com/lowaak/ride-metrics/internal/stream"
)

// CurveDurations are the sustained-power durations summarized per
// workout at import time, in seconds.
var CurveDurations = []int{1, 5, 10, 30, 60, 300, 1200, 3600}

// LoadFIT decodes one FIT activity file into a Workout record. The
// FTP is needed to derive intensity factor and training stress; pass
// 0 to skip both.
func LoadFIT(path string, ftpWatts float64) (Workout, error) {
	f, err := os.Open(path)
	if err != nil {
		return Workout{}, fmt.Errorf("history: open %s: %w", path, err)
	}
	defer f.Close()

	decoded, err := fit.Decode(f)
	if err != nil {
		return Workout{}, fmt.Errorf("history: decode %s: %w", path, err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return Workout{}, fmt.Errorf("history: %s is not an activity file: %w", path, err)
	}
	if len(activity.Sessions) == 0 {
		return Workout{}, fmt.Errorf("history: %s has no session message", path)
	}

	power, hr := recordStreams(activity.Records)
	session := activity.Sessions[0]

	w := Workout{
		ID:        strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		StartTime: session.StartTime,
		EndTime:   session.Timestamp,
	}
	if !w.EndTime.IsZero() && !w.StartTime.IsZero() {
		w.Duration = w.EndTime.Sub(w.StartTime)
	}

	w.Summary = summarize(session, power, hr, ftpWatts, w.Duration)
	return w, nil
}

// LoadDir loads every .fit file in a directory, skipping files that
// fail to decode, and returns the workouts in chronological order.
func LoadDir(dir string, ftpWatts float64, logger *log.Logger) ([]Workout, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("history: read dir %s: %w", dir, err)
	}

	var workouts []Workout
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".fit") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		w, err := LoadFIT(path, ftpWatts)
		if err != nil {
			logger.Printf("History: skipping %s: %v", path, err)
			continue
		}
		workouts = append(workouts, w)
	}
	SortChronological(workouts)
	return workouts, nil
}

// recordStreams converts FIT record messages to measurement streams,
// dropping samples carrying the FIT "invalid" sentinel.
func recordStreams(records []*fit.RecordMsg) (power, hr stream.Stream) {
	for _, rec := range records {
		if rec == nil || rec.Timestamp.IsZero() {
			continue
		}
		ts := rec.Timestamp.UnixMilli()
		if rec.Power != math.MaxUint16 {
			power = append(power, stream.Measurement{TimestampMS: ts, Value: float64(rec.Power)})
		}
		if rec.HeartRate != math.MaxUint8 {
			hr = append(hr, stream.Measurement{TimestampMS: ts, Value: float64(rec.HeartRate)})
		}
	}
	return power, hr
}

func summarize(session *fit.SessionMsg, power, hr stream.Stream, ftpWatts float64, duration time.Duration) Summary {
	s := Summary{PowerCurve: make(map[int]float64)}

	if v := session.AvgPower; v != math.MaxUint16 {
		s.AvgPower = float64(v)
	}
	if s.AvgPower == 0 {
		s.AvgPower, _ = stream.Average(power)
	}
	if v := session.MaxPower; v != math.MaxUint16 {
		s.MaxPower = float64(v)
	}
	if s.MaxPower == 0 {
		s.MaxPower, _ = stream.Max(power)
	}
	if v := session.AvgHeartRate; v != math.MaxUint8 {
		s.AvgHeartRate = float64(v)
	}
	if s.AvgHeartRate == 0 {
		s.AvgHeartRate, _ = stream.Average(hr)
	}
	if v := session.MaxHeartRate; v != math.MaxUint8 {
		s.MaxHeartRate = float64(v)
	}
	if s.MaxHeartRate == 0 {
		s.MaxHeartRate, _ = stream.Max(hr)
	}
	s.DistanceMeters = session.GetTotalDistanceScaled()
	if math.IsNaN(s.DistanceMeters) || math.IsInf(s.DistanceMeters, 0) || s.DistanceMeters < 0 {
		s.DistanceMeters = 0
	}

	for _, d := range CurveDurations {
		if best, ok := stream.BestSustainedAverage(power, d); ok {
			s.PowerCurve[d] = best
		}
	}
	// A one-second best is just the peak sample.
	if _, ok := s.PowerCurve[1]; !ok && s.MaxPower > 0 {
		s.PowerCurve[1] = s.MaxPower
	}

	s.NormalizedPower = normalizedPower(power)
	if s.NormalizedPower == 0 {
		s.NormalizedPower = s.AvgPower
	}
	if ftpWatts > 0 && s.NormalizedPower > 0 {
		s.IntensityFactor = s.NormalizedPower / ftpWatts
		hours := duration.Hours()
		s.TrainingLoad = hours * s.IntensityFactor * s.IntensityFactor * 100
	}
	return s
}

// normalizedPower mirrors the live field's formula: fourth root of
// the mean fourth power of the 30 second rolling average.
func normalizedPower(power stream.Stream) float64 {
	if len(power) < 2 {
		return 0
	}
	const windowMS = 30_000
	var fourthSum float64
	var count int
	var windowSum float64
	start := 0
	for end := 0; end < len(power); end++ {
		windowSum += power[end].Value
		for power[end].TimestampMS-power[start].TimestampMS > windowMS {
			windowSum -= power[start].Value
			start++
		}
		avg := windowSum / float64(end-start+1)
		fourthSum += avg * avg * avg * avg
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Pow(fourthSum/float64(count), 0.25)
}

// SortedCurveDurations returns the curve durations present in a
// summary, ascending.
func SortedCurveDurations(curve map[int]float64) []int {
	out := make([]int, 0, len(curve))
	for d := range curve {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}
