package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/ride-metrics/internal/history"
)

func workoutWithCurve(id string, start time.Time, curve map[int]float64) history.Workout {
	return history.Workout{ID: id, StartTime: start, Summary: history.Summary{PowerCurve: curve}}
}

func TestPowerCurveMergesBestPerDuration(t *testing.T) {
	base := date(2026, 2, 1)
	ws := []history.Workout{
		workoutWithCurve("a", base, map[int]float64{60: 250, 300: 220}),
		workoutWithCurve("b", base.AddDate(0, 0, 1), map[int]float64{60: 260, 1200: 200}),
	}

	curve := PowerCurve(ws)
	require.Len(t, curve, 3)
	assert.Equal(t, PowerCurvePoint{DurationSeconds: 60, BestWatts: 260}, curve[0])
	assert.Equal(t, PowerCurvePoint{DurationSeconds: 300, BestWatts: 220}, curve[1])
	assert.Equal(t, PowerCurvePoint{DurationSeconds: 1200, BestWatts: 200}, curve[2])
}

func TestPowerCurveMaxPowerOnlyFeedsOneSecondBucket(t *testing.T) {
	ws := []history.Workout{
		{ID: "sprint", StartTime: date(2026, 2, 1), Summary: history.Summary{MaxPower: 900}},
	}

	curve := PowerCurve(ws)
	require.Len(t, curve, 1)
	assert.Equal(t, PowerCurvePoint{DurationSeconds: 1, BestWatts: 900}, curve[0])
}

func TestPowerCurveEmptyHistory(t *testing.T) {
	assert.Empty(t, PowerCurve(nil))
}

func TestPersonalRecordsSequence(t *testing.T) {
	base := date(2026, 2, 1)
	maxPowers := []float64{200, 200, 250, 240, 300}
	ws := make([]history.Workout, len(maxPowers))
	for i, p := range maxPowers {
		ws[i] = history.Workout{
			ID:        string(rune('a' + i)),
			StartTime: base.AddDate(0, 0, i),
			Summary:   history.Summary{MaxPower: p},
		}
	}

	records := PersonalRecords(ws)
	require.Len(t, records, 3)

	assert.Equal(t, 200.0, records[0].Value)
	assert.True(t, records[0].First)
	assert.Equal(t, "New", records[0].DeltaLabel())

	assert.Equal(t, 250.0, records[1].Value)
	assert.Equal(t, 50.0, records[1].Delta)
	assert.Equal(t, "+50", records[1].DeltaLabel())

	assert.Equal(t, 300.0, records[2].Value)
	assert.Equal(t, 50.0, records[2].Delta)
	assert.Equal(t, "e", records[2].WorkoutID)
}

func TestPersonalRecordsProcessesChronologically(t *testing.T) {
	base := date(2026, 2, 1)
	// Supplied out of order; the newest workout holds the lower value.
	ws := []history.Workout{
		{ID: "new", StartTime: base.AddDate(0, 0, 5), Summary: history.Summary{MaxPower: 240}},
		{ID: "old", StartTime: base, Summary: history.Summary{MaxPower: 250}},
	}

	records := PersonalRecords(ws)
	require.Len(t, records, 1)
	assert.Equal(t, "old", records[0].WorkoutID)
	assert.Equal(t, 250.0, records[0].Value)
}

func TestPersonalRecordsTracksCurveDurations(t *testing.T) {
	base := date(2026, 2, 1)
	ws := []history.Workout{
		workoutWithCurve("a", base, map[int]float64{60: 300, 300: 250}),
		workoutWithCurve("b", base.AddDate(0, 0, 1), map[int]float64{60: 310, 300: 240}),
	}

	records := PersonalRecords(ws)
	byMetric := make(map[string][]Record)
	for _, r := range records {
		byMetric[r.Metric] = append(byMetric[r.Metric], r)
	}

	require.Len(t, byMetric[MetricPower1Min], 2)
	assert.Equal(t, 10.0, byMetric[MetricPower1Min][1].Delta)
	require.Len(t, byMetric[MetricPower5Min], 1)
	assert.True(t, byMetric[MetricPower5Min][0].First)
}

func TestDisplayOrderReverses(t *testing.T) {
	records := []Record{
		{Metric: MetricMaxPower, Value: 200},
		{Metric: MetricMaxPower, Value: 250},
	}
	shown := DisplayOrder(records)
	assert.Equal(t, 250.0, shown[0].Value)
	assert.Equal(t, 200.0, shown[1].Value)
	// Input untouched.
	assert.Equal(t, 200.0, records[0].Value)
}
