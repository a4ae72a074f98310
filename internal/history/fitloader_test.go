package history

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/ride-metrics/internal/stream"
)

func TestLoadFITSampleFile(t *testing.T) {
	path := os.Getenv("RIDE_METRICS_SAMPLE_FIT")
	if path == "" {
		t.Skip("set RIDE_METRICS_SAMPLE_FIT to a FIT activity file to run")
	}

	w, err := LoadFIT(path, 220)
	require.NoError(t, err)
	assert.NotEmpty(t, w.ID)
	assert.False(t, w.StartTime.IsZero())
	assert.Greater(t, w.Summary.AvgPower, 0.0)
	assert.NotEmpty(t, w.Summary.PowerCurve)
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"), 200, log.New(io.Discard, "", 0))
	assert.Error(t, err)
}

func TestLoadDirSkipsNonFIT(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644))
	// A .fit file that is not actually FIT gets logged and skipped.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.fit"), []byte("not fit"), 0644))

	workouts, err := LoadDir(dir, 200, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	assert.Empty(t, workouts)
}

func TestSortChronological(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ws := []Workout{
		{ID: "b", StartTime: base.AddDate(0, 0, 2)},
		{ID: "a", StartTime: base},
		{ID: "c", StartTime: base.AddDate(0, 0, 5)},
	}
	SortChronological(ws)
	assert.Equal(t, []string{"a", "b", "c"}, []string{ws[0].ID, ws[1].ID, ws[2].ID})
}

func TestSortedCurveDurations(t *testing.T) {
	curve := map[int]float64{300: 220, 1: 700, 60: 320}
	assert.Equal(t, []int{1, 60, 300}, SortedCurveDurations(curve))
}

func TestNormalizedPowerSteadyStateEqualsAverage(t *testing.T) {
	s := make(stream.Stream, 0, 120)
	for i := 0; i < 120; i++ {
		s = append(s, stream.Measurement{TimestampMS: int64(i) * 1000, Value: 200})
	}
	assert.InDelta(t, 200.0, normalizedPower(s), 1e-6)
}
