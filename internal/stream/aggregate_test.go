package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samples(pairs ...int64) Stream {
	s := make(Stream, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		s = append(s, Measurement{TimestampMS: pairs[i], Value: float64(pairs[i+1])})
	}
	return s
}

func TestEmptyStreamsHaveNoValue(t *testing.T) {
	var empty Stream

	_, ok := RollingAverage(empty, 3000, 10000)
	assert.False(t, ok)

	_, ok = WeightedRollingAverage(empty, 3000, 10000)
	assert.False(t, ok)

	_, ok = Average(empty)
	assert.False(t, ok)

	_, ok = Max(empty)
	assert.False(t, ok)

	_, ok = Min(empty)
	assert.False(t, ok)

	_, ok = LatestValue(empty, 10000, 0)
	assert.False(t, ok)
}

func TestRollingAverage(t *testing.T) {
	s := samples(1000, 100, 2000, 200, 3000, 300)

	avg, ok := RollingAverage(s, 2000, 3000)
	require.True(t, ok)
	assert.InDelta(t, 200.0, avg, 1e-9)

	// Window excludes everything.
	_, ok = RollingAverage(s, 500, 10000)
	assert.False(t, ok)

	// Single in-window sample.
	avg, ok = RollingAverage(s, 0, 3000)
	require.True(t, ok)
	assert.InDelta(t, 300.0, avg, 1e-9)
}

func TestWeightedRollingAverage(t *testing.T) {
	// Newer samples count more: value 300 at age 0 (weight 1),
	// value 100 at age 1000 of a 2000ms window (weight 0.5).
	s := samples(2000, 100, 3000, 300)
	avg, ok := WeightedRollingAverage(s, 2000, 3000)
	require.True(t, ok)
	assert.InDelta(t, (100*0.5+300*1)/1.5, avg, 1e-9)
}

func TestWeightedRollingAverageZeroTotalWeight(t *testing.T) {
	// The only in-window sample sits exactly on the trailing edge.
	s := samples(1000, 100)
	_, ok := WeightedRollingAverage(s, 2000, 3000)
	assert.False(t, ok)
}

func TestFullStreamAggregates(t *testing.T) {
	s := samples(1000, 5, 2000, 9, 3000, 1)

	avg, ok := Average(s)
	require.True(t, ok)
	assert.InDelta(t, 5.0, avg, 1e-9)

	max, ok := Max(s)
	require.True(t, ok)
	assert.Equal(t, 9.0, max)

	min, ok := Min(s)
	require.True(t, ok)
	assert.Equal(t, 1.0, min)
}

func TestLatestValueStalenessGuard(t *testing.T) {
	s := samples(1000, 42)

	v, ok := LatestValue(s, 5000, 0)
	require.True(t, ok)
	assert.Equal(t, 42.0, v)

	// One millisecond past the default max age.
	_, ok = LatestValue(s, 6001, 0)
	assert.False(t, ok)

	// Custom max age.
	_, ok = LatestValue(s, 1501, 500)
	assert.False(t, ok)
	v, ok = LatestValue(s, 1500, 500)
	require.True(t, ok)
	assert.Equal(t, 42.0, v)
}

func TestWindowFiltering(t *testing.T) {
	s := samples(1000, 1, 2000, 2, 3000, 3)

	w := s.Window(1000, 3000)
	require.Len(t, w, 2)
	assert.Equal(t, int64(2000), w[0].TimestampMS)
}

func TestBestSustainedAverage(t *testing.T) {
	// 1Hz power: 10s at 100W, then 10s at 200W.
	s := make(Stream, 0, 20)
	for i := 0; i < 10; i++ {
		s = append(s, Measurement{TimestampMS: int64(i) * 1000, Value: 100})
	}
	for i := 10; i < 20; i++ {
		s = append(s, Measurement{TimestampMS: int64(i) * 1000, Value: 200})
	}

	best, ok := BestSustainedAverage(s, 5)
	require.True(t, ok)
	assert.InDelta(t, 200.0, best, 1e-9)

	// Whole-stream average once duration forces both halves in.
	best, ok = BestSustainedAverage(s, 19)
	require.True(t, ok)
	assert.InDelta(t, 150.0, best, 1.0)

	// Stream does not cover the duration.
	_, ok = BestSustainedAverage(s, 60)
	assert.False(t, ok)
}
