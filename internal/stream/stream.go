// Package stream holds sensor measurement sequences and the windowed
// aggregation primitives that derived fields are built from.
package stream

// Measurement is a single sensor sample. Timestamps are milliseconds
// since the Unix epoch and are non-decreasing within one recording.
type Measurement struct {
	TimestampMS int64
	Value       float64
}

// Stream is an append-only ordered sequence of measurements. The
// recording layer is the sole writer; the engine only ever reads a
// snapshot of it, so no locking happens at this level.
type Stream []Measurement

// Last returns the most recent measurement.
func (s Stream) Last() (Measurement, bool) {
	if len(s) == 0 {
		return Measurement{}, false
	}
	return s[len(s)-1], true
}

// Window returns the samples with TimestampMS >= refMS-windowMS.
// The returned slice aliases s; callers must not mutate it.
func (s Stream) Window(windowMS, refMS int64) Stream {
	cutoff := refMS - windowMS
	// Samples are time-ordered, so scan back from the tail.
	i := len(s)
	for i > 0 && s[i-1].TimestampMS >= cutoff {
		i--
	}
	return s[i:]
}

// DefaultMaxAgeMS is the staleness guard for LatestValue: a sensor
// that stopped reporting must not keep showing its frozen last value.
const DefaultMaxAgeMS = 5000
