package stream

// All aggregation primitives report absence with a false second
// return instead of an error: an empty window means "show a
// placeholder", never a fault.

// RollingAverage returns the arithmetic mean of samples inside the
// window [refMS-windowMS, refMS]. False when the stream is empty or
// no sample falls in the window.
func RollingAverage(s Stream, windowMS, refMS int64) (float64, bool) {
	w := s.Window(windowMS, refMS)
	if len(w) == 0 {
		return 0, false
	}
	var sum float64
	for _, m := range w {
		sum += m.Value
	}
	return sum / float64(len(w)), true
}

// WeightedRollingAverage is RollingAverage with linearly decaying
// weights: a sample aged a fraction f of the window contributes with
// weight 1-f. False on an empty window or when the total weight is
// exactly zero (all samples sitting on the window's trailing edge).
func WeightedRollingAverage(s Stream, windowMS, refMS int64) (float64, bool) {
	w := s.Window(windowMS, refMS)
	if len(w) == 0 || windowMS <= 0 {
		return 0, false
	}
	var weightedSum, totalWeight float64
	for _, m := range w {
		age := float64(refMS - m.TimestampMS)
		weight := 1 - age/float64(windowMS)
		if weight < 0 {
			weight = 0
		}
		weightedSum += m.Value * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0, false
	}
	return weightedSum / totalWeight, true
}

// Average returns the mean over the whole stream.
func Average(s Stream) (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	var sum float64
	for _, m := range s {
		sum += m.Value
	}
	return sum / float64(len(s)), true
}

// Max returns the largest value in the stream.
func Max(s Stream) (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	max := s[0].Value
	for _, m := range s[1:] {
		if m.Value > max {
			max = m.Value
		}
	}
	return max, true
}

// Min returns the smallest value in the stream.
func Min(s Stream) (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	min := s[0].Value
	for _, m := range s[1:] {
		if m.Value < min {
			min = m.Value
		}
	}
	return min, true
}

// LatestValue returns the last sample's value if it is no older than
// maxAgeMS relative to nowMS. Pass maxAgeMS <= 0 for DefaultMaxAgeMS.
func LatestValue(s Stream, nowMS, maxAgeMS int64) (float64, bool) {
	if maxAgeMS <= 0 {
		maxAgeMS = DefaultMaxAgeMS
	}
	last, ok := s.Last()
	if !ok {
		return 0, false
	}
	if nowMS-last.TimestampMS > maxAgeMS {
		return 0, false
	}
	return last.Value, true
}

// BestSustainedAverage returns the best average value held over any
// contiguous span of at least durationSec seconds, using a two-pointer
// sliding window over sample timestamps. False when the stream does
// not cover the duration.
func BestSustainedAverage(s Stream, durationSec int) (float64, bool) {
	if len(s) < 2 || durationSec <= 0 {
		return 0, false
	}
	spanMS := int64(durationSec) * 1000
	if s[len(s)-1].TimestampMS-s[0].TimestampMS < spanMS {
		return 0, false
	}

	best := 0.0
	found := false
	var sum float64
	start := 0
	for end := 0; end < len(s); end++ {
		sum += s[end].Value
		// Shrink from the left while the window still covers the span.
		for start < end && s[end].TimestampMS-s[start+1].TimestampMS >= spanMS {
			sum -= s[start].Value
			start++
		}
		if s[end].TimestampMS-s[start].TimestampMS >= spanMS {
			avg := sum / float64(end-start+1)
			if !found || avg > best {
				best = avg
				found = true
			}
		}
	}
	return best, found
}
