// Package zones classifies effort intensity as a percentage of a
// reference value (FTP or max heart rate) into ordered zone tables,
// and integrates time spent per zone over a measurement stream.
package zones

import (
	"fmt"

	"github.com/lowaak/ride-metrics/internal/stream"
)

// Config describes one zone of a reference table. MinPercent is
// inclusive, MaxPercent exclusive; the last zone's MaxPercent is
// treated as unbounded above.
type Config struct {
	Zone       int     `mapstructure:"zone" json:"zone"`
	Name       string  `mapstructure:"name" json:"name"`
	MinPercent float64 `mapstructure:"min_percent" json:"minPercent"`
	MaxPercent float64 `mapstructure:"max_percent" json:"maxPercent"`
	Color      string  `mapstructure:"color" json:"color"`
}

// Validate checks that a zone table is a usable partition: non-empty,
// zone numbers >= 1, strictly increasing MinPercent, and contiguous
// (each MaxPercent equals the next MinPercent). This is the only
// configuration problem that surfaces as an error; everything at
// computation time degrades to "no value" instead.
func Validate(zones []Config) error {
	if len(zones) == 0 {
		return fmt.Errorf("zones: table is empty")
	}
	for i, z := range zones {
		if z.Zone < 1 {
			return fmt.Errorf("zones: zone number %d must be >= 1", z.Zone)
		}
		if z.MaxPercent <= z.MinPercent {
			return fmt.Errorf("zones: zone %d has max %.1f <= min %.1f", z.Zone, z.MaxPercent, z.MinPercent)
		}
		if i > 0 {
			prev := zones[i-1]
			if z.MinPercent <= prev.MinPercent {
				return fmt.Errorf("zones: zone %d min %.1f not above zone %d min %.1f", z.Zone, z.MinPercent, prev.Zone, prev.MinPercent)
			}
			if prev.MaxPercent != z.MinPercent {
				return fmt.Errorf("zones: gap between zone %d max %.1f and zone %d min %.1f", prev.Zone, prev.MaxPercent, z.Zone, z.MinPercent)
			}
		}
	}
	return nil
}

// PercentOfReference returns 100*value/ref, or false when the
// reference is missing or non-positive.
func PercentOfReference(value, ref float64) (float64, bool) {
	if ref <= 0 {
		return 0, false
	}
	return 100 * value / ref, true
}

// ZoneFor classifies value against ref into the zone whose
// [MinPercent, MaxPercent) interval contains the resulting percent.
// A boundary value belongs to the zone it is the MinPercent of, never
// the zone below. Percentages above the table clamp to the highest
// zone. False when ref <= 0 or the table is empty.
func ZoneFor(value, ref float64, zones []Config) (int, bool) {
	percent, ok := PercentOfReference(value, ref)
	if !ok || len(zones) == 0 {
		return 0, false
	}
	for _, z := range zones {
		if percent >= z.MinPercent && percent < z.MaxPercent {
			return z.Zone, true
		}
	}
	last := zones[len(zones)-1]
	if percent >= last.MinPercent {
		return last.Zone, true
	}
	return 0, false
}

// TimeInZones integrates elapsed milliseconds per zone across the
// stream. Each consecutive sample pair attributes its time span to
// the zone of the pair's average value. Every configured zone is
// present in the result, zero-initialized; with fewer than two
// samples or a non-positive reference the all-zero map is returned.
//
// Known edge case: intervals whose midpoint falls into a gap of a
// malformed zone table are dropped, not reattributed.
func TimeInZones(s stream.Stream, ref float64, zones []Config) map[int]int64 {
	total := make(map[int]int64, len(zones))
	for _, z := range zones {
		total[z.Zone] = 0
	}
	if len(s) < 2 || ref <= 0 {
		return total
	}
	for i := 1; i < len(s); i++ {
		prev, curr := s[i-1], s[i]
		mid := (prev.Value + curr.Value) / 2
		zone, ok := ZoneFor(mid, ref, zones)
		if !ok {
			continue
		}
		total[zone] += curr.TimestampMS - prev.TimestampMS
	}
	return total
}

// DefaultPowerZones returns the classic seven power zones as
// percentages of FTP.
func DefaultPowerZones() []Config {
	return []Config{
		{Zone: 1, Name: "Active Recovery", MinPercent: 0, MaxPercent: 55, Color: "#7f8c8d"},
		{Zone: 2, Name: "Endurance", MinPercent: 55, MaxPercent: 75, Color: "#3498db"},
		{Zone: 3, Name: "Tempo", MinPercent: 75, MaxPercent: 90, Color: "#2ecc71"},
		{Zone: 4, Name: "Threshold", MinPercent: 90, MaxPercent: 105, Color: "#f1c40f"},
		{Zone: 5, Name: "VO2 Max", MinPercent: 105, MaxPercent: 120, Color: "#e67e22"},
		{Zone: 6, Name: "Anaerobic", MinPercent: 120, MaxPercent: 150, Color: "#e74c3c"},
		{Zone: 7, Name: "Neuromuscular", MinPercent: 150, MaxPercent: 1000, Color: "#9b59b6"},
	}
}

// DefaultHeartRateZones returns the five heart-rate zones as
// percentages of max heart rate.
func DefaultHeartRateZones() []Config {
	return []Config{
		{Zone: 1, Name: "Recovery", MinPercent: 0, MaxPercent: 60, Color: "#7f8c8d"},
		{Zone: 2, Name: "Aerobic", MinPercent: 60, MaxPercent: 70, Color: "#3498db"},
		{Zone: 3, Name: "Tempo", MinPercent: 70, MaxPercent: 80, Color: "#2ecc71"},
		{Zone: 4, Name: "Threshold", MinPercent: 80, MaxPercent: 90, Color: "#f1c40f"},
		{Zone: 5, Name: "Maximal", MinPercent: 90, MaxPercent: 1000, Color: "#e74c3c"},
	}
}
