package fields

import (
	"log"
	"math"

	"github.com/lowaak/ride-metrics/internal/stream"
	"github.com/lowaak/ride-metrics/internal/telemetry"
	"github.com/lowaak/ride-metrics/internal/zones"
)

// Rolling windows used by the smoothed power fields, in milliseconds.
const (
	window3s  = 3_000
	window10s = 10_000
	window5s  = 5_000
	window30s = 30_000
)

// Catalog builds a registry populated with the full curated field
// set.
func Catalog(logger *log.Logger) *Registry {
	r := NewRegistry(logger)
	for _, def := range catalogDefinitions() {
		r.Register(def)
	}
	return r
}

func catalogDefinitions() []Definition {
	allSizes := []Size{SizeSmall, SizeMedium, SizeLarge}

	return []Definition{
		// --- Power ---
		{
			ID: "power_current", Name: "Power", ShortName: "PWR",
			Category: CategoryPower, Description: "Instantaneous power from the power meter",
			Unit: "W", Source: SourceSensor, UpdateFrequency: "1s",
			DefaultSize: SizeLarge, SupportedSizes: allSizes, Icon: "bolt",
			RequiresSensor: []telemetry.SensorType{telemetry.SensorPower},
			Compute:        latest(telemetry.ChannelPower),
			Format:         FormatInt("W"),
		},
		{
			ID: "power_3s", Name: "Power (3s)", ShortName: "3s PWR",
			Category: CategoryPower, Description: "Power averaged over the last 3 seconds",
			Unit: "W", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeMedium, SupportedSizes: allSizes, Icon: "bolt",
			RequiresSensor: []telemetry.SensorType{telemetry.SensorPower},
			Compute:        rolling(telemetry.ChannelPower, window3s),
			Format:         FormatInt("W"),
		},
		{
			ID: "power_10s", Name: "Power (10s)", ShortName: "10s PWR",
			Category: CategoryPower, Description: "Power averaged over the last 10 seconds",
			Unit: "W", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeMedium, SupportedSizes: allSizes, Icon: "bolt",
			RequiresSensor: []telemetry.SensorType{telemetry.SensorPower},
			Compute:        rolling(telemetry.ChannelPower, window10s),
			Format:         FormatInt("W"),
		},
		{
			ID: "power_smoothed", Name: "Power (smoothed)", ShortName: "SM PWR",
			Category: CategoryPower, Description: "Age-weighted power average over the last 5 seconds",
			Unit: "W", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeMedium, SupportedSizes: allSizes, Icon: "bolt",
			RequiresSensor: []telemetry.SensorType{telemetry.SensorPower},
			Compute: func(snap telemetry.Snapshot) (float64, bool) {
				return stream.WeightedRollingAverage(snap.Measurements.Power, window5s, snap.NowMS)
			},
			Format: FormatInt("W"),
		},
		{
			ID: "power_avg", Name: "Average Power", ShortName: "AVG PWR",
			Category: CategoryPower, Description: "Average power over the whole session",
			Unit: "W", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "bolt",
			RequiresSensor:        []telemetry.SensorType{telemetry.SensorPower},
			RequiresWorkoutActive: true,
			Compute:               wholeStream(telemetry.ChannelPower, stream.Average),
			Format:                FormatInt("W"),
		},
		{
			ID: "power_max", Name: "Max Power", ShortName: "MAX PWR",
			Category: CategoryPower, Description: "Highest power seen this session",
			Unit: "W", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "bolt",
			RequiresSensor:        []telemetry.SensorType{telemetry.SensorPower},
			RequiresWorkoutActive: true,
			Compute:               wholeStream(telemetry.ChannelPower, stream.Max),
			Format:                FormatInt("W"),
		},
		{
			ID: "power_zone", Name: "Power Zone", ShortName: "PWR ZN",
			Category: CategoryPower, Description: "Current power zone as a fraction of FTP",
			Unit: "", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "bolt",
			RequiresSensor: []telemetry.SensorType{telemetry.SensorPower},
			Compute: func(snap telemetry.Snapshot) (float64, bool) {
				p, ok := stream.RollingAverage(snap.Measurements.Power, window3s, snap.NowMS)
				if !ok {
					return 0, false
				}
				z, ok := zones.ZoneFor(p, snap.Settings.FTPWatts, snap.Settings.PowerZones)
				return float64(z), ok
			},
			Format: FormatInt("Z"),
		},
		{
			ID: "power_pct_ftp", Name: "Percent of FTP", ShortName: "%FTP",
			Category: CategoryPower, Description: "Current power as a percentage of FTP",
			Unit: "%", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "bolt",
			RequiresSensor: []telemetry.SensorType{telemetry.SensorPower},
			Compute: func(snap telemetry.Snapshot) (float64, bool) {
				p, ok := stream.RollingAverage(snap.Measurements.Power, window3s, snap.NowMS)
				if !ok {
					return 0, false
				}
				return zones.PercentOfReference(p, snap.Settings.FTPWatts)
			},
			Format: FormatInt("%"),
		},
		{
			ID: "power_per_kg", Name: "Power to Weight", ShortName: "W/kg",
			Category: CategoryPower, Description: "Current power divided by rider weight",
			Unit: "W/kg", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "bolt",
			RequiresSensor: []telemetry.SensorType{telemetry.SensorPower},
			Compute: func(snap telemetry.Snapshot) (float64, bool) {
				if snap.Settings.WeightKG <= 0 {
					return 0, false
				}
				p, ok := stream.LatestValue(snap.Measurements.Power, snap.NowMS, 0)
				if !ok {
					return 0, false
				}
				return p / snap.Settings.WeightKG, true
			},
			Format: FormatFixed(2, "W/kg"),
		},
		{
			ID: "power_best_20m", Name: "Best 20 min Power", ShortName: "20m PWR",
			Category: CategoryPower, Description: "Best power held for 20 minutes this session",
			Unit: "W", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "bolt",
			RequiresSensor:        []telemetry.SensorType{telemetry.SensorPower},
			RequiresWorkoutActive: true,
			Compute: func(snap telemetry.Snapshot) (float64, bool) {
				return stream.BestSustainedAverage(snap.Measurements.Power, 1200)
			},
			Format: FormatInt("W"),
		},
		{
			ID: "power_normalized", Name: "Normalized Power", ShortName: "NP",
			Category: CategoryTraining, Description: "Fourth-power weighted average of 30 second power",
			Unit: "W", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "chart",
			RequiresSensor:        []telemetry.SensorType{telemetry.SensorPower},
			RequiresWorkoutActive: true,
			Compute: func(snap telemetry.Snapshot) (float64, bool) {
				return normalizedPower(snap.Measurements.Power)
			},
			Format: FormatInt("W"),
		},
		{
			ID: "intensity_factor", Name: "Intensity Factor", ShortName: "IF",
			Category: CategoryTraining, Description: "Normalized power relative to FTP",
			Unit: "", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "chart",
			RequiresSensor:        []telemetry.SensorType{telemetry.SensorPower},
			RequiresWorkoutActive: true,
			Compute: func(snap telemetry.Snapshot) (float64, bool) {
				if snap.Settings.FTPWatts <= 0 {
					return 0, false
				}
				np, ok := normalizedPower(snap.Measurements.Power)
				if !ok {
					return 0, false
				}
				return np / snap.Settings.FTPWatts, true
			},
			Format: FormatFixed(2, ""),
		},
		{
			ID: "tss_live", Name: "Training Stress", ShortName: "TSS",
			Category: CategoryTraining, Description: "Training stress score accumulated this session",
			Unit: "", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "chart",
			RequiresSensor:        []telemetry.SensorType{telemetry.SensorPower},
			RequiresWorkoutActive: true,
			Compute: func(snap telemetry.Snapshot) (float64, bool) {
				if snap.Settings.FTPWatts <= 0 {
					return 0, false
				}
				np, ok := normalizedPower(snap.Measurements.Power)
				if !ok {
					return 0, false
				}
				intensity := np / snap.Settings.FTPWatts
				hours := float64(snap.Workout.ElapsedMS(snap.NowMS)) / 3_600_000
				return hours * intensity * intensity * 100, true
			},
			Format: FormatInt(""),
		},
		{
			ID: "work_kj", Name: "Work", ShortName: "KJ",
			Category: CategoryTraining, Description: "Mechanical work performed this session",
			Unit: "kJ", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "chart",
			RequiresSensor:        []telemetry.SensorType{telemetry.SensorPower},
			RequiresWorkoutActive: true,
			Compute: func(snap telemetry.Snapshot) (float64, bool) {
				return workKilojoules(snap.Measurements.Power)
			},
			Format: FormatInt("kJ"),
		},

		// --- Heart rate ---
		{
			ID: "hr_current", Name: "Heart Rate", ShortName: "HR",
			Category: CategoryHeartRate, Description: "Instantaneous heart rate",
			Unit: "bpm", Source: SourceSensor, UpdateFrequency: "1s",
			DefaultSize: SizeLarge, SupportedSizes: allSizes, Icon: "heart",
			RequiresSensor: []telemetry.SensorType{telemetry.SensorHeartRate},
			Compute:        latest(telemetry.ChannelHeartRate),
			Format:         FormatInt("bpm"),
		},
		{
			ID: "hr_avg", Name: "Average Heart Rate", ShortName: "AVG HR",
			Category: CategoryHeartRate, Description: "Average heart rate over the whole session",
			Unit: "bpm", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "heart",
			RequiresSensor:        []telemetry.SensorType{telemetry.SensorHeartRate},
			RequiresWorkoutActive: true,
			Compute:               wholeStream(telemetry.ChannelHeartRate, stream.Average),
			Format:                FormatInt("bpm"),
		},
		{
			ID: "hr_max", Name: "Max Heart Rate", ShortName: "MAX HR",
			Category: CategoryHeartRate, Description: "Highest heart rate seen this session",
			Unit: "bpm", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "heart",
			RequiresSensor:        []telemetry.SensorType{telemetry.SensorHeartRate},
			RequiresWorkoutActive: true,
			Compute:               wholeStream(telemetry.ChannelHeartRate, stream.Max),
			Format:                FormatInt("bpm"),
		},
		{
			ID: "hr_zone", Name: "Heart Rate Zone", ShortName: "HR ZN",
			Category: CategoryHeartRate, Description: "Current heart rate zone as a fraction of max heart rate",
			Unit: "", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "heart",
			RequiresSensor: []telemetry.SensorType{telemetry.SensorHeartRate},
			Compute: func(snap telemetry.Snapshot) (float64, bool) {
				hr, ok := stream.LatestValue(snap.Measurements.HeartRate, snap.NowMS, 0)
				if !ok {
					return 0, false
				}
				z, ok := zones.ZoneFor(hr, snap.Settings.MaxHeartRate, snap.Settings.HeartRateZones)
				return float64(z), ok
			},
			Format: FormatInt("Z"),
		},
		{
			ID: "hr_pct_max", Name: "Percent of Max HR", ShortName: "%HR",
			Category: CategoryHeartRate, Description: "Current heart rate as a percentage of max heart rate",
			Unit: "%", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "heart",
			RequiresSensor: []telemetry.SensorType{telemetry.SensorHeartRate},
			Compute: func(snap telemetry.Snapshot) (float64, bool) {
				hr, ok := stream.LatestValue(snap.Measurements.HeartRate, snap.NowMS, 0)
				if !ok {
					return 0, false
				}
				return zones.PercentOfReference(hr, snap.Settings.MaxHeartRate)
			},
			Format: FormatInt("%"),
		},

		// --- Cadence ---
		{
			ID: "cadence_current", Name: "Cadence", ShortName: "RPM",
			Category: CategoryCadence, Description: "Instantaneous pedalling cadence",
			Unit: "rpm", Source: SourceSensor, UpdateFrequency: "1s",
			DefaultSize: SizeMedium, SupportedSizes: allSizes, Icon: "refresh",
			RequiresSensor: []telemetry.SensorType{telemetry.SensorCadence},
			Compute:        latest(telemetry.ChannelCadence),
			Format:         FormatInt("rpm"),
		},
		{
			ID: "cadence_avg", Name: "Average Cadence", ShortName: "AVG RPM",
			Category: CategoryCadence, Description: "Average cadence over the whole session",
			Unit: "rpm", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "refresh",
			RequiresSensor:        []telemetry.SensorType{telemetry.SensorCadence},
			RequiresWorkoutActive: true,
			Compute:               wholeStream(telemetry.ChannelCadence, stream.Average),
			Format:                FormatInt("rpm"),
		},

		// --- Speed / distance / elevation ---
		{
			ID: "speed_current", Name: "Speed", ShortName: "SPD",
			Category: CategorySpeed, Description: "Instantaneous ground speed",
			Unit: "m/s", Source: SourceSensor, UpdateFrequency: "1s",
			DefaultSize: SizeMedium, SupportedSizes: allSizes, Icon: "gauge",
			RequiresSensor: []telemetry.SensorType{telemetry.SensorSpeed},
			Compute:        latest(telemetry.ChannelSpeed),
			Format:         FormatSpeed(),
		},
		{
			ID: "speed_avg", Name: "Average Speed", ShortName: "AVG SPD",
			Category: CategorySpeed, Description: "Average speed over the whole session",
			Unit: "m/s", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "gauge",
			RequiresSensor:        []telemetry.SensorType{telemetry.SensorSpeed},
			RequiresWorkoutActive: true,
			Compute:               wholeStream(telemetry.ChannelSpeed, stream.Average),
			Format:                FormatSpeed(),
		},
		{
			ID: "speed_max", Name: "Max Speed", ShortName: "MAX SPD",
			Category: CategorySpeed, Description: "Highest speed seen this session",
			Unit: "m/s", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "gauge",
			RequiresSensor:        []telemetry.SensorType{telemetry.SensorSpeed},
			RequiresWorkoutActive: true,
			Compute:               wholeStream(telemetry.ChannelSpeed, stream.Max),
			Format:                FormatSpeed(),
		},
		{
			ID: "distance_total", Name: "Distance", ShortName: "DST",
			Category: CategorySpeed, Description: "Total distance covered this session",
			Unit: "m", Source: SourceSensor, UpdateFrequency: "1s",
			DefaultSize: SizeMedium, SupportedSizes: allSizes, Icon: "gauge",
			RequiresGPS: true,
			Compute:     latest(telemetry.ChannelDistance),
			Format:      FormatDistance(),
		},
		{
			ID: "altitude_current", Name: "Altitude", ShortName: "ALT",
			Category: CategoryElevation, Description: "Current altitude above sea level",
			Unit: "m", Source: SourceSensor, UpdateFrequency: "1s",
			DefaultSize: SizeSmall, SupportedSizes: allSizes, Icon: "mountain",
			RequiresGPS: true,
			Compute:     latest(telemetry.ChannelAltitude),
			Format:      FormatAltitude(),
		},

		// --- Time ---
		{
			ID: "elapsed_time", Name: "Elapsed Time", ShortName: "TIME",
			Category: CategoryTime, Description: "Time since the workout started",
			Unit: "s", Source: SourceCalculated, UpdateFrequency: "1s",
			DefaultSize: SizeMedium, SupportedSizes: allSizes, Icon: "clock",
			RequiresWorkoutActive: true,
			Compute: func(snap telemetry.Snapshot) (float64, bool) {
				return float64(snap.Workout.ElapsedMS(snap.NowMS)) / 1000, true
			},
			Format: FormatDuration(),
		},
	}
}

// latest builds a staleness-guarded sensor passthrough.
func latest(c telemetry.Channel) Compute {
	return func(snap telemetry.Snapshot) (float64, bool) {
		return stream.LatestValue(snap.Measurements.ByChannel(c), snap.NowMS, 0)
	}
}

// rolling builds a windowed-average compute over one channel.
func rolling(c telemetry.Channel, windowMS int64) Compute {
	return func(snap telemetry.Snapshot) (float64, bool) {
		return stream.RollingAverage(snap.Measurements.ByChannel(c), windowMS, snap.NowMS)
	}
}

// wholeStream builds a compute over the full stream of one channel.
func wholeStream(c telemetry.Channel, agg func(stream.Stream) (float64, bool)) Compute {
	return func(snap telemetry.Snapshot) (float64, bool) {
		return agg(snap.Measurements.ByChannel(c))
	}
}

// normalizedPower is the fourth root of the mean fourth power of the
// 30 second rolling average, computed with a two-pointer window so a
// long session stays linear.
func normalizedPower(s stream.Stream) (float64, bool) {
	if len(s) < 2 {
		return 0, false
	}
	var fourthSum float64
	var count int
	var windowSum float64
	start := 0
	for end := 0; end < len(s); end++ {
		windowSum += s[end].Value
		for s[end].TimestampMS-s[start].TimestampMS > window30s {
			windowSum -= s[start].Value
			start++
		}
		avg := windowSum / float64(end-start+1)
		fourthSum += avg * avg * avg * avg
		count++
	}
	if count == 0 {
		return 0, false
	}
	return math.Pow(fourthSum/float64(count), 0.25), true
}

// workKilojoules integrates power over time with the trapezoid rule.
func workKilojoules(s stream.Stream) (float64, bool) {
	if len(s) < 2 {
		return 0, false
	}
	var joules float64
	for i := 1; i < len(s); i++ {
		dt := float64(s[i].TimestampMS-s[i-1].TimestampMS) / 1000
		joules += dt * (s[i].Value + s[i-1].Value) / 2
	}
	return joules / 1000, true
}
