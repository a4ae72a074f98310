// Package telemetry defines the read-only state snapshots the engine
// consumes per computation: measurement streams, sensor connection
// flags, the workout clock, and the rider's settings. The engine
// never mutates these; producers hand over fresh copies.
package telemetry

import (
	"github.com/lowaak/ride-metrics/internal/stream"
	"github.com/lowaak/ride-metrics/internal/zones"
)

// SensorType identifies a sensor channel a field may depend on.
type SensorType string

const (
	SensorPower     SensorType = "power"
	SensorHeartRate SensorType = "heart_rate"
	SensorCadence   SensorType = "cadence"
	SensorSpeed     SensorType = "speed"
)

// Channel identifies one measurement stream.
type Channel string

const (
	ChannelPower     Channel = "power"
	ChannelHeartRate Channel = "heart_rate"
	ChannelCadence   Channel = "cadence"
	ChannelSpeed     Channel = "speed"
	ChannelDistance  Channel = "distance"
	ChannelAltitude  Channel = "altitude"
)

// Measurements holds the per-channel streams of one recording
// session. Streams are owned by the recording layer and borrowed
// read-only for the duration of one computation.
type Measurements struct {
	Power     stream.Stream
	HeartRate stream.Stream
	Cadence   stream.Stream
	Speed     stream.Stream
	Distance  stream.Stream
	Altitude  stream.Stream
}

// ByChannel returns the stream for a channel.
func (m Measurements) ByChannel(c Channel) stream.Stream {
	switch c {
	case ChannelPower:
		return m.Power
	case ChannelHeartRate:
		return m.HeartRate
	case ChannelCadence:
		return m.Cadence
	case ChannelSpeed:
		return m.Speed
	case ChannelDistance:
		return m.Distance
	case ChannelAltitude:
		return m.Altitude
	}
	return nil
}

// Connections reports which sensor types currently have a connected
// device.
type Connections map[SensorType]bool

// Workout is the snapshot of the externally owned workout state
// machine. The engine only reads it.
type Workout struct {
	Running     bool
	StartTimeMS int64
	EndTimeMS   int64
}

// ElapsedMS returns the workout's elapsed time at nowMS. Zero when no
// workout has started.
func (w Workout) ElapsedMS(nowMS int64) int64 {
	if w.StartTimeMS == 0 {
		return 0
	}
	end := nowMS
	if !w.Running && w.EndTimeMS > 0 {
		end = w.EndTimeMS
	}
	if end < w.StartTimeMS {
		return 0
	}
	return end - w.StartTimeMS
}

// UnitSystem selects display units.
type UnitSystem string

const (
	UnitsMetric   UnitSystem = "metric"
	UnitsImperial UnitSystem = "imperial"
)

// Settings is the rider profile consumed as an immutable snapshot per
// computation: named fields instead of a loosely typed bag so every
// field formula has a stable contract.
type Settings struct {
	UnitSystem     UnitSystem
	FTPWatts       float64
	MaxHeartRate   float64
	WeightKG       float64
	PowerZones     []zones.Config
	HeartRateZones []zones.Config
}

// Snapshot is the full calculation context for one field computation.
type Snapshot struct {
	Measurements Measurements
	Connections  Connections
	Workout      Workout
	Settings     Settings
	NowMS        int64
}
