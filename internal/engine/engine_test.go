package engine

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/ride-metrics/internal/fields"
	"github.com/lowaak/ride-metrics/internal/stream"
	"github.com/lowaak/ride-metrics/internal/telemetry"
	"github.com/lowaak/ride-metrics/internal/zones"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// fixedNow pins the engine clock so staleness guards behave
// deterministically.
func fixedNow(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func newTestEngine(t *testing.T, nowMS int64) *Engine {
	t.Helper()
	e := New(fields.Catalog(testLogger()), testLogger(), Options{Now: fixedNow(nowMS)})
	t.Cleanup(e.Shutdown)
	e.SetSettings(telemetry.Settings{
		FTPWatts:       200,
		MaxHeartRate:   185,
		WeightKG:       70,
		PowerZones:     zones.DefaultPowerZones(),
		HeartRateZones: zones.DefaultHeartRateZones(),
	})
	return e
}

func powerStream(values ...float64) stream.Stream {
	s := make(stream.Stream, 0, len(values))
	for i, v := range values {
		s = append(s, stream.Measurement{TimestampMS: int64(i+1) * 1000, Value: v})
	}
	return s
}

func TestCalculateFieldSensorPassthrough(t *testing.T) {
	e := newTestEngine(t, 3000)
	e.SetConnections(telemetry.Connections{telemetry.SensorPower: true})
	e.SetMeasurements(telemetry.Measurements{Power: powerStream(150, 180, 210)})

	v, ok := e.CalculateField("power_current")
	require.True(t, ok)
	assert.Equal(t, 210.0, v)
}

func TestCalculateFieldDisconnectedSensor(t *testing.T) {
	e := newTestEngine(t, 3000)
	// Measurements present but the sensor is reported disconnected:
	// the precondition gate wins and the formula never runs.
	e.SetMeasurements(telemetry.Measurements{Power: powerStream(150, 180, 210)})

	_, ok := e.CalculateField("power_current")
	assert.False(t, ok)
}

func TestCalculateFieldStaleSensorValue(t *testing.T) {
	e := newTestEngine(t, 60_000) // last sample is 57s old
	e.SetConnections(telemetry.Connections{telemetry.SensorPower: true})
	e.SetMeasurements(telemetry.Measurements{Power: powerStream(150, 180, 210)})

	_, ok := e.CalculateField("power_current")
	assert.False(t, ok)
}

func TestCalculateFieldWorkoutGate(t *testing.T) {
	e := newTestEngine(t, 3000)
	e.SetConnections(telemetry.Connections{telemetry.SensorPower: true})
	e.SetMeasurements(telemetry.Measurements{Power: powerStream(100, 200)})

	_, ok := e.CalculateField("power_avg")
	assert.False(t, ok, "needs an active workout")

	e.SetWorkout(telemetry.Workout{Running: true, StartTimeMS: 1000})
	v, ok := e.CalculateField("power_avg")
	require.True(t, ok)
	assert.Equal(t, 150.0, v)
}

func TestCalculateFieldGPSGate(t *testing.T) {
	e := newTestEngine(t, 3000)
	e.SetMeasurements(telemetry.Measurements{Distance: powerStream(10, 20, 30)})

	_, ok := e.CalculateField("distance_total")
	assert.False(t, ok)

	e.SetConnections(telemetry.Connections{telemetry.SensorSpeed: true})
	v, ok := e.CalculateField("distance_total")
	require.True(t, ok)
	assert.Equal(t, 30.0, v)
}

func TestCalculateFieldUnknownID(t *testing.T) {
	e := newTestEngine(t, 3000)
	_, ok := e.CalculateField("not_registered")
	assert.False(t, ok)
}

func TestCalculateFieldZone(t *testing.T) {
	e := newTestEngine(t, 3000)
	e.SetConnections(telemetry.Connections{telemetry.SensorPower: true})
	// 3s average of 190/200/210 = 200W: exactly 100% of FTP, zone 4.
	e.SetMeasurements(telemetry.Measurements{Power: powerStream(190, 200, 210)})

	v, ok := e.CalculateField("power_zone")
	require.True(t, ok)
	assert.Equal(t, 4.0, v)
}

func TestFormatFieldPlaceholder(t *testing.T) {
	e := newTestEngine(t, 3000)

	assert.Equal(t, "--", e.FormatField("power_current", "--"))

	e.SetConnections(telemetry.Connections{telemetry.SensorPower: true})
	e.SetMeasurements(telemetry.Measurements{Power: powerStream(150, 180, 210)})
	assert.Equal(t, "210 W", e.FormatField("power_current", "--"))
}

func TestSetActiveFieldsIgnoresUnknown(t *testing.T) {
	e := newTestEngine(t, 3000)
	e.SetActiveFields([]string{"power_current", "bogus", "hr_current"})
	assert.ElementsMatch(t, []string{"power_current", "hr_current"}, e.ActiveFieldIDs())

	e.DeactivateField("hr_current")
	assert.Equal(t, []string{"power_current"}, e.ActiveFieldIDs())
}

func TestTickNotifiesSubscribersEveryTick(t *testing.T) {
	e := New(fields.Catalog(testLogger()), testLogger(), Options{
		TickInterval: 5 * time.Millisecond,
		Now:          fixedNow(3000),
	})
	defer e.Shutdown()

	e.SetSettings(telemetry.Settings{FTPWatts: 200, PowerZones: zones.DefaultPowerZones()})
	e.SetConnections(telemetry.Connections{telemetry.SensorPower: true})
	e.SetMeasurements(telemetry.Measurements{Power: powerStream(150, 180, 210)})
	e.SetActiveFields([]string{"power_current"})

	updates := make(chan FieldUpdate, 16)
	unsubscribe := e.OnUpdate(func(u FieldUpdate) {
		select {
		case updates <- u:
		default:
		}
	})
	defer unsubscribe()

	e.Start()
	defer e.Stop()

	// The value never changes, yet updates keep firing each tick.
	for i := 0; i < 3; i++ {
		select {
		case u := <-updates:
			assert.Equal(t, "power_current", u.FieldID)
			assert.True(t, u.Valid)
			assert.Equal(t, 210.0, u.Value)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for tick update")
		}
	}
}

func TestTickReportsInvalidFields(t *testing.T) {
	e := New(fields.Catalog(testLogger()), testLogger(), Options{
		TickInterval: 5 * time.Millisecond,
		Now:          fixedNow(3000),
	})
	defer e.Shutdown()

	// No sensors connected: the field stays active but reports no
	// value so the display can show a placeholder.
	e.SetActiveFields([]string{"hr_current"})

	updates := make(chan FieldUpdate, 1)
	e.OnUpdate(func(u FieldUpdate) {
		select {
		case updates <- u:
		default:
		}
	})

	e.Start()
	defer e.Stop()

	select {
	case u := <-updates:
		assert.Equal(t, "hr_current", u.FieldID)
		assert.False(t, u.Valid)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick update")
	}
}

func TestEngineTimeInZones(t *testing.T) {
	e := newTestEngine(t, 10_000)
	e.SetMeasurements(telemetry.Measurements{HeartRate: stream.Stream{
		{TimestampMS: 1000, Value: 120},
		{TimestampMS: 4000, Value: 124},
	}})

	table := zones.DefaultHeartRateZones()
	total := e.TimeInZones(telemetry.ChannelHeartRate, 185, table)
	// Midpoint 122 bpm of 185 is ~66%: zone 2.
	assert.Equal(t, int64(3000), total[2])
}

func TestShutdownIdempotent(t *testing.T) {
	e := New(fields.Catalog(testLogger()), testLogger(), Options{})
	e.Shutdown()
	e.Shutdown()
}
