package zones

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/ride-metrics/internal/stream"
)

func twoZones() []Config {
	return []Config{
		{Zone: 1, Name: "Low", MinPercent: 0, MaxPercent: 55, Color: "#3498db"},
		{Zone: 2, Name: "High", MinPercent: 55, MaxPercent: 75, Color: "#e74c3c"},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(DefaultPowerZones()))
	require.NoError(t, Validate(DefaultHeartRateZones()))

	assert.Error(t, Validate(nil))
	assert.Error(t, Validate([]Config{{Zone: 0, MinPercent: 0, MaxPercent: 50}}))
	assert.Error(t, Validate([]Config{
		{Zone: 1, MinPercent: 0, MaxPercent: 50},
		{Zone: 2, MinPercent: 60, MaxPercent: 80}, // gap 50..60
	}))
}

func TestZoneForGuards(t *testing.T) {
	_, ok := ZoneFor(110, 0, twoZones())
	assert.False(t, ok)

	_, ok = ZoneFor(110, -200, twoZones())
	assert.False(t, ok)

	_, ok = ZoneFor(110, 200, nil)
	assert.False(t, ok)
}

func TestZoneBoundaryBelongsToUpperZone(t *testing.T) {
	// 110 of 200 is exactly 55%: zone 2's MinPercent, never zone 1's max.
	zone, ok := ZoneFor(110, 200, twoZones())
	require.True(t, ok)
	assert.Equal(t, 2, zone)
}

func TestZoneForClampsAboveTable(t *testing.T) {
	zone, ok := ZoneFor(400, 200, twoZones()) // 200%
	require.True(t, ok)
	assert.Equal(t, 2, zone)
}

func TestPercentOfReference(t *testing.T) {
	p, ok := PercentOfReference(150, 200)
	require.True(t, ok)
	assert.Equal(t, 75.0, p)

	_, ok = PercentOfReference(150, 0)
	assert.False(t, ok)
}

func TestTimeInZonesSinglePair(t *testing.T) {
	s := stream.Stream{
		{TimestampMS: 1000, Value: 60},
		{TimestampMS: 4000, Value: 80},
	}
	// Midpoint 70 of ref 200 is 35%: zone 1.
	total := TimeInZones(s, 200, twoZones())
	assert.Equal(t, int64(3000), total[1])
	assert.Equal(t, int64(0), total[2])
}

func TestTimeInZonesRequiresTwoSamplesAndReference(t *testing.T) {
	one := stream.Stream{{TimestampMS: 1000, Value: 60}}

	total := TimeInZones(one, 200, twoZones())
	assert.Equal(t, map[int]int64{1: 0, 2: 0}, total)

	two := stream.Stream{
		{TimestampMS: 1000, Value: 60},
		{TimestampMS: 2000, Value: 60},
	}
	total = TimeInZones(two, 0, twoZones())
	assert.Equal(t, map[int]int64{1: 0, 2: 0}, total)
}

func TestTimeInZonesDropsUnmatchedIntervals(t *testing.T) {
	gappy := []Config{
		{Zone: 1, Name: "Low", MinPercent: 50, MaxPercent: 75},
		{Zone: 2, Name: "High", MinPercent: 75, MaxPercent: 100},
	}
	s := stream.Stream{
		{TimestampMS: 0, Value: 10}, // midpoint 5% sits below the table
		{TimestampMS: 5000, Value: 10},
	}
	total := TimeInZones(s, 100, gappy)
	assert.Equal(t, int64(0), total[1])
	assert.Equal(t, int64(0), total[2])
}

func TestColorFor(t *testing.T) {
	c, ok := ColorFor(120, 200, twoZones()) // 60%: zone 2, base #e74c3c
	require.True(t, ok)
	assert.Equal(t, 2, c.Zone)
	assert.Equal(t, "High", c.ZoneName)
	assert.Equal(t, "#e74c3c26", c.Background)
	assert.Equal(t, "#e74c3c", c.Border)
	// 20% darker: 0xe7*0.8=0xb8, 0x4c*0.8=0x3c, 0x3c*0.8=0x30.
	assert.Equal(t, "#b83c30", c.Text)

	_, ok = ColorFor(120, 0, twoZones())
	assert.False(t, ok)
}
