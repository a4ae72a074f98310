// Package fields holds the curated catalog of displayable training
// metrics: what each field is, what it needs to compute, and how to
// format it. The catalog is fixed at startup; fields are not
// user-scriptable.
package fields

import (
	"fmt"

	"github.com/lowaak/ride-metrics/internal/telemetry"
)

// Source says where a field's value comes from.
type Source int

const (
	// SourceSensor passes the latest fresh sample straight through.
	SourceSensor Source = iota
	// SourceCalculated derives the value from streams and settings.
	SourceCalculated
)

// CategoryID groups fields for browsing.
type CategoryID string

const (
	CategoryPower     CategoryID = "power"
	CategoryHeartRate CategoryID = "heart_rate"
	CategoryCadence   CategoryID = "cadence"
	CategorySpeed     CategoryID = "speed"
	CategoryElevation CategoryID = "elevation"
	CategoryTime      CategoryID = "time"
	CategoryTraining  CategoryID = "training"
)

// Category carries display metadata for a field category.
type Category struct {
	ID    CategoryID
	Name  string
	Icon  string
	Color string
}

// AllCategoryInfo defines every category in display order.
var AllCategoryInfo = []Category{
	{ID: CategoryPower, Name: "Power", Icon: "bolt", Color: "#e67e22"},
	{ID: CategoryHeartRate, Name: "Heart Rate", Icon: "heart", Color: "#e74c3c"},
	{ID: CategoryCadence, Name: "Cadence", Icon: "refresh", Color: "#3498db"},
	{ID: CategorySpeed, Name: "Speed", Icon: "gauge", Color: "#2ecc71"},
	{ID: CategoryElevation, Name: "Elevation", Icon: "mountain", Color: "#95a5a6"},
	{ID: CategoryTime, Name: "Time", Icon: "clock", Color: "#9b59b6"},
	{ID: CategoryTraining, Name: "Training", Icon: "chart", Color: "#f1c40f"},
}

// CategoryInfo returns the metadata for a category.
func CategoryInfo(id CategoryID) (Category, bool) {
	for _, c := range AllCategoryInfo {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// Size is a display-size hint for a dashboard tile.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Compute produces the field's current value from a frozen snapshot.
// The false return means "no value": required input missing, not a
// fault. Compute functions must be pure; their only observable effect
// is the returned value.
type Compute func(snap telemetry.Snapshot) (float64, bool)

// Format renders a computed value for display. Settings are passed so
// unit-system dependent fields can convert.
type Format func(value float64, s telemetry.Settings) string

// Definition describes one field in the catalog. Identity is ID;
// everything else is display metadata plus the compute preconditions.
type Definition struct {
	ID              string
	Name            string
	ShortName       string
	Category        CategoryID
	Description     string
	Unit            string
	Source          Source
	UpdateFrequency string
	DefaultSize     Size
	SupportedSizes  []Size
	Icon            string

	RequiresSensor        []telemetry.SensorType
	RequiresGPS           bool
	RequiresWorkoutActive bool

	Compute Compute
	Format  Format
}

// FormatInt renders a value as a rounded integer with a unit suffix.
func FormatInt(unit string) Format {
	return func(v float64, _ telemetry.Settings) string {
		return fmt.Sprintf("%.0f %s", v, unit)
	}
}

// FormatFixed renders a value with the given number of decimals.
func FormatFixed(decimals int, unit string) Format {
	return func(v float64, _ telemetry.Settings) string {
		return fmt.Sprintf("%.*f %s", decimals, v, unit)
	}
}

// FormatDuration renders a second count as h:mm:ss or m:ss.
func FormatDuration() Format {
	return func(v float64, _ telemetry.Settings) string {
		total := int64(v)
		h := total / 3600
		m := (total % 3600) / 60
		s := total % 60
		if h > 0 {
			return fmt.Sprintf("%d:%02d:%02d", h, m, s)
		}
		return fmt.Sprintf("%d:%02d", m, s)
	}
}

// FormatSpeed converts m/s to km/h or mph per the unit system.
func FormatSpeed() Format {
	return func(v float64, s telemetry.Settings) string {
		if s.UnitSystem == telemetry.UnitsImperial {
			return fmt.Sprintf("%.1f mph", v*2.23694)
		}
		return fmt.Sprintf("%.1f km/h", v*3.6)
	}
}

// FormatDistance converts meters to km or miles per the unit system.
func FormatDistance() Format {
	return func(v float64, s telemetry.Settings) string {
		if s.UnitSystem == telemetry.UnitsImperial {
			return fmt.Sprintf("%.2f mi", v/1609.34)
		}
		return fmt.Sprintf("%.2f km", v/1000)
	}
}

// FormatAltitude converts meters to feet when imperial.
func FormatAltitude() Format {
	return func(v float64, s telemetry.Settings) string {
		if s.UnitSystem == telemetry.UnitsImperial {
			return fmt.Sprintf("%.0f ft", v*3.28084)
		}
		return fmt.Sprintf("%.0f m", v)
	}
}
