// Package config loads the rider profile and engine options from a
// YAML file, falling back to sensible defaults when no file exists.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/lowaak/ride-metrics/internal/telemetry"
	"github.com/lowaak/ride-metrics/internal/zones"
)

// Config is everything the binary needs at startup.
type Config struct {
	TickInterval time.Duration  `mapstructure:"tick_interval"`
	LogFile      string         `mapstructure:"log_file"`
	HistoryDir   string         `mapstructure:"history_dir"`
	Rider        Rider          `mapstructure:"rider"`
	PowerZones   []zones.Config `mapstructure:"power_zones"`
	HRZones      []zones.Config `mapstructure:"hr_zones"`
}

// Rider is the athlete profile section.
type Rider struct {
	UnitSystem   string  `mapstructure:"unit_system"`
	FTPWatts     float64 `mapstructure:"ftp_watts"`
	MaxHeartRate float64 `mapstructure:"max_heart_rate"`
	WeightKG     float64 `mapstructure:"weight_kg"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".ride-metrics", "config.yaml")
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TickInterval: 100 * time.Millisecond,
		LogFile:      "ride-metrics.log",
		Rider: Rider{
			UnitSystem:   string(telemetry.UnitsMetric),
			FTPWatts:     220,
			MaxHeartRate: 185,
			WeightKG:     75,
		},
		PowerZones: zones.DefaultPowerZones(),
		HRZones:    zones.DefaultHeartRateZones(),
	}
}

// Load reads the config file at path. A missing file is not an error:
// the defaults are returned. A present but invalid file is an error,
// as are zone tables that fail validation — bad zone configuration
// must surface at startup, never at tick time.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("tick_interval", cfg.TickInterval)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("rider.unit_system", cfg.Rider.UnitSystem)
	v.SetDefault("rider.ftp_watts", cfg.Rider.FTPWatts)
	v.SetDefault("rider.max_heart_rate", cfg.Rider.MaxHeartRate)
	v.SetDefault("rider.weight_kg", cfg.Rider.WeightKG)

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	// An omitted zone table means "use the defaults", not "no zones".
	if len(cfg.PowerZones) == 0 {
		cfg.PowerZones = zones.DefaultPowerZones()
	}
	if len(cfg.HRZones) == 0 {
		cfg.HRZones = zones.DefaultHeartRateZones()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: tick_interval must be positive")
	}
	if err := zones.Validate(c.PowerZones); err != nil {
		return fmt.Errorf("config: power_zones: %w", err)
	}
	if err := zones.Validate(c.HRZones); err != nil {
		return fmt.Errorf("config: hr_zones: %w", err)
	}
	return nil
}

// Settings converts the profile into the engine's settings snapshot.
func (c Config) Settings() telemetry.Settings {
	return telemetry.Settings{
		UnitSystem:     telemetry.UnitSystem(c.Rider.UnitSystem),
		FTPWatts:       c.Rider.FTPWatts,
		MaxHeartRate:   c.Rider.MaxHeartRate,
		WeightKG:       c.Rider.WeightKG,
		PowerZones:     c.PowerZones,
		HeartRateZones: c.HRZones,
	}
}
