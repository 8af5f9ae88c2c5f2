// Package daemon manages the PersonalFit daemon lifecycle and
// configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Poolchaos/personalfit/internal/app/engagement"
)

// Config holds all daemon configuration.
type Config struct {
	API          APIConfig          `toml:"api"`
	Data         DataConfig         `toml:"data"`
	Gamification GamificationConfig `toml:"gamification"`
	Analytics    AnalyticsConfig    `toml:"analytics"`
	Logging      LoggingConfig      `toml:"logging"`
	Telemetry    TelemetryConfig    `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// DataConfig controls local storage.
type DataConfig struct {
	Dir string `toml:"dir"`
}

// GamificationConfig carries the reward constants and streak policy.
// Values live in config, not call sites, so deployments can tune them.
type GamificationConfig struct {
	Timezone         string `toml:"timezone"`
	XPBaseCompletion int64  `toml:"xp_base_completion"`
	XPFirstWorkout   int64  `toml:"xp_first_workout"`
	XPStreakPerDay   int64  `toml:"xp_streak_per_day"`
	XPPersonalRecord int64  `toml:"xp_personal_record"`
	StreakFreezes    int    `toml:"streak_freezes_per_month"`
}

// AnalyticsConfig controls the adherence and correlation analyses.
type AnalyticsConfig struct {
	AdherenceWindowDays   int    `toml:"adherence_window_days"`
	CorrelationWindowDays int    `toml:"correlation_window_days"`
	BatchInterval         string `toml:"batch_interval"` // Go duration, "" disables
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	Mode  string `toml:"mode"` // "production" or "development"
}

// TelemetryConfig gates the Prometheus endpoint.
type TelemetryConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8090,
			CORSOrigins: []string{"*"},
		},
		Data: DataConfig{
			Dir: filepath.Join(personalfitHome(), "data"),
		},
		Gamification: GamificationConfig{
			Timezone:         "UTC",
			XPBaseCompletion: 100,
			XPFirstWorkout:   200,
			XPStreakPerDay:   25,
			XPPersonalRecord: 50,
			StreakFreezes:    3,
		},
		Analytics: AnalyticsConfig{
			AdherenceWindowDays:   30,
			CorrelationWindowDays: 60,
			BatchInterval:         "",
		},
		Logging: LoggingConfig{
			Level: "info",
			Mode:  "production",
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
	}
}

// LoadConfig reads config from ~/.personalfit/config.toml, falling back
// to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(personalfitHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet, use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.personalfit/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(personalfitHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// Location resolves the configured reference time zone. An unset or
// invalid zone falls back to UTC.
func (c GamificationConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RewardConfig maps the configured constants into the engine's form.
func (c GamificationConfig) RewardConfig() engagement.RewardConfig {
	return engagement.RewardConfig{
		BaseCompletion: c.XPBaseCompletion,
		FirstWorkout:   c.XPFirstWorkout,
		StreakPerDay:   c.XPStreakPerDay,
		PersonalRecord: c.XPPersonalRecord,
	}
}

// personalfitHome returns the PersonalFit data directory.
func personalfitHome() string {
	if env := os.Getenv("PERSONALFIT_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".personalfit")
}

// Home is exported for use by other packages.
func Home() string {
	return personalfitHome()
}
