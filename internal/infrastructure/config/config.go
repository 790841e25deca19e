// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string `yaml:"app_version"`
	LogLevel   string `yaml:"log_level"`

	// Server
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Backend
	BackendURL string `yaml:"backend_url"`
	// Zero means no client timeout: a hung backend call stalls the refresh run.
	BackendTimeout time.Duration `yaml:"backend_timeout"`

	// Dashboard
	TopDelayedCount int `yaml:"top_delayed_count"`

	// Refresh run
	ProgressTick       time.Duration `yaml:"progress_tick"`
	IntermediateTarget float64       `yaml:"intermediate_target"`
	NearFinalTarget    float64       `yaml:"near_final_target"`
	SettleWait         time.Duration `yaml:"settle_wait"`
	FinishDelay        time.Duration `yaml:"finish_delay"`
	FailureDelay       time.Duration `yaml:"failure_delay"`
	RefreshSchedule    string        `yaml:"refresh_schedule"`
	RefreshOnStartup   bool          `yaml:"refresh_on_startup"`

	// Map
	MapTileURL     string `yaml:"map_tile_url"`
	MapAttribution string `yaml:"map_attribution"`

	// MongoDB (refresh run history); empty DSN keeps history in memory
	MongoURI      string `yaml:"mongo_uri"`
	MongoDB       string `yaml:"mongo_db"`
	MongoUser     string `yaml:"mongo_user"`
	MongoPassword string `yaml:"mongo_password"`

	// PostgreSQL (airport time zones); empty DSN renders times in UTC
	PostgresURI string `yaml:"postgres_uri"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		AppVersion: "1.0.0",
		LogLevel:   "info",

		Port:         "8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,

		BackendURL: "http://localhost:3000",

		TopDelayedCount: 5,

		ProgressTick:       50 * time.Millisecond,
		IntermediateTarget: 70,
		NearFinalTarget:    90,
		SettleWait:         2 * time.Second,
		FinishDelay:        300 * time.Millisecond,
		FailureDelay:       150 * time.Millisecond,
		RefreshOnStartup:   true,

		MapTileURL:     "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		MapAttribution: "&copy; OpenStreetMap contributors",

		MongoDB: "flight_dashboard",
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing precedence.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) applyEnv() {
	c.AppVersion = getEnv("APP_VERSION", c.AppVersion)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Port = getEnv("PORT", c.Port)
	c.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", time.Second, c.ReadTimeout)
	c.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", time.Second, c.WriteTimeout)

	c.BackendURL = strings.TrimRight(getEnv("BACKEND_URL", c.BackendURL), "/")
	c.BackendTimeout = getEnvAsDuration("BACKEND_TIMEOUT", time.Second, c.BackendTimeout)

	c.TopDelayedCount = getEnvAsInt("TOP_DELAYED_COUNT", c.TopDelayedCount)

	c.ProgressTick = getEnvAsDuration("PROGRESS_TICK_MS", time.Millisecond, c.ProgressTick)
	c.IntermediateTarget = getEnvAsFloat("REFRESH_INTERMEDIATE_TARGET", c.IntermediateTarget)
	c.NearFinalTarget = getEnvAsFloat("REFRESH_NEAR_FINAL_TARGET", c.NearFinalTarget)
	c.SettleWait = getEnvAsDuration("REFRESH_SETTLE_WAIT_MS", time.Millisecond, c.SettleWait)
	c.FinishDelay = getEnvAsDuration("REFRESH_FINISH_DELAY_MS", time.Millisecond, c.FinishDelay)
	c.FailureDelay = getEnvAsDuration("REFRESH_FAILURE_DELAY_MS", time.Millisecond, c.FailureDelay)
	c.RefreshSchedule = getEnv("REFRESH_SCHEDULE", c.RefreshSchedule)
	c.RefreshOnStartup = getEnvAsBool("REFRESH_ON_STARTUP", c.RefreshOnStartup)

	c.MapTileURL = getEnv("MAP_TILE_URL", c.MapTileURL)
	c.MapAttribution = getEnv("MAP_ATTRIBUTION", c.MapAttribution)

	c.MongoURI = getEnv("MONGODB_DSN", c.MongoURI)
	c.MongoDB = getEnv("MONGO_DB", c.MongoDB)
	c.MongoUser = getEnv("MONGO_USER", c.MongoUser)
	c.MongoPassword = getEnv("MONGO_PASSWORD", c.MongoPassword)

	c.PostgresURI = getEnv("POSTGRES_DSN", c.PostgresURI)
}

// Validate checks the refresh settings for consistency
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend URL is required (set BACKEND_URL or backend_url)")
	}
	if c.TopDelayedCount <= 0 {
		return fmt.Errorf("top delayed count must be positive, got %d", c.TopDelayedCount)
	}
	if c.ProgressTick <= 0 {
		return fmt.Errorf("progress tick must be positive, got %s", c.ProgressTick)
	}
	if !validTarget(c.IntermediateTarget) {
		return fmt.Errorf("intermediate target must be in (0,100], got %g", c.IntermediateTarget)
	}
	if !validTarget(c.NearFinalTarget) {
		return fmt.Errorf("near-final target must be in (0,100], got %g", c.NearFinalTarget)
	}
	if c.NearFinalTarget < c.IntermediateTarget {
		return fmt.Errorf("near-final target %g is below intermediate target %g", c.NearFinalTarget, c.IntermediateTarget)
	}
	return nil
}

func validTarget(p float64) bool {
	return !math.IsNaN(p) && p > 0 && p <= 100
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration reads an integer count of unit
func getEnvAsDuration(key string, unit time.Duration, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(value) * unit
	}
	return defaultValue
}
