package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBranches lists the clinic branches the dashboard knows about.
// It is copied into Config.Analytics.Branches; callers never mutate it.
var DefaultBranches = []string{
	"Colombo Branch",
	"Kandy Branch",
	"Galle Branch",
	"Jaffna Branch",
}

// Config holds application configuration
type Config struct {
	// Database configuration
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPassword string
	RedisPort     string

	// API server port
	APIPort int

	// Analytics pipeline configuration
	Analytics AnalyticsConfig

	// External forecasting script
	Forecast ForecastConfig
}

// AnalyticsConfig holds the parameters of the branch analytics pipeline
type AnalyticsConfig struct {
	Branches        []string
	CacheTTL        time.Duration
	RefreshSchedule string // cron expression, empty disables the refresher
	Location        *time.Location

	// Extra breed -> pet type entries merged over the stored catalog
	PetCatalog map[string]string

	// Months (0=Jan) whose upcoming period gets the seasonal boost
	SeasonalMonths []int
	SeasonalFactor float64
}

// ForecastConfig holds the external forecasting subprocess settings
type ForecastConfig struct {
	Script  string
	Args    []string
	Timeout time.Duration
}

// analyticsFile is the optional YAML file layout (ANALYTICS_CONFIG_PATH)
type analyticsFile struct {
	Branches       []string          `yaml:"branches"`
	PetCatalog     map[string]string `yaml:"pet_catalog"`
	SeasonalMonths []int             `yaml:"seasonal_months"`
	SeasonalFactor float64           `yaml:"seasonal_factor"`
	CacheTTL       string            `yaml:"cache_ttl"`
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvOrDefault("DB_PORT", "5432"),
		DatabaseName:     getEnvOrDefault("DB_NAME", "petcare"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "petcare"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "petcare123"),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		APIPort: getEnvInt("API_PORT", 8080),

		Analytics: AnalyticsConfig{
			Branches:        getEnvList("BRANCHES", DefaultBranches),
			CacheTTL:        getEnvDuration("ANALYTICS_CACHE_TTL", 15*time.Minute),
			RefreshSchedule: getEnvOrDefault("REFRESH_SCHEDULE", "@every 15m"),
			Location:        loadLocation(getEnvOrDefault("TIMEZONE", "UTC")),
			PetCatalog:      map[string]string{},
			SeasonalMonths:  []int{4, 5, 6}, // May, Jun, Jul
			SeasonalFactor:  getEnvFloat("SEASONAL_FACTOR", 1.1),
		},

		Forecast: ForecastConfig{
			Script:  getEnvOrDefault("FORECAST_SCRIPT", ""),
			Args:    getEnvList("FORECAST_ARGS", nil),
			Timeout: getEnvDuration("FORECAST_TIMEOUT", 60*time.Second),
		},
	}

	if path := os.Getenv("ANALYTICS_CONFIG_PATH"); path != "" {
		if err := cfg.Analytics.loadFile(path); err != nil {
			log.Fatalf("Error loading analytics config %s: %v", path, err)
		}
		log.Printf("Loaded analytics config from %s", path)
	}

	return cfg
}

// loadFile overlays the YAML analytics file onto the env-derived settings
func (a *AnalyticsConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return a.applyYAML(data)
}

func (a *AnalyticsConfig) applyYAML(data []byte) error {
	var f analyticsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse analytics config: %w", err)
	}

	if len(f.Branches) > 0 {
		a.Branches = nil
		for _, b := range f.Branches {
			if b = strings.TrimSpace(b); b != "" {
				a.Branches = append(a.Branches, b)
			}
		}
	}
	if a.PetCatalog == nil {
		a.PetCatalog = map[string]string{}
	}
	for breed, petType := range f.PetCatalog {
		a.PetCatalog[breed] = petType
	}
	if len(f.SeasonalMonths) > 0 {
		for _, m := range f.SeasonalMonths {
			if m < 0 || m > 11 {
				return fmt.Errorf("seasonal month %d out of range 0-11", m)
			}
		}
		a.SeasonalMonths = f.SeasonalMonths
	}
	if f.SeasonalFactor > 0 {
		a.SeasonalFactor = f.SeasonalFactor
	}
	if f.CacheTTL != "" {
		ttl, err := time.ParseDuration(f.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache_ttl %q: %w", f.CacheTTL, err)
		}
		a.CacheTTL = ttl
	}
	return nil
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("⚠️  Unknown TIMEZONE %q, falling back to UTC", name)
		return time.UTC
	}
	return loc
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var floatValue float64
	if _, err := fmt.Sscanf(value, "%f", &floatValue); err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvDuration gets environment variable as time.Duration or returns default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}

// getEnvList splits a comma-separated variable, dropping blanks
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
