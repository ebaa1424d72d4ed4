package config

import (
	"log"
	"os"
	"strconv"
)

// Config carries all environment-driven settings.
type Config struct {
	Port       string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	RedisURL   string
	JWTSecret  string

	LogsDirectory string

	// DefaultSpeedKmh is the assumed average truck speed for ETA estimates.
	DefaultSpeedKmh float64
	// LocationRetentionDays is how long GPS samples are kept before the sweep
	// removes them.
	LocationRetentionDays int
}

// Load reads configuration from the environment. Missing optional values fall
// back to sensible defaults; .env is honored when present.
func Load() *Config {
	return &Config{
		Port:                  getEnv("PORT", "8080"),
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBUser:                getEnv("DB_USER", "postgres"),
		DBPassword:            os.Getenv("DB_PASSWORD"),
		DBName:                getEnv("DB_NAME", "loadlink"),
		DBPort:                getEnv("DB_PORT", "5432"),
		RedisURL:              getEnv("REDIS_URL", "redis://redis:6379"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		LogsDirectory:         getEnv("LOGS_DIRECTORY", "./logs"),
		DefaultSpeedKmh:       getEnvFloat("DEFAULT_SPEED_KMH", 60),
		LocationRetentionDays: getEnvInt("LOCATION_RETENTION_DAYS", 30),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return n
}
