package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port string
	Env  string // "development", "production"

	// Database
	DatabaseURL string

	// Auth
	JWTSecret string

	// CORS
	AllowedOrigins []string

	// Sweep reconciliation pass
	SweepEnabled  bool
	SweepSchedule string        // cron expression (e.g. "*/5 * * * *")
	SweepTimeout  time.Duration // limit for one complete pass

	// Bootstrap
	SeedDemoData bool

	// Web Push notification dispatch
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string // mailto:email or URL
}

func Load() *Config {
	env := getEnv("ENV", "development")

	return &Config{
		Port: getEnv("PORT", "8080"),
		Env:  env,

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/pricewatch?sslmode=disable"),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),

		SweepEnabled:  getBoolEnv("SWEEP_ENABLED", true),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "*/5 * * * *"), // every 5 minutes
		SweepTimeout:  getDurationEnv("SWEEP_TIMEOUT", 2*time.Minute),

		SeedDemoData: getBoolEnv("SEED_DEMO_DATA", env != "production"),

		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:alerts@pricewatch.app"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
