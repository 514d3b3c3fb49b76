package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	_ = os.Unsetenv("PORT")
	_ = os.Unsetenv("ENV")
	_ = os.Unsetenv("DATABASE_URL")
	_ = os.Unsetenv("SWEEP_SCHEDULE")
	_ = os.Unsetenv("SWEEP_TIMEOUT")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Contains(t, cfg.DatabaseURL, "postgres://")
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Contains(t, cfg.AllowedOrigins, "http://localhost:3000")
	assert.True(t, cfg.SweepEnabled)
	assert.Equal(t, "*/5 * * * *", cfg.SweepSchedule)
	assert.Equal(t, 2*time.Minute, cfg.SweepTimeout)
	assert.True(t, cfg.SeedDemoData)
}

func TestLoad_WithEnvVars(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://test:5432/testdb")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ALLOWED_ORIGINS", "http://example.com,http://test.com")
	t.Setenv("SWEEP_ENABLED", "false")
	t.Setenv("SWEEP_SCHEDULE", "*/1 * * * *")
	t.Setenv("SWEEP_TIMEOUT", "30s")
	t.Setenv("VAPID_PUBLIC_KEY", "pub-key")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "postgres://test:5432/testdb", cfg.DatabaseURL)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Len(t, cfg.AllowedOrigins, 2)
	assert.False(t, cfg.SweepEnabled)
	assert.Equal(t, "*/1 * * * *", cfg.SweepSchedule)
	assert.Equal(t, 30*time.Second, cfg.SweepTimeout)
	assert.Equal(t, "pub-key", cfg.VAPIDPublicKey)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.SeedDemoData)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("SWEEP_TIMEOUT", "not-a-duration")

	cfg := Load()

	assert.Equal(t, 2*time.Minute, cfg.SweepTimeout)
}
