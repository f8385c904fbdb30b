package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "BLUEPRINT_DB_HOST", "BLUEPRINT_DB_PORT", "BLUEPRINT_DB_DATABASE", "BLUEPRINT_DB_USERNAME",
		"BLUEPRINT_DB_PASSWORD", "BLUEPRINT_DB_SCHEMA", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"GEMINI_API_KEY", "GEMINI_MODEL", "AI_DAILY_LIMIT", "QUOTA_BACKEND", "QUOTA_TIMEZONE",
		"LOG_LEVEL", "LOG_FORMAT", "TEMPLATE_CACHE_TTL", "ANALYSIS_LOG_BUFFER",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("SESSION_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 12, cfg.AIDailyLimit)
	assert.Equal(t, QuotaBackendPostgres, cfg.QuotaBackend)
	assert.Equal(t, time.Local, cfg.QuotaTimezone)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, time.Minute, cfg.TemplateCacheTTL)
	assert.Equal(t, 256, cfg.AnalysisLogBuffer)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("AI_DAILY_LIMIT", "3")
	t.Setenv("QUOTA_BACKEND", "Redis")
	t.Setenv("QUOTA_TIMEZONE", "Asia/Taipei")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TEMPLATE_CACHE_TTL", "30s")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 3, cfg.AIDailyLimit)
	assert.Equal(t, QuotaBackendRedis, cfg.QuotaBackend)
	assert.Equal(t, "Asia/Taipei", cfg.QuotaTimezone.String())
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.TemplateCacheTTL)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")
	t.Setenv("AI_DAILY_LIMIT", "-4")
	t.Setenv("QUOTA_BACKEND", "memcached")
	t.Setenv("QUOTA_TIMEZONE", "Mars/Olympus")
	t.Setenv("TEMPLATE_CACHE_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 12, cfg.AIDailyLimit)
	assert.Equal(t, QuotaBackendPostgres, cfg.QuotaBackend)
	assert.Equal(t, time.Local, cfg.QuotaTimezone)
	assert.Equal(t, time.Minute, cfg.TemplateCacheTTL)
}

func TestLoad_RequiresSessionSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseURL(t *testing.T) {
	d := Database{Host: "db", Port: "5432", Name: "fitdiary", User: "app", Password: "pw", Schema: "public"}
	assert.Equal(t, "postgres://app:pw@db:5432/fitdiary?sslmode=disable&search_path=public", d.URL())

	d.Schema = ""
	assert.Equal(t, "postgres://app:pw@db:5432/fitdiary?sslmode=disable", d.URL())
}

func TestSetupLogger_JSON(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	cfg := &Config{LogLevel: zerolog.WarnLevel, LogFormat: "json"}
	cfg.SetupLogger(&buf)

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}
