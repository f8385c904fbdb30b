/*
Package config reads the service settings from the environment. A .env file
in the working directory is loaded first when present.
*/
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	QuotaBackendPostgres = "postgres"
	QuotaBackendRedis    = "redis"
)

type Database struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	Schema   string
}

// URL is the pgx connection string.
func (d Database) URL() string {
	url := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", d.User, d.Password, d.Host, d.Port, d.Name)
	if d.Schema != "" {
		url += "&search_path=" + d.Schema
	}
	return url
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Config struct {
	Port     int
	Database Database
	Redis    Redis

	GeminiAPIKey string
	GeminiModel  string

	AIDailyLimit  int
	QuotaBackend  string
	QuotaTimezone *time.Location

	SessionSecret string

	LogLevel  zerolog.Level
	LogFormat string

	TemplateCacheTTL  time.Duration
	AnalysisLogBuffer int
}

// Load reads the environment. Invalid values fall back to their defaults
// with a warning; only a missing SESSION_SECRET is an error.
func Load() (*Config, error) {
	cfg := &Config{
		Port: intEnv("PORT", 8080),
		Database: Database{
			Host:     os.Getenv("BLUEPRINT_DB_HOST"),
			Port:     stringEnv("BLUEPRINT_DB_PORT", "5432"),
			Name:     os.Getenv("BLUEPRINT_DB_DATABASE"),
			User:     os.Getenv("BLUEPRINT_DB_USERNAME"),
			Password: os.Getenv("BLUEPRINT_DB_PASSWORD"),
			Schema:   os.Getenv("BLUEPRINT_DB_SCHEMA"),
		},
		Redis: Redis{
			Addr:     stringEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       intEnv("REDIS_DB", 0),
		},
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       os.Getenv("GEMINI_MODEL"),
		AIDailyLimit:      intEnv("AI_DAILY_LIMIT", 12),
		QuotaBackend:      strings.ToLower(stringEnv("QUOTA_BACKEND", QuotaBackendPostgres)),
		QuotaTimezone:     locationEnv("QUOTA_TIMEZONE"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		LogLevel:          levelEnv("LOG_LEVEL", zerolog.InfoLevel),
		LogFormat:         strings.ToLower(stringEnv("LOG_FORMAT", "console")),
		TemplateCacheTTL:  durationEnv("TEMPLATE_CACHE_TTL", time.Minute),
		AnalysisLogBuffer: intEnv("ANALYSIS_LOG_BUFFER", 256),
	}

	if cfg.AIDailyLimit <= 0 {
		log.Warn().Int("value", cfg.AIDailyLimit).Msg("AI_DAILY_LIMIT must be positive, using 12")
		cfg.AIDailyLimit = 12
	}
	if cfg.QuotaBackend != QuotaBackendPostgres && cfg.QuotaBackend != QuotaBackendRedis {
		log.Warn().Str("value", cfg.QuotaBackend).Msg("Unknown QUOTA_BACKEND, using postgres")
		cfg.QuotaBackend = QuotaBackendPostgres
	}
	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set; AI calls will fail and fall back to defaults")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is not set")
	}

	return cfg, nil
}

// SetupLogger configures the global zerolog logger.
func (c *Config) SetupLogger(out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	zerolog.SetGlobalLevel(c.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if c.LogFormat == "json" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Int("default", def).Msg("Invalid integer in environment, using default")
		return def
	}
	return n
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Warn().Str("key", key).Str("value", v).Dur("default", def).Msg("Invalid duration in environment, using default")
		return def
	}
	return d
}

func levelEnv(key string, def zerolog.Level) zerolog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(v))
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid log level in environment, using default")
		return def
	}
	return lvl
}

func locationEnv(key string) *time.Location {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Unknown time zone in environment, using local time")
		return time.Local
	}
	return loc
}
