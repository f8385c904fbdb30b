package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Fitdiary/internal/analysislog"
	"Fitdiary/internal/config"
	"Fitdiary/internal/database"
	"Fitdiary/internal/exercises"
	"Fitdiary/internal/geminiservice"
	"Fitdiary/internal/nutrition"
	"Fitdiary/internal/prompts"
	"Fitdiary/internal/quota"
	"Fitdiary/internal/server"
	"Fitdiary/internal/training"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}

	log.Info().Msg("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func newQuotaStore(cfg *config.Config, db database.Service) (quota.Store, func()) {
	if cfg.QuotaBackend == config.QuotaBackendRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Using Redis quota store")
		return quota.NewRedisStore(rdb), func() { _ = rdb.Close() }
	}
	return quota.NewPostgresStore(db.Pool()), func() {}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Fatal error: invalid configuration")
	}
	cfg.SetupLogger(os.Stdout)

	ctx := context.Background()

	connStr := cfg.Database.URL()
	if err := database.RunMigrations(connStr); err != nil {
		log.Fatal().Err(err).Msg("Fatal error: could not apply migrations")
	}

	dbService, err := database.NewService(ctx, connStr, cfg.Database.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("Fatal error: could not connect to database")
	}
	defer dbService.Close()

	store, closeStore := newQuotaStore(cfg, dbService)
	defer closeStore()
	gate := quota.NewGate(store, cfg.QuotaTimezone)

	promptService := prompts.NewService(prompts.NewPostgresRepository(dbService.Pool()), cfg.TemplateCacheTTL)
	if err := promptService.EnsureDefaults(ctx, map[string]string{
		prompts.NutritionAnalysis: geminiservice.DefaultNutritionPrompt,
		prompts.WorkoutPlan:       geminiservice.DefaultWorkoutPlanPrompt,
	}); err != nil {
		log.Fatal().Err(err).Msg("Fatal error: could not seed prompt templates")
	}

	sink := analysislog.NewSink(analysislog.NewPostgresWriter(dbService.Pool()), cfg.AnalysisLogBuffer)
	defer sink.Close()

	ai := geminiservice.NewClient(geminiservice.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})

	apiServer := server.NewServer(cfg.Port, server.Deps{
		DB:            dbService,
		SessionSecret: cfg.SessionSecret,
		Nutrition:     nutrition.NewService(gate, cfg.AIDailyLimit, promptService, ai, sink),
		Training: training.NewService(gate, cfg.AIDailyLimit, promptService,
			exercises.NewPostgresCatalog(dbService.Pool()), ai, sink, cfg.QuotaTimezone),
		Quota:      gate,
		DailyLimit: cfg.AIDailyLimit,
		Prompts:    promptService,
	})

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(apiServer, done)

	log.Info().Int("port", cfg.Port).Str("quota_backend", cfg.QuotaBackend).Msg("Server starting")
	err = apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server error")
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info().Msg("Graceful shutdown complete.")
}
