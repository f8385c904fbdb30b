/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the AI
services and operator endpoints into the router.
*/
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"Fitdiary/internal/admin"
	"Fitdiary/internal/database"
	"Fitdiary/internal/nutrition"
	"Fitdiary/internal/quota"
	"Fitdiary/internal/training"
)

type NutritionAnalyzer interface {
	AnalyzePhoto(ctx context.Context, userID string, photo nutrition.Photo) (nutrition.Analysis, error)
}

type TrainingPlanner interface {
	SuggestPlans(ctx context.Context, userID string, req training.SuggestRequest) (training.Suggestion, error)
}

type QuotaReporter interface {
	Status(ctx context.Context, userID string, limit int) (quota.Usage, error)
}

// Deps are the services the routes dispatch to.
type Deps struct {
	DB            database.Service
	SessionSecret string
	Nutrition     NutritionAnalyzer
	Training      TrainingPlanner
	Quota         QuotaReporter
	DailyLimit    int
	Prompts       admin.PromptService
}

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	// db provides access to the database service and connection pool.
	db database.Service

	secret     string
	nutrition  NutritionAnalyzer
	training   TrainingPlanner
	quota      QuotaReporter
	dailyLimit int
	admin      *admin.Handler
}

func newServer(port int, deps Deps) *Server {
	return &Server{
		port:       port,
		db:         deps.DB,
		secret:     deps.SessionSecret,
		nutrition:  deps.Nutrition,
		training:   deps.Training,
		quota:      deps.Quota,
		dailyLimit: deps.DailyLimit,
		admin:      admin.NewHandler(deps.Prompts),
	}
}

// NewServer returns a configured *http.Server with production network
// timeouts. The write timeout leaves room for AI retries.
func NewServer(port int, deps Deps) *http.Server {
	if port == 0 {
		port = 8080
	}
	newApp := newServer(port, deps)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", newApp.port),
		Handler:      newApp.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
	}
}
