package server

import (
	"net/http"
	"strconv"
	"time"

	"Fitdiary/internal/admin"
	"Fitdiary/internal/auth"
	"Fitdiary/internal/metrics"
	"Fitdiary/internal/utility"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const maxUploadBytes = 10 << 20

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Validator = utility.NewRequestValidator()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	e.Use(middleware.BodyLimit("12M"))

	e.Use(LoggerMiddleware)
	e.Use(MetricsMiddleware)

	e.GET("/health", s.healthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Protected routes
	protected := e.Group("/ai")
	protected.Use(auth.JwtAuthMiddleware(s.secret))

	protected.POST("/nutrition/analyze", s.AnalyzeNutritionHandler)
	protected.POST("/training/plans", s.SuggestTrainingPlansHandler)
	protected.GET("/quota", s.QuotaStatusHandler)

	// Operator routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(auth.JwtAuthMiddleware(s.secret), auth.RequireRole(auth.RoleAdmin))

	adminGroup.GET("/prompts/:name", s.admin.GetLatestPromptHandler)
	adminGroup.GET("/prompts/:name/versions", s.admin.ListPromptVersionsHandler)
	adminGroup.GET("/prompts/:name/versions/:version", s.admin.GetPromptVersionHandler)
	adminGroup.POST("/prompts", s.admin.CreateOrUpdatePromptHandler)
	adminGroup.GET("/server-health", admin.GetServerHealthHandler)

	return e
}

func (s *Server) healthHandler(c echo.Context) error {
	if s.db == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "unknown"})
	}
	return c.JSON(http.StatusOK, s.db.Health())
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().
			Str("request_id", requestID).
			Str("ip", utility.GetRealIP(c)).
			Logger()

		c.Set("logger", &logger)

		return next(c)
	}
}

// MetricsMiddleware counts requests by route template, not raw path.
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request().Method
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Response().Status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return nil
	}
}
