package server

import (
	"io"
	"net/http"
	"strings"

	"Fitdiary/internal/apperr"
	"Fitdiary/internal/nutrition"
	"Fitdiary/internal/planner"
	"Fitdiary/internal/training"
	"Fitdiary/internal/utility"
	"github.com/labstack/echo/v4"
)

/* =================================================================================
								DTOs
=================================================================================*/

type TrainingPlanRequest struct {
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate" validate:"required"`
	DaysPerWeek int    `json:"daysPerWeek" validate:"required,min=1,max=7"`
	PriorAdvice string `json:"priorAdvice" validate:"max=4000"`
}

type PlanResponse struct {
	Name        string                 `json:"name"`
	PlannedDate string                 `json:"plannedDate"`
	Exercises   []planner.PlanExercise `json:"exercises"`
}

type TrainingPlanResponse struct {
	Plans    []PlanResponse `json:"plans"`
	Fallback bool           `json:"fallback"`
}

/* =================================================================================
								HANDLERS
=================================================================================*/

// AnalyzeNutritionHandler serves POST /ai/nutrition/analyze with a
// multipart "image" field.
func (s *Server) AnalyzeNutritionHandler(c echo.Context) error {
	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return utility.RespondError(c, apperr.Validation("No image file provided"))
	}
	if fileHeader.Size > maxUploadBytes {
		return utility.RespondError(c, apperr.Validation("Image is too large (max 10 MB)"))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return utility.RespondError(c, apperr.Validation("Could not read image file"))
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return utility.RespondError(c, apperr.Validation("Could not read image file"))
	}
	if len(data) > maxUploadBytes {
		return utility.RespondError(c, apperr.Validation("Image is too large (max 10 MB)"))
	}

	mimeType := fileHeader.Header.Get(echo.HeaderContentType)
	if mimeType == "" || mimeType == echo.MIMEOctetStream {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return utility.RespondError(c, apperr.Validation("Uploaded file is not an image"))
	}

	analysis, err := s.nutrition.AnalyzePhoto(c.Request().Context(), userID, nutrition.Photo{
		Data:      data,
		MimeType:  mimeType,
		SourceRef: fileHeader.Filename,
	})
	if err != nil {
		return utility.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, analysis)
}

// SuggestTrainingPlansHandler serves POST /ai/training/plans.
func (s *Server) SuggestTrainingPlansHandler(c echo.Context) error {
	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req TrainingPlanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
	}
	if err := c.Validate(&req); err != nil {
		return utility.RespondError(c, err)
	}

	sg, err := s.training.SuggestPlans(c.Request().Context(), userID, training.SuggestRequest{
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		DaysPerWeek: req.DaysPerWeek,
		PriorAdvice: req.PriorAdvice,
	})
	if err != nil {
		return utility.RespondError(c, err)
	}

	resp := TrainingPlanResponse{Plans: make([]PlanResponse, 0, len(sg.Plans)), Fallback: sg.Fallback}
	for _, p := range sg.Plans {
		resp.Plans = append(resp.Plans, PlanResponse{
			Name:        p.Name,
			PlannedDate: planner.FormatDate(p.PlannedDate),
			Exercises:   p.Exercises,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// QuotaStatusHandler serves GET /ai/quota.
func (s *Server) QuotaStatusHandler(c echo.Context) error {
	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	usage, err := s.quota.Status(c.Request().Context(), userID, s.dailyLimit)
	if err != nil {
		return utility.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, usage)
}
