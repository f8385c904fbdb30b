/*
Package admin holds the operator endpoints for managing AI prompt
templates. Template history is append-only: operators can read any version
and publish new text, but nothing is ever edited or deleted.
*/
package admin

import (
	"context"
	"net/http"
	"strings"
	"time"

	"Fitdiary/internal/prompts"
	"Fitdiary/internal/utility"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type PromptService interface {
	GetLatest(ctx context.Context, name string) (prompts.Template, error)
	GetByVersion(ctx context.Context, name, version string) (prompts.Template, error)
	List(ctx context.Context, name string) ([]prompts.Template, error)
	CreateOrUpdate(ctx context.Context, name, text string) (prompts.Template, bool, error)
}

type PromptRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Text string `json:"text" validate:"required"`
}

type PromptResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type PromptVersionSummary struct {
	ID        uuid.UUID `json:"id"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

type Handler struct {
	prompts PromptService
}

func NewHandler(p PromptService) *Handler {
	return &Handler{prompts: p}
}

// GetLatestPromptHandler serves GET /admin/prompts/:name
func (h *Handler) GetLatestPromptHandler(c echo.Context) error {
	t, err := h.prompts.GetLatest(c.Request().Context(), c.Param("name"))
	if err != nil {
		return utility.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(t))
}

// ListPromptVersionsHandler serves GET /admin/prompts/:name/versions
func (h *Handler) ListPromptVersionsHandler(c echo.Context) error {
	name := c.Param("name")
	list, err := h.prompts.List(c.Request().Context(), name)
	if err != nil {
		return utility.RespondError(c, err)
	}

	versions := make([]PromptVersionSummary, 0, len(list))
	for _, t := range list {
		versions = append(versions, PromptVersionSummary{ID: t.ID, Version: t.Version, CreatedAt: t.CreatedAt})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"name":     name,
		"versions": versions,
	})
}

// GetPromptVersionHandler serves GET /admin/prompts/:name/versions/:version
func (h *Handler) GetPromptVersionHandler(c echo.Context) error {
	t, err := h.prompts.GetByVersion(c.Request().Context(), c.Param("name"), c.Param("version"))
	if err != nil {
		return utility.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(t))
}

// CreateOrUpdatePromptHandler serves POST /admin/prompts. A new name starts
// at 1.0.0, changed text gets the next patch version, and unchanged text
// returns the current version with 200.
func (h *Handler) CreateOrUpdatePromptHandler(c echo.Context) error {
	var req PromptRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := c.Validate(&req); err != nil {
		return utility.RespondError(c, err)
	}

	t, created, err := h.prompts.CreateOrUpdate(c.Request().Context(), req.Name, req.Text)
	if err != nil {
		return utility.RespondError(c, err)
	}

	adminID, _ := utility.GetUserIDFromContext(c)
	utility.GetLogger(c).Info().
		Str("admin_id", adminID).
		Str("prompt", t.Name).
		Str("version", t.Version).
		Bool("created", created).
		Msg("Prompt template published")

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, toResponse(t))
}

func toResponse(t prompts.Template) PromptResponse {
	return PromptResponse{ID: t.ID, Name: t.Name, Version: t.Version, Text: t.Text, CreatedAt: t.CreatedAt}
}
