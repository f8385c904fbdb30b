/*
Package training suggests workout plans for a date window. The model is
asked for plans built from the user's exercise whitelist, and whatever comes
back goes through the planner pipeline, so the caller always receives
schedulable plans (or none, when the user has no exercises at all).
*/
package training

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Fitdiary/internal/analysislog"
	"Fitdiary/internal/apperr"
	"Fitdiary/internal/exercises"
	"Fitdiary/internal/geminiservice"
	"Fitdiary/internal/metrics"
	"Fitdiary/internal/planner"
	"Fitdiary/internal/prompts"
	"Fitdiary/internal/quota"
	"Fitdiary/internal/utility"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	Operation      = "training_plan"
	MinDaysPerWeek = 1
	MaxDaysPerWeek = 7
)

type Generator interface {
	Generate(ctx context.Context, req geminiservice.Request) (geminiservice.Result, error)
	Model() string
}

type Templates interface {
	GetLatest(ctx context.Context, name string) (prompts.Template, error)
}

type Recorder interface {
	Record(e analysislog.Entry)
}

// SuggestRequest is the caller input. Dates are YYYY-MM-DD.
type SuggestRequest struct {
	StartDate   string
	EndDate     string
	DaysPerWeek int
	PriorAdvice string
}

// Suggestion is what SuggestPlans returns. Plans is never nil.
type Suggestion struct {
	Plans    []planner.PlanProposal `json:"plans"`
	Fallback bool                   `json:"fallback"`
}

type Service struct {
	gate      *quota.Gate
	limit     int
	templates Templates
	catalog   exercises.Catalog
	ai        Generator
	logs      Recorder
	loc       *time.Location
	now       func() time.Time
}

func NewService(gate *quota.Gate, limit int, templates Templates, catalog exercises.Catalog, ai Generator, logs Recorder, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		gate:      gate,
		limit:     limit,
		templates: templates,
		catalog:   catalog,
		ai:        ai,
		logs:      logs,
		loc:       loc,
		now:       time.Now,
	}
}

// Validate checks the request against today's date in the service's time
// zone and returns the parsed window.
func (s *Service) Validate(req SuggestRequest) (planner.Window, error) {
	w, err := planner.ParseWindow(req.StartDate, req.EndDate)
	if err != nil {
		return planner.Window{}, err
	}
	if err := w.Validate(s.now().In(s.loc)); err != nil {
		return planner.Window{}, err
	}
	if req.DaysPerWeek < MinDaysPerWeek || req.DaysPerWeek > MaxDaysPerWeek {
		return planner.Window{}, apperr.Validation(fmt.Sprintf("daysPerWeek must be between %d and %d", MinDaysPerWeek, MaxDaysPerWeek))
	}
	return w, nil
}

// SuggestPlans returns up to DaysPerWeek plans spread across the window.
// AI failures fall back to generated plans; validation errors, quota denials,
// catalog failures and cancellation are returned.
func (s *Service) SuggestPlans(ctx context.Context, userID string, req SuggestRequest) (Suggestion, error) {
	if strings.TrimSpace(userID) == "" {
		return Suggestion{}, apperr.Validation("user id is required")
	}
	window, err := s.Validate(req)
	if err != nil {
		return Suggestion{}, err
	}

	reservation, err := s.gate.Check(ctx, userID, s.limit)
	if err != nil {
		if ctx.Err() != nil {
			return Suggestion{}, ctx.Err()
		}
		if errors.Is(err, apperr.ErrQuotaExceeded) {
			metrics.AIQuotaDeniedTotal.WithLabelValues(Operation).Inc()
		}
		return Suggestion{}, err
	}

	// Template and whitelist are independent reads.
	var (
		tpl       prompts.Template
		tplErr    error
		whitelist []planner.WhitelistEntry
	)
	g, grpCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.templates.GetLatest(grpCtx, prompts.WorkoutPlan)
		if err != nil {
			// Best effort: without a template the fallback generator is used.
			tplErr = err
			return nil
		}
		tpl = t
		return nil
	})
	g.Go(func() error {
		wl, err := s.catalog.Whitelist(grpCtx, userID)
		if err != nil {
			return err
		}
		whitelist = wl
		return nil
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return Suggestion{}, ctx.Err()
		}
		return Suggestion{}, apperr.External("exercise catalog unavailable", fmt.Errorf("loading whitelist for %s: %w", userID, err))
	}

	if len(whitelist) == 0 {
		log.Info().Str("user_id", userID).Msg("No exercises available, returning no plans")
		return s.finish(ctx, Suggestion{Plans: []planner.PlanProposal{}})
	}

	entry := analysislog.Entry{
		UserID:    userID,
		Operation: Operation,
		Model:     s.ai.Model(),
	}

	var raw string
	aiOK := false
	if tplErr != nil {
		log.Error().Err(tplErr).Str("user_id", userID).Msg("Failed to load workout prompt, using fallback plans")
		s.fail(entry, tplErr)
	} else {
		entry.TemplateID = &tpl.ID
		entry.TemplateVersion = tpl.Version

		prompt := geminiservice.BuildWorkoutPlanPrompt(tpl.Text, geminiservice.WorkoutPromptParams{
			Whitelist:   whitelist,
			Window:      window,
			DaysPerWeek: req.DaysPerWeek,
			PriorAdvice: req.PriorAdvice,
		})
		res, err := s.ai.Generate(ctx, geminiservice.Request{Prompt: prompt, Schema: geminiservice.WorkoutPlanSchema})
		switch {
		case ctx.Err() != nil:
			return Suggestion{}, ctx.Err()
		case err != nil:
			log.Error().Err(err).Str("user_id", userID).Msg("Gemini workout plan generation failed, using fallback plans")
			s.fail(entry, err)
		default:
			raw = res.Text
			aiOK = true
			entry.TokensIn, entry.TokensOut = res.TokensIn, res.TokensOut
			if res.Model != "" {
				entry.Model = res.Model
			}
		}
	}

	result := planner.Extract(planner.Request{
		Raw:       raw,
		Whitelist: whitelist,
		Window:    window,
		Days:      req.DaysPerWeek,
	})
	if result.Fallback {
		metrics.PlanFallbackTotal.Inc()
	}

	if aiOK {
		metrics.AIRepairStageTotal.WithLabelValues(Operation, string(result.Stage)).Inc()
		if err := reservation.Commit(ctx); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Could not record AI usage")
		}

		entry.RawResponse = &raw
		entry.ParsedResult = result.Plans
		entry.Status = analysislog.StatusSuccess
		s.record(entry)
		metrics.AIInvocationsTotal.WithLabelValues(Operation, string(analysislog.StatusSuccess)).Inc()
	}

	log.Info().
		Str("user_id", userID).
		Int("plans", len(result.Plans)).
		Str("shape", result.Shape).
		Str("stage", string(result.Stage)).
		Bool("fallback", result.Fallback).
		Msg("Workout plan suggestion complete")

	return s.finish(ctx, Suggestion{Plans: result.Plans, Fallback: result.Fallback})
}

func (s *Service) finish(ctx context.Context, sg Suggestion) (Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return Suggestion{}, err
	}
	return sg, nil
}

func (s *Service) fail(entry analysislog.Entry, err error) {
	entry.Status = analysislog.StatusError
	entry.ErrorMessage = utility.StringPtr(err.Error())
	s.record(entry)
	metrics.AIInvocationsTotal.WithLabelValues(Operation, string(analysislog.StatusError)).Inc()
}

func (s *Service) record(entry analysislog.Entry) {
	if s.logs == nil {
		return
	}
	s.logs.Record(entry)
}
