/*
Package nutrition analyzes meal photos: quota check, template lookup, image
preparation, the AI call, lenient parsing and food normalization.
*/
package nutrition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Fitdiary/internal/analysislog"
	"Fitdiary/internal/apperr"
	"Fitdiary/internal/geminiservice"
	"Fitdiary/internal/imageprep"
	"Fitdiary/internal/jsonrepair"
	"Fitdiary/internal/metrics"
	"Fitdiary/internal/prompts"
	"Fitdiary/internal/quota"
	"Fitdiary/internal/utility"
	"github.com/rs/zerolog/log"
)

const Operation = "nutrition_analysis"

/* =================================================================================
								TYPES
=================================================================================*/

type FoodItem struct {
	FoodName      string  `json:"foodName"`
	ServingSize   string  `json:"servingSize"`
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
	Fiber         float64 `json:"fiber"`
	Sugar         float64 `json:"sugar"`
	Sodium        float64 `json:"sodium"`
}

type MealTotals struct {
	Calories      float64 `json:"totalCalories"`
	Protein       float64 `json:"totalProtein"`
	Carbohydrates float64 `json:"totalCarbohydrates"`
	Fat           float64 `json:"totalFat"`
	Fiber         float64 `json:"totalFiber"`
	Sugar         float64 `json:"totalSugar"`
	Sodium        float64 `json:"totalSodium"`
}

// Analysis is what AnalyzePhoto returns. Foods is never nil.
type Analysis struct {
	Foods  []FoodItem `json:"foods"`
	Totals MealTotals `json:"totals"`
}

// Photo is the uploaded image.
type Photo struct {
	Data     []byte
	MimeType string
	// SourceRef identifies the upload in analysis logs, e.g. the file name.
	SourceRef string
}

/* =================================================================================
								DEPENDENCIES
=================================================================================*/

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

type Service struct {
	gate      *quota.Gate
	limit     int
	templates Templates
	ai        Generator
	logs      Recorder
	parser    *jsonrepair.Parser
}

func NewService(gate *quota.Gate, limit int, templates Templates, ai Generator, logs Recorder) *Service {
	return &Service{
		gate:      gate,
		limit:     limit,
		templates: templates,
		ai:        ai,
		logs:      logs,
		parser:    jsonrepair.NewNutritionParser(),
	}
}

/* =================================================================================
								ANALYZE
=================================================================================*/

// AnalyzePhoto returns the foods found in the photo. Only validation errors,
// quota denials, quota store failures and context cancellation are returned;
// any AI or parse failure yields an empty list.
func (s *Service) AnalyzePhoto(ctx context.Context, userID string, photo Photo) (Analysis, error) {
	if strings.TrimSpace(userID) == "" {
		return Analysis{}, apperr.Validation("user id is required")
	}
	if len(photo.Data) == 0 {
		return Analysis{}, apperr.Validation("No image file provided")
	}

	reservation, err := s.gate.Check(ctx, userID, s.limit)
	if err != nil {
		if ctx.Err() != nil {
			return Analysis{}, ctx.Err()
		}
		if errors.Is(err, apperr.ErrQuotaExceeded) {
			metrics.AIQuotaDeniedTotal.WithLabelValues(Operation).Inc()
		}
		return Analysis{}, err
	}

	log.Info().Str("user_id", userID).Msg("Starting diet photo analysis")

	entry := analysislog.Entry{
		UserID:    userID,
		Operation: Operation,
		Model:     s.ai.Model(),
		SourceRef: utility.StringPtr(photo.SourceRef),
	}

	tpl, err := s.templates.GetLatest(ctx, prompts.NutritionAnalysis)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load nutrition prompt")
		s.fail(entry, err)
		return s.finish(ctx, emptyAnalysis())
	}
	entry.TemplateID = &tpl.ID
	entry.TemplateVersion = tpl.Version

	img := imageprep.Prepare(photo.Data, photo.MimeType)

	res, err := s.ai.Generate(ctx, geminiservice.Request{
		Prompt: tpl.Text,
		Image:  &geminiservice.Image{Data: img.Data, MimeType: img.MimeType},
		Schema: geminiservice.NutritionSchema,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Analysis{}, ctx.Err()
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Gemini nutrition analysis failed")
		s.fail(entry, err)
		return s.finish(ctx, emptyAnalysis())
	}
	entry.TokensIn, entry.TokensOut = res.TokensIn, res.TokensOut
	if res.Model != "" {
		entry.Model = res.Model
	}

	parsed, stage := s.parser.ParseStage(jsonrepair.StripCodeFence(res.Text))
	metrics.AIRepairStageTotal.WithLabelValues(Operation, string(stage)).Inc()
	if stage == jsonrepair.StageDefault {
		log.Warn().Str("user_id", userID).Msg("Gemini response could not be parsed, returning no foods")
	}

	foods := NormalizeFoods(parsed)
	analysis := Analysis{Foods: foods, Totals: Totals(foods)}

	if err := reservation.Commit(ctx); err != nil {
		// The call already happened; the result is still returned.
		log.Warn().Err(err).Str("user_id", userID).Msg("Could not record AI usage")
	}

	raw := res.Text
	entry.RawResponse = &raw
	entry.ParsedResult = analysis
	entry.Status = analysislog.StatusSuccess
	s.record(entry)
	metrics.AIInvocationsTotal.WithLabelValues(Operation, string(analysislog.StatusSuccess)).Inc()

	log.Info().Str("user_id", userID).Int("foods", len(foods)).Str("stage", string(stage)).Msg("Diet photo analysis complete")
	return s.finish(ctx, analysis)
}

func (s *Service) finish(ctx context.Context, a Analysis) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	return a, nil
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

func emptyAnalysis() Analysis {
	return Analysis{Foods: []FoodItem{}}
}

/* =================================================================================
								NORMALIZATION
=================================================================================*/

// NormalizeFoods reads the "foods" list of a parsed response. Entries that
// are not objects are skipped, and every numeric field is coerced.
func NormalizeFoods(parsed any) []FoodItem {
	foods := []FoodItem{}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return foods
	}
	list, ok := obj["foods"].([]any)
	if !ok {
		return foods
	}

	for _, raw := range list {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		foods = append(foods, FoodItem{
			FoodName:      text(item["foodName"]),
			ServingSize:   text(item["servingSize"]),
			Calories:      utility.ToNumber(item["calories"]),
			Protein:       utility.ToNumber(item["protein"]),
			Carbohydrates: utility.ToNumber(item["carbohydrates"]),
			Fat:           utility.ToNumber(item["fat"]),
			Fiber:         utility.ToNumber(item["fiber"]),
			Sugar:         utility.ToNumber(item["sugar"]),
			Sodium:        utility.ToNumber(item["sodium"]),
		})
	}
	return foods
}

// Totals sums every nutrient over foods.
func Totals(foods []FoodItem) MealTotals {
	var t MealTotals
	for _, f := range foods {
		t.Calories += f.Calories
		t.Protein += f.Protein
		t.Carbohydrates += f.Carbohydrates
		t.Fat += f.Fat
		t.Fiber += f.Fiber
		t.Sugar += f.Sugar
		t.Sodium += f.Sodium
	}
	return t
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}
