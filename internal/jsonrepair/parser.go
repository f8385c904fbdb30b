/*
Package jsonrepair salvages near-valid JSON from generative model output.

Repair runs as an ordered list of pure string stages. A parse is attempted
before the first stage and after each one; the first successful parse wins,
so text that is already valid JSON is returned without modification.
*/
package jsonrepair

import (
	"encoding/json"
)

// Stage names the point at which a parse succeeded.
type Stage string

const (
	StageDirect         Stage = "direct"
	StageSliced         Stage = "sliced"
	StageTrailingCommas Stage = "trailing_commas"
	StageUnitValues     Stage = "unit_values"
	StageSingleQuotes   Stage = "single_quotes"
	StageDefault        Stage = "default"
)

// Config describes the fields a parser knows about.
type Config struct {
	// StringFields hold short strings with units, e.g. servingSize.
	StringFields []string
	// NumericFields should be numbers but often arrive as 20g or 300mg.
	NumericFields []string
	// AllowArray lets the slicing stage keep a top-level array.
	AllowArray bool
	// Default builds the value returned when every stage fails.
	Default func() any
}

// Parser is safe for concurrent use.
type Parser struct {
	cfg   Config
	rules []fieldRule
}

func New(cfg Config) *Parser {
	return &Parser{
		cfg:   cfg,
		rules: compileFieldRules(cfg.StringFields, cfg.NumericFields),
	}
}

// NutritionFields are the per-food numeric fields models like to suffix with units.
var NutritionFields = []string{"calories", "protein", "carbohydrates", "fat", "fiber", "sugar", "sodium"}

// NewNutritionParser returns the parser for meal photo analysis. It falls
// back to {"foods": []}.
func NewNutritionParser() *Parser {
	return New(Config{
		StringFields:  []string{"servingSize"},
		NumericFields: NutritionFields,
		Default: func() any {
			return map[string]any{"foods": []any{}}
		},
	})
}

// Parse never fails. When nothing can be recovered it returns the
// configured default.
func (p *Parser) Parse(text string) any {
	v, _ := p.ParseStage(text)
	return v
}

// ParseStage is Parse that also reports which stage produced the value.
// The stages after slicing run on each slice candidate in turn.
func (p *Parser) ParseStage(text string) (any, Stage) {
	if v, ok := decode(text); ok {
		return v, StageDirect
	}

	for _, cand := range SliceCandidates(text, p.cfg.AllowArray) {
		if cand != text {
			if v, ok := decode(cand); ok {
				return v, StageSliced
			}
		}
		if v, stage, ok := p.repair(cand); ok {
			return v, stage
		}
	}

	return p.fallback(), StageDefault
}

func (p *Parser) repair(text string) (any, Stage, bool) {
	steps := []struct {
		stage Stage
		apply func(string) string
	}{
		{StageTrailingCommas, StripTrailingCommas},
		{StageUnitValues, func(s string) string { return applyFieldRules(s, p.rules) }},
		{StageSingleQuotes, SingleToDoubleQuotes},
	}
	for _, step := range steps {
		next := step.apply(text)
		if next == text {
			continue
		}
		text = next
		if v, ok := decode(text); ok {
			return v, step.stage, true
		}
	}
	return nil, "", false
}

func (p *Parser) fallback() any {
	if p.cfg.Default == nil {
		return nil
	}
	return p.cfg.Default()
}

func decode(text string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	return v, true
}
