package geminiservice

import (
	"fmt"
	"strings"

	"Fitdiary/internal/planner"
)

// WorkoutPromptParams carries what the workout template is filled with.
type WorkoutPromptParams struct {
	Whitelist   []planner.WhitelistEntry
	Window      planner.Window
	DaysPerWeek int
	PriorAdvice string
}

// FormatExercisesForAI lists the allowed exercises grouped by body part in a
// compact form to save tokens.
func FormatExercisesForAI(whitelist []planner.WhitelistEntry) string {
	if len(whitelist) == 0 {
		return "No exercises available."
	}

	var order []string
	groups := make(map[string][]string)
	for _, e := range whitelist {
		part := strings.ToLower(strings.TrimSpace(e.BodyPart))
		if part == "" {
			part = planner.BodyPartOther
		}
		if _, ok := groups[part]; !ok {
			order = append(order, part)
		}
		groups[part] = append(groups[part], e.Name)
	}

	var sb strings.Builder
	for _, part := range order {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", part, strings.Join(groups[part], ", ")))
	}
	return sb.String()
}

// BuildWorkoutPlanPrompt appends the request context to the stored template text.
func BuildWorkoutPlanPrompt(templateText string, p WorkoutPromptParams) string {
	advice := strings.TrimSpace(p.PriorAdvice)
	if advice == "" {
		advice = "None"
	}

	return fmt.Sprintf(`%s

**SCHEDULING WINDOW:** %s to %s (inclusive)
**SESSIONS REQUESTED:** %d

**ALLOWED EXERCISES (use these names exactly):**
%s
**PRIOR COACHING ADVICE:**
%s
`,
		strings.TrimSpace(templateText),
		planner.FormatDate(p.Window.Start),
		planner.FormatDate(p.Window.End),
		p.DaysPerWeek,
		FormatExercisesForAI(p.Whitelist),
		advice,
	)
}
