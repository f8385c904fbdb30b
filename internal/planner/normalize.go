package planner

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"Fitdiary/internal/utility"
)

type normalizedPlan struct {
	plan    PlanProposal
	hint    time.Time
	hasHint bool
}

func indexWhitelist(wl []WhitelistEntry) map[string]WhitelistEntry {
	idx := make(map[string]WhitelistEntry, len(wl))
	for _, e := range wl {
		if _, dup := idx[e.Name]; !dup {
			idx[e.Name] = e
		}
	}
	return idx
}

// normalizePlan maps one candidate onto the whitelist. ok is false when
// fewer than MinExercisesPerPlan exercises survive.
func normalizePlan(c map[string]any, pos int, idx map[string]WhitelistEntry, w Window) (normalizedPlan, bool) {
	rawExercises, _ := c["exercises"].([]any)

	seen := make(map[string]bool)
	var exercises []PlanExercise
	for _, raw := range rawExercises {
		name, fields := exerciseName(raw)
		entry, ok := idx[name]
		if !ok || seen[entry.ExerciseID] {
			continue
		}
		seen[entry.ExerciseID] = true

		exercises = append(exercises, PlanExercise{
			ExerciseName: entry.Name,
			ExerciseID:   entry.ExerciseID,
			BodyPart:     entry.BodyPart,
			Sets:         normalizeSets(fields),
		})
	}

	if len(exercises) < MinExercisesPerPlan {
		return normalizedPlan{}, false
	}
	if len(exercises) > MaxExercisesPerPlan {
		exercises = exercises[:MaxExercisesPerPlan]
	}

	np := normalizedPlan{
		plan: PlanProposal{
			Name:      planName(c, pos),
			Exercises: exercises,
		},
	}
	np.hint, np.hasHint = dateHint(c, w)
	return np, true
}

// exerciseName accepts "Bench Press" as well as {"exerciseName": "Bench Press", ...}.
func exerciseName(raw any) (string, map[string]any) {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case map[string]any:
		for _, key := range []string{"exerciseName", "name", "exercise"} {
			if s, ok := v[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), v
			}
		}
		return "", v
	}
	return "", nil
}

func planName(c map[string]any, pos int) string {
	for _, key := range []string{"name", "planName", "title"} {
		if s, ok := c[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return fmt.Sprintf("Training Plan %d", pos+1)
}

// normalizeSets reads an explicit set list, or a set count with
// exercise-level weight/reps/rest, or nothing at all.
func normalizeSets(fields map[string]any) []Set {
	if fields == nil {
		return DefaultSets()
	}

	switch v := fields["sets"].(type) {
	case []any:
		var sets []Set
		for _, raw := range v {
			if obj, ok := raw.(map[string]any); ok {
				sets = append(sets, normalizeSet(obj))
			}
			if len(sets) == MaxSetsPerExercise {
				break
			}
		}
		if len(sets) > 0 {
			return sets
		}
	case float64, string:
		n := int(math.Round(utility.ToNumber(v)))
		if n >= 1 {
			n = min(n, MaxSetsPerExercise)
			template := normalizeSet(fields)
			sets := make([]Set, n)
			for i := range sets {
				sets[i] = template
			}
			return sets
		}
	}

	template := normalizeSet(fields)
	sets := make([]Set, DefaultSetCount)
	for i := range sets {
		sets[i] = template
	}
	return sets
}

// normalizeSet coerces one set. Missing or non-positive reps become
// DefaultReps. Weight and rest are clamped at 0 when present; missing rest
// becomes DefaultRestSeconds.
func normalizeSet(obj map[string]any) Set {
	s := Set{Reps: DefaultReps, RestSeconds: DefaultRestSeconds}

	if v, ok := obj["weight"]; ok {
		s.Weight = math.Max(utility.ToNumber(v), 0)
	}
	if v, ok := obj["reps"]; ok {
		if r := int(math.Round(utility.ToNumber(v))); r >= 1 {
			s.Reps = r
		}
	}
	rest, ok := obj["restSeconds"]
	if !ok {
		rest, ok = obj["rest"]
	}
	if ok && rest != nil {
		s.RestSeconds = max(int(math.Round(utility.ToNumber(rest))), 0)
	}
	return s
}

// DefaultSets is what an exercise gets when the model gave no sets.
func DefaultSets() []Set {
	sets := make([]Set, DefaultSetCount)
	for i := range sets {
		sets[i] = Set{Weight: 0, Reps: DefaultReps, RestSeconds: DefaultRestSeconds}
	}
	return sets
}

// dateHint reads a model-suggested date and clamps it into the window. It is
// only used to order plans; Redistribute assigns the final dates.
func dateHint(c map[string]any, w Window) (time.Time, bool) {
	for _, key := range []string{"plannedDate", "date", "scheduledDate"} {
		s, ok := c[key].(string)
		if !ok || len(s) < len(dateLayout) {
			continue
		}
		d, err := time.Parse(dateLayout, s[:len(dateLayout)])
		if err != nil {
			continue
		}
		return w.Clamp(d), true
	}
	return time.Time{}, false
}

// orderByHint sorts plans by their clamped date hints, but only when every
// plan has one; otherwise the model's order is kept.
func orderByHint(plans []normalizedPlan) {
	for _, p := range plans {
		if !p.hasHint {
			return
		}
	}
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].hint.Before(plans[j].hint)
	})
}
