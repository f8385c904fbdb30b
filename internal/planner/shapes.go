package planner

// Alternate keys under which models have been seen to nest a plan list.
var alternatePlanKeys = []string{"workoutPlans", "workout_plans", "trainingPlans", "sessions", "schedule", "data"}

// shapeMatcher inspects a decoded value and returns plan candidates when
// the value has the shape it knows.
type shapeMatcher struct {
	name  string
	match func(v any) ([]map[string]any, bool)
}

// Order matters: the first matcher that accepts the value wins.
var shapeMatchers = []shapeMatcher{
	{"plans_object", matchPlansObject},
	{"single_plan", matchSinglePlan},
	{"top_level_array", matchTopLevelArray},
	{"alternate_key", matchAlternateKey},
}

// matchShape returns the candidates of the first matching shape, or nil and
// "none".
func matchShape(v any) ([]map[string]any, string) {
	if v == nil {
		return nil, "none"
	}
	for _, m := range shapeMatchers {
		if cands, ok := m.match(v); ok {
			return cands, m.name
		}
	}
	return nil, "none"
}

// {"plans": [...]}
func matchPlansObject(v any) ([]map[string]any, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	list, ok := obj["plans"].([]any)
	if !ok {
		return nil, false
	}
	return planObjects(list), true
}

// {"name": ..., "exercises": [...]}
func matchSinglePlan(v any) ([]map[string]any, bool) {
	obj, ok := v.(map[string]any)
	if !ok || !looksLikePlan(obj) {
		return nil, false
	}
	return []map[string]any{obj}, true
}

// [plan, plan] or [{"plans": [...]}, ...]
func matchTopLevelArray(v any) ([]map[string]any, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}

	var out []map[string]any
	for _, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if nested, ok := obj["plans"].([]any); ok {
			out = append(out, planObjects(nested)...)
			continue
		}
		if looksLikePlan(obj) {
			out = append(out, obj)
		}
	}
	return out, len(out) > 0
}

// {"workoutPlans": [...]} and friends.
func matchAlternateKey(v any) ([]map[string]any, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, key := range alternatePlanKeys {
		list, ok := obj[key].([]any)
		if !ok {
			continue
		}
		if cands := planObjects(list); len(cands) > 0 {
			return cands, true
		}
	}
	return nil, false
}

func looksLikePlan(obj map[string]any) bool {
	_, ok := obj["exercises"]
	return ok
}

func planObjects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, el := range list {
		if obj, ok := el.(map[string]any); ok && looksLikePlan(obj) {
			out = append(out, obj)
		}
	}
	return out
}
