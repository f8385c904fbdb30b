/*
Package planner turns whatever a model returned for a training request into
a list of schedulable plan proposals.

The pipeline is: lenient parse, shape matching, whitelist and set
normalization, validity filter, deterministic fallback when nothing
survives, and finally even date redistribution across the requested window.
Every step is total; garbage in yields fallback plans out.
*/
package planner

import (
	"time"

	"Fitdiary/internal/jsonrepair"
)

const (
	MinExercisesPerPlan = 3
	MaxExercisesPerPlan = 6
	MaxSetsPerExercise  = 10
	DefaultSetCount     = 3
	DefaultReps         = 10
	DefaultRestSeconds  = 90
)

// Body parts used by the exercise catalog.
const (
	BodyPartChest     = "chest"
	BodyPartBack      = "back"
	BodyPartLegs      = "legs"
	BodyPartShoulders = "shoulders"
	BodyPartArms      = "arms"
	BodyPartCore      = "core"
	BodyPartFullBody  = "fullbody"
	BodyPartOther     = "other"
)

// WhitelistEntry is one exercise the user is allowed to be assigned.
type WhitelistEntry struct {
	ExerciseID string `json:"exerciseId"`
	Name       string `json:"name"`
	BodyPart   string `json:"bodyPart"`
}

type Set struct {
	Weight      float64 `json:"weight"`
	Reps        int     `json:"reps"`
	RestSeconds int     `json:"restSeconds"`
}

type PlanExercise struct {
	ExerciseName string `json:"exerciseName"`
	ExerciseID   string `json:"exerciseId"`
	BodyPart     string `json:"bodyPart,omitempty"`
	Sets         []Set  `json:"sets"`
}

type PlanProposal struct {
	Name        string         `json:"name"`
	PlannedDate time.Time      `json:"plannedDate"`
	Exercises   []PlanExercise `json:"exercises"`
}

// Request is the input of Extract.
type Request struct {
	// Raw is the model output; it may be empty when the call failed.
	Raw       string
	Whitelist []WhitelistEntry
	Window    Window
	// Days is the number of plans wanted.
	Days int
}

// Result carries the plans plus how they were obtained.
type Result struct {
	Plans    []PlanProposal
	Stage    jsonrepair.Stage
	Shape    string
	Fallback bool
}

var planParser = jsonrepair.New(jsonrepair.Config{
	NumericFields: []string{"weight", "reps", "restSeconds", "rest"},
	AllowArray:    true,
})

// Extract runs the full pipeline. With an empty whitelist it returns no
// plans; otherwise it always returns at least one.
func Extract(req Request) Result {
	if len(req.Whitelist) == 0 {
		return Result{Plans: []PlanProposal{}, Stage: jsonrepair.StageDefault}
	}

	want := min(max(req.Days, 1), req.Window.Days()+1)

	var res Result
	var value any
	if req.Raw != "" {
		value, res.Stage = planParser.ParseStage(jsonrepair.StripCodeFence(req.Raw))
	} else {
		res.Stage = jsonrepair.StageDefault
	}

	candidates, shape := matchShape(value)
	res.Shape = shape

	idx := indexWhitelist(req.Whitelist)
	var accepted []normalizedPlan
	for i, c := range candidates {
		if p, ok := normalizePlan(c, i, idx, req.Window); ok {
			accepted = append(accepted, p)
		}
	}
	orderByHint(accepted)

	var plans []PlanProposal
	for _, p := range accepted {
		if len(plans) == want {
			break
		}
		plans = append(plans, p.plan)
	}

	if len(plans) == 0 {
		plans = Fallback(req.Whitelist, want)
		res.Fallback = true
	}

	Redistribute(plans, req.Window)
	res.Plans = plans
	return res
}
