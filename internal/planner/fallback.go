package planner

import "strings"

const fallbackExercisesPerPlan = 5

type split struct {
	name      string
	bodyParts []string
}

var fallbackSplits = []split{
	{"Push Day", []string{BodyPartChest, BodyPartShoulders, BodyPartArms}},
	{"Pull Day", []string{BodyPartBack, BodyPartArms}},
	{"Leg Day", []string{BodyPartLegs, BodyPartCore}},
	{"Upper Body", []string{BodyPartChest, BodyPartBack, BodyPartShoulders, BodyPartArms}},
}

// Fallback builds n plans from a fixed push/pull/legs/upper rotation without
// any model input. The same whitelist and n always give the same plans.
//
// Each plan takes up to fallbackExercisesPerPlan exercises of its split's
// body parts and is topped up from the rest of the whitelist when the split
// has fewer than MinExercisesPerPlan. A whitelist smaller than that yields
// plans containing the whole whitelist.
func Fallback(whitelist []WhitelistEntry, n int) []PlanProposal {
	if len(whitelist) == 0 || n <= 0 {
		return []PlanProposal{}
	}

	plans := make([]PlanProposal, 0, n)
	for i := 0; i < n; i++ {
		sp := fallbackSplits[i%len(fallbackSplits)]
		round := i / len(fallbackSplits)

		var matching, others []WhitelistEntry
		for _, e := range whitelist {
			if hasBodyPart(sp.bodyParts, e.BodyPart) {
				matching = append(matching, e)
			} else {
				others = append(others, e)
			}
		}

		// Later rounds of the same split start further into the list.
		picked := rotate(matching, round*fallbackExercisesPerPlan)
		if len(picked) > fallbackExercisesPerPlan {
			picked = picked[:fallbackExercisesPerPlan]
		}
		for _, e := range others {
			if len(picked) >= MinExercisesPerPlan {
				break
			}
			picked = append(picked, e)
		}

		exercises := make([]PlanExercise, 0, len(picked))
		for _, e := range picked {
			exercises = append(exercises, PlanExercise{
				ExerciseName: e.Name,
				ExerciseID:   e.ExerciseID,
				BodyPart:     e.BodyPart,
				Sets:         DefaultSets(),
			})
		}
		plans = append(plans, PlanProposal{Name: sp.name, Exercises: exercises})
	}
	return plans
}

func hasBodyPart(parts []string, bodyPart string) bool {
	bodyPart = strings.ToLower(strings.TrimSpace(bodyPart))
	for _, p := range parts {
		if p == bodyPart {
			return true
		}
	}
	return false
}

func rotate(entries []WhitelistEntry, by int) []WhitelistEntry {
	if len(entries) == 0 {
		return nil
	}
	by %= len(entries)
	out := make([]WhitelistEntry, 0, len(entries))
	out = append(out, entries[by:]...)
	return append(out, entries[:by]...)
}
