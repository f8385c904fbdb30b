/*
Package prompts stores named, versioned instruction templates for the AI
service.

History is append-only. A name starts at 1.0.0 and every change of text
appends the next patch version; identical text never creates a row.
*/
package prompts

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"
)

// Template names used by the AI features.
const (
	NutritionAnalysis = "diet-analysis"
	WorkoutPlan       = "workout-plan"
)

const InitialVersion = "1.0.0"

// ErrDuplicateVersion is returned by a Repository when (name, version)
// already exists.
var ErrDuplicateVersion = errors.New("template version already exists")

type Template struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CompareVersions orders two stored version strings. Semantic versions
// compare semantically and rank above strings that do not parse; two
// unparseable strings compare lexically.
func CompareVersions(a, b string) int {
	va, vb := "v"+a, "v"+b
	okA, okB := semver.IsValid(va), semver.IsValid(vb)
	switch {
	case okA && okB:
		return semver.Compare(va, vb)
	case okA:
		return 1
	case okB:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

// SortNewestFirst orders templates by version, highest first.
func SortNewestFirst(ts []Template) {
	sort.SliceStable(ts, func(i, j int) bool {
		return CompareVersions(ts[i].Version, ts[j].Version) > 0
	})
}

// BumpPatch returns the next patch version, e.g. 1.0.9 -> 1.0.10.
// Prerelease and build suffixes are dropped.
func BumpPatch(version string) (string, error) {
	canonical := semver.Canonical("v" + version)
	if canonical == "" {
		return "", fmt.Errorf("%q is not a semantic version", version)
	}

	core := strings.TrimPrefix(canonical, "v")
	if i := strings.IndexByte(core, '-'); i >= 0 {
		core = core[:i]
	}
	parts := strings.Split(core, ".")
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", fmt.Errorf("parsing patch of %q: %w", version, err)
	}
	return fmt.Sprintf("%s.%s.%d", parts[0], parts[1], patch+1), nil
}
