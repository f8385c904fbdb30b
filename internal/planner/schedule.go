package planner

import (
	"math"
	"time"

	"Fitdiary/internal/apperr"
)

const dateLayout = "2006-01-02"

// Window is an inclusive range of calendar dates.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow truncates start and end to their calendar dates.
func NewWindow(start, end time.Time) Window {
	return Window{Start: dateOf(start), End: dateOf(end)}
}

// ParseWindow reads two YYYY-MM-DD dates.
func ParseWindow(start, end string) (Window, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return Window{}, apperr.Validation("startDate must be YYYY-MM-DD")
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return Window{}, apperr.Validation("endDate must be YYYY-MM-DD")
	}
	return NewWindow(s, e), nil
}

// Days is the distance between Start and End; a single-day window is 0.
func (w Window) Days() int {
	d := int(math.Round(w.End.Sub(w.Start).Hours() / 24))
	return max(d, 0)
}

// Validate rejects inverted windows and windows starting before today.
func (w Window) Validate(today time.Time) error {
	if w.End.Before(w.Start) {
		return apperr.Validation("endDate must not be before startDate")
	}
	if w.Start.Before(dateOf(today)) {
		return apperr.Validation("startDate must not be in the past")
	}
	return nil
}

// Clamp moves d into the window.
func (w Window) Clamp(d time.Time) time.Time {
	d = dateOf(d)
	if d.Before(w.Start) {
		return w.Start
	}
	if d.After(w.End) {
		return w.End
	}
	return d
}

// Redistribute assigns evenly spaced dates to plans, in order: plan i of N
// lands round(i / max(N-1, 1) * days) days after Start. Dates are distinct
// whenever N <= days+1.
func Redistribute(plans []PlanProposal, w Window) {
	n := len(plans)
	days := w.Days()
	for i := range plans {
		offset := int(math.Round(float64(i) / float64(max(n-1, 1)) * float64(days)))
		offset = min(max(offset, 0), days)
		plans[i].PlannedDate = w.Start.AddDate(0, 0, offset)
	}
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a plan date the way the API exchanges them.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
