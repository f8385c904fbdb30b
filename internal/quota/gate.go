/*
Package quota bounds how many AI invocations a user may make per local
calendar day.

A check never mutates anything. The increment happens later, through the
Reservation returned by Check, and only once the gated call was actually
made. The store performs reset-if-stale, increment and limit guard in one
atomic step, so concurrent commits from several instances can never push a
counter past the limit.
*/
package quota

import (
	"context"
	"fmt"
	"time"

	"Fitdiary/internal/apperr"
	"github.com/rs/zerolog/log"
)

// DefaultDailyLimit is the number of analyses a user gets per day.
const DefaultDailyLimit = 12

// State is the persisted counter for one user.
type State struct {
	Count         int
	LastResetDate time.Time
}

// Store persists quota counters.
type Store interface {
	// Get returns the stored state; found is false for users that never
	// used the gate.
	Get(ctx context.Context, userID string) (state State, found bool, err error)

	// Increment resets the counter when its date is before today, then adds
	// one unless the result would exceed limit. applied is false when the
	// limit was already reached; nothing is written in that case.
	Increment(ctx context.Context, userID string, today time.Time, limit int) (count int, applied bool, err error)
}

// Usage is the read-only view returned by Status.
type Usage struct {
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}

type Gate struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

// NewGate returns a gate whose day boundaries follow loc. A nil loc means
// time.Local.
func NewGate(store Store, loc *time.Location) *Gate {
	if loc == nil {
		loc = time.Local
	}
	return &Gate{store: store, loc: loc, now: time.Now}
}

// Reservation is a granted check that has not consumed quota yet.
type Reservation struct {
	gate      *Gate
	userID    string
	limit     int
	committed bool
}

// Check decides whether userID may make another call today. A denied check
// returns an apperr.ErrQuotaExceeded error and changes nothing.
func (g *Gate) Check(ctx context.Context, userID string, limit int) (*Reservation, error) {
	if limit <= 0 {
		return nil, exceeded(limit)
	}

	state, found, err := g.store.Get(ctx, userID)
	if err != nil {
		return nil, apperr.External("quota store unavailable", fmt.Errorf("reading quota for %s: %w", userID, err))
	}

	if effectiveCount(state, found, g.today()) >= limit {
		log.Info().Str("user_id", userID).Int("limit", limit).Msg("AI quota exhausted for today")
		return nil, exceeded(limit)
	}

	return &Reservation{gate: g, userID: userID, limit: limit}, nil
}

// Commit consumes one unit of quota. Calling it again is a no-op. It fails
// with apperr.ErrQuotaExceeded when a concurrent request used the last unit
// between Check and Commit.
func (r *Reservation) Commit(ctx context.Context) error {
	if r == nil || r.committed {
		return nil
	}

	count, applied, err := r.gate.store.Increment(ctx, r.userID, r.gate.today(), r.limit)
	if err != nil {
		return apperr.External("quota store unavailable", fmt.Errorf("incrementing quota for %s: %w", r.userID, err))
	}
	if !applied {
		return exceeded(r.limit)
	}

	r.committed = true
	log.Debug().Str("user_id", r.userID).Int("count", count).Int("limit", r.limit).Msg("AI quota consumed")
	return nil
}

// Status reports today's usage without modifying it.
func (g *Gate) Status(ctx context.Context, userID string, limit int) (Usage, error) {
	state, found, err := g.store.Get(ctx, userID)
	if err != nil {
		return Usage{}, apperr.External("quota store unavailable", fmt.Errorf("reading quota for %s: %w", userID, err))
	}

	now := g.now().In(g.loc)
	used := effectiveCount(state, found, g.today())
	remaining := max(limit-used, 0)

	return Usage{
		Used:      used,
		Limit:     limit,
		Remaining: remaining,
		ResetsAt:  time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, g.loc),
	}, nil
}

// today is the caller's local calendar date, expressed as midnight UTC so it
// compares cleanly with a SQL DATE.
func (g *Gate) today() time.Time {
	return DateOf(g.now().In(g.loc))
}

// DateOf strips the clock from t, keeping its calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func effectiveCount(state State, found bool, today time.Time) int {
	if !found || DateOf(state.LastResetDate).Before(today) {
		return 0
	}
	return state.Count
}

func exceeded(limit int) error {
	return apperr.QuotaExceeded(fmt.Sprintf("Daily AI analysis limit reached (%d per day)", limit))
}
