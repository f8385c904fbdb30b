/*
Package exercises reads the exercise catalog: the built-in exercises seeded
by migration plus each user's own custom exercises. The union of the active
rows is the whitelist a training plan may draw from.
*/
package exercises

import (
	"context"
	"fmt"
	"strings"

	"Fitdiary/internal/planner"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Catalog supplies the exercises a user may be assigned.
type Catalog interface {
	Whitelist(ctx context.Context, userID string) ([]planner.WhitelistEntry, error)
}

// PostgresCatalog reads the exercises and user_exercises tables.
type PostgresCatalog struct {
	pool *pgxpool.Pool
}

func NewPostgresCatalog(pool *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

// Whitelist returns built-ins first, then the user's custom exercises. A
// custom exercise whose name repeats a built-in is skipped so names stay
// unique.
func (c *PostgresCatalog) Whitelist(ctx context.Context, userID string) ([]planner.WhitelistEntry, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id::text, name, body_part, 0 AS src FROM exercises WHERE is_active
		 UNION ALL
		 SELECT id::text, name, body_part, 1 AS src FROM user_exercises WHERE user_id = $1 AND is_active
		 ORDER BY src, body_part, name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	defer rows.Close()

	var entries []planner.WhitelistEntry
	for rows.Next() {
		var (
			e   planner.WhitelistEntry
			src int
		)
		if err := rows.Scan(&e.ExerciseID, &e.Name, &e.BodyPart, &src); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading exercises: %w", err)
	}
	return Dedupe(entries), nil
}

// Dedupe keeps the first entry for each trimmed, non-empty name.
func Dedupe(entries []planner.WhitelistEntry) []planner.WhitelistEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]planner.WhitelistEntry, 0, len(entries))
	for _, e := range entries {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			continue
		}
		if _, ok := seen[e.Name]; ok {
			continue
		}
		seen[e.Name] = struct{}{}
		e.BodyPart = strings.ToLower(strings.TrimSpace(e.BodyPart))
		out = append(out, e)
	}
	return out
}
