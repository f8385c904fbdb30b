package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps counters in the user_ai_quotas table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (State, bool, error) {
	var st State
	err := s.pool.QueryRow(ctx,
		`SELECT analysis_count, last_reset_date FROM user_ai_quotas WHERE user_id = $1`, userID,
	).Scan(&st.Count, &st.LastResetDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("fetching user quota: %w", err)
	}
	return st, true, nil
}

// Increment is a single upsert. The conflict branch only fires when the row
// is stale or still under the limit; otherwise no row comes back.
func (s *PostgresStore) Increment(ctx context.Context, userID string, today time.Time, limit int) (int, bool, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`INSERT INTO user_ai_quotas (user_id, analysis_count, last_reset_date)
		 VALUES ($1, 1, $2)
		 ON CONFLICT (user_id) DO UPDATE
		 SET analysis_count = CASE
		         WHEN user_ai_quotas.last_reset_date < EXCLUDED.last_reset_date THEN 1
		         ELSE user_ai_quotas.analysis_count + 1
		     END,
		     last_reset_date = EXCLUDED.last_reset_date,
		     updated_at = NOW()
		 WHERE user_ai_quotas.last_reset_date < EXCLUDED.last_reset_date
		    OR user_ai_quotas.analysis_count < $3
		 RETURNING analysis_count`,
		userID, today, limit,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("incrementing user quota: %w", err)
	}
	return count, true, nil
}
