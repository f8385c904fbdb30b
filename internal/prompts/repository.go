package prompts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the system of record for templates. Insert must be an
// insert-if-absent on (name, version).
type Repository interface {
	ListByName(ctx context.Context, name string) ([]Template, error)
	GetByVersion(ctx context.Context, name, version string) (*Template, error)
	Insert(ctx context.Context, t Template) error
}

// PostgresRepository reads and writes the ai_prompts table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) ListByName(ctx context.Context, name string) ([]Template, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, version, text, created_at FROM ai_prompts WHERE name = $1`, name)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Version, &t.Text, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByVersion returns nil, nil when the pair does not exist.
func (r *PostgresRepository) GetByVersion(ctx context.Context, name, version string) (*Template, error) {
	var t Template
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, version, text, created_at FROM ai_prompts WHERE name = $1 AND version = $2`,
		name, version,
	).Scan(&t.ID, &t.Name, &t.Version, &t.Text, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching template: %w", err)
	}
	return &t, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, t Template) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ai_prompts (id, name, version, text, created_at) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.Name, t.Version, t.Text, t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%s@%s: %w", t.Name, t.Version, ErrDuplicateVersion)
		}
		return fmt.Errorf("inserting template: %w", err)
	}
	return nil
}
