package analysislog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresWriter appends entries to ai_analysis_logs.
type PostgresWriter struct {
	pool *pgxpool.Pool
}

func NewPostgresWriter(pool *pgxpool.Pool) *PostgresWriter {
	return &PostgresWriter{pool: pool}
}

func (w *PostgresWriter) Write(ctx context.Context, e Entry) error {
	var parsed []byte
	if e.ParsedResult != nil {
		b, err := json.Marshal(e.ParsedResult)
		if err != nil {
			return fmt.Errorf("marshaling parsed result: %w", err)
		}
		parsed = b
	}

	_, err := w.pool.Exec(ctx,
		`INSERT INTO ai_analysis_logs
		    (id, user_id, operation, template_id, template_version, model, raw_response,
		     parsed_result, tokens_in, tokens_out, source_ref, status, error_message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.UserID, e.Operation, e.TemplateID, e.TemplateVersion, e.Model, e.RawResponse,
		parsed, e.TokensIn, e.TokensOut, e.SourceRef, string(e.Status), e.ErrorMessage, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting analysis log: %w", err)
	}
	return nil
}
