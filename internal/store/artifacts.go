package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/weave/internal/extractor"
)

// ListArtifacts returns the user's saved artifacts, oldest first.
func (s *Store) ListArtifacts(ctx context.Context, userID uuid.UUID) ([]extractor.StoredArtifact, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, type, COALESCE(creator, ''), year
		FROM artifacts
		WHERE user_id = $1
		ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}

	artifacts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (extractor.StoredArtifact, error) {
		var a extractor.StoredArtifact
		err := row.Scan(&a.ID, &a.Title, &a.Type, &a.Creator, &a.Year)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan artifacts: %w", err)
	}
	return artifacts, nil
}
