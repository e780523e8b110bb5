// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package enrichment

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresOverrideRepository implements OverrideRepository using PostgreSQL
type PostgresOverrideRepository struct {
	db *sql.DB
}

// NewPostgresOverrideRepository creates a new PostgreSQL override repository
func NewPostgresOverrideRepository(db *sql.DB) *PostgresOverrideRepository {
	return &PostgresOverrideRepository{db: db}
}

// GetOverrides returns the tenant's cost overrides in priority order
func (r *PostgresOverrideRepository) GetOverrides(ctx context.Context, tenantID string) ([]CostOverride, error) {
	query := `
		SELECT id, match_model, match_pattern, input_per_token, output_per_token
		FROM cost_overrides
		WHERE tenant_id = $1
		ORDER BY priority, id
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cost overrides for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	var overrides []CostOverride
	for rows.Next() {
		var o CostOverride
		var matchModel, matchPattern sql.NullString
		if err := rows.Scan(&o.ID, &matchModel, &matchPattern, &o.InputPerToken, &o.OutputPerToken); err != nil {
			return nil, fmt.Errorf("failed to scan cost override: %w", err)
		}
		o.MatchModel = matchModel.String
		o.MatchPattern = matchPattern.String
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cost overrides: %w", err)
	}

	return overrides, nil
}
