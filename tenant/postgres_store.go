// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package tenant

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL tenant store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetOrganizationIDByTeamID resolves a team to its organization id
func (s *PostgresStore) GetOrganizationIDByTeamID(ctx context.Context, teamID string) (string, error) {
	if teamID == "" {
		return "", ErrInvalidTeamID
	}

	query := `SELECT org_id FROM teams WHERE id = $1`

	var orgID string
	err := s.db.QueryRowContext(ctx, query, teamID).Scan(&orgID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve organization for team %s: %w", teamID, err)
	}

	return orgID, nil
}

// GetProjectIDs returns the project ids owned by an organization
func (s *PostgresStore) GetProjectIDs(ctx context.Context, orgID string) ([]string, error) {
	if orgID == "" {
		return nil, ErrInvalidOrgID
	}

	query := `SELECT id FROM projects WHERE org_id = $1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects for org %s: %w", orgID, err)
	}
	defer rows.Close()

	var projectIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		projectIDs = append(projectIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projectIDs, nil
}

// GetFeature returns the named feature flag row for an organization, or
// nil when no row exists
func (s *PostgresStore) GetFeature(ctx context.Context, orgID, name string) (*Feature, error) {
	if orgID == "" {
		return nil, ErrInvalidOrgID
	}

	query := `SELECT trial_ends_at FROM org_features WHERE org_id = $1 AND feature = $2`

	var trialEndsAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, orgID, name).Scan(&trialEndsAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feature %s for org %s: %w", name, orgID, err)
	}

	feature := &Feature{Name: name}
	if trialEndsAt.Valid {
		t := trialEndsAt.Time.UTC()
		feature.TrialEndsAt = &t
	}
	return feature, nil
}
