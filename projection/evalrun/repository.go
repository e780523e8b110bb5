// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package evalrun

import (
	"context"

	"tracelens/platform/projection"
)

// Repository defines the interface for evaluation run persistence
type Repository interface {
	// Upsert writes the latest lifecycle state under the run's
	// deterministic key.
	Upsert(ctx context.Context, run *EvaluationRun) error

	// GetByEvaluationID returns the latest logical row for
	// (tenant, evaluation id). Returns ErrRunNotFound when absent or no
	// store is configured.
	GetByEvaluationID(ctx context.Context, tenantID, evaluationID string) (*EvaluationRun, error)
}

// NoopRepository drops writes and reports not-found on reads. Selected at
// startup when the analytical store is not configured.
type NoopRepository struct{}

// NewNoopRepository creates a repository that drops writes
func NewNoopRepository() *NoopRepository {
	return &NoopRepository{}
}

// Upsert validates and discards the run
func (r *NoopRepository) Upsert(ctx context.Context, run *EvaluationRun) error {
	if run.TenantID == "" {
		return projection.ErrTenantRequired
	}
	return nil
}

// GetByEvaluationID reports not-found
func (r *NoopRepository) GetByEvaluationID(ctx context.Context, tenantID, evaluationID string) (*EvaluationRun, error) {
	if tenantID == "" {
		return nil, projection.ErrTenantRequired
	}
	return nil, ErrRunNotFound
}
