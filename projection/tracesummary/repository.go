// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package tracesummary

import (
	"context"

	"tracelens/platform/projection"
)

// Repository defines the interface for trace summary persistence
type Repository interface {
	// Upsert writes the latest state of the aggregate under its
	// deterministic key. Redelivered folds overwrite, never duplicate.
	Upsert(ctx context.Context, summary *TraceSummary) error

	// GetByTraceID returns the latest logical row for (tenant, trace).
	// Returns ErrSummaryNotFound when absent or no store is configured.
	GetByTraceID(ctx context.Context, tenantID, traceID string) (*TraceSummary, error)
}

// NoopRepository drops writes and reports not-found on reads. Selected at
// startup when the analytical store is not configured.
type NoopRepository struct{}

// NewNoopRepository creates a repository that drops writes
func NewNoopRepository() *NoopRepository {
	return &NoopRepository{}
}

// Upsert validates and discards the summary
func (r *NoopRepository) Upsert(ctx context.Context, summary *TraceSummary) error {
	if summary.TenantID == "" {
		return projection.ErrTenantRequired
	}
	return nil
}

// GetByTraceID reports not-found
func (r *NoopRepository) GetByTraceID(ctx context.Context, tenantID, traceID string) (*TraceSummary, error) {
	if tenantID == "" {
		return nil, projection.ErrTenantRequired
	}
	return nil, ErrSummaryNotFound
}
