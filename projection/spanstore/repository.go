// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package spanstore

import (
	"context"

	"tracelens/platform/projection"
)

// Repository defines the interface for stored-span persistence
type Repository interface {
	// InsertSpan writes one row for the span's projection id. Writes for
	// the same id converge to the latest write at the store.
	InsertSpan(ctx context.Context, span *StoredSpan) error

	// GetSpansByTraceID returns the deduplicated latest rows for a trace.
	// Returns ErrSpanNotFound when no rows exist or no store is configured.
	GetSpansByTraceID(ctx context.Context, tenantID, traceID string) ([]StoredSpan, error)
}

// NoopRepository is the repository selected at startup when no analytical
// store is configured. Writes are deliberate no-ops, not errors; reads
// report not-found. Tenant validation still applies so that a
// misconfigured caller fails the same way against either backend.
type NoopRepository struct{}

// NewNoopRepository creates a repository that drops writes
func NewNoopRepository() *NoopRepository {
	return &NoopRepository{}
}

// InsertSpan validates and discards the span
func (r *NoopRepository) InsertSpan(ctx context.Context, span *StoredSpan) error {
	if span.TenantID == "" {
		return projection.ErrTenantRequired
	}
	return nil
}

// GetSpansByTraceID reports not-found; the service layer translates this
// to an empty span list
func (r *NoopRepository) GetSpansByTraceID(ctx context.Context, tenantID, traceID string) ([]StoredSpan, error) {
	if tenantID == "" {
		return nil, projection.ErrTenantRequired
	}
	return nil, ErrSpanNotFound
}
