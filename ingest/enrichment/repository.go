// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package enrichment

import "context"

// OverrideRepository fetches a tenant's custom cost overrides
type OverrideRepository interface {
	// GetOverrides returns all overrides for the tenant, in priority
	// order. An empty result is a normal outcome.
	GetOverrides(ctx context.Context, tenantID string) ([]CostOverride, error)
}

// NoopOverrideRepository is selected when no relational store is
// configured; every tenant has no overrides.
type NoopOverrideRepository struct{}

// NewNoopOverrideRepository creates a repository with no overrides
func NewNoopOverrideRepository() *NoopOverrideRepository {
	return &NoopOverrideRepository{}
}

// GetOverrides returns no overrides
func (r *NoopOverrideRepository) GetOverrides(ctx context.Context, tenantID string) ([]CostOverride, error) {
	return nil, nil
}
