// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

// Package tenant resolves team, organization, project, and feature-flag
// relationships from the relational store. Feature flags gate per-tenant
// behavior such as the usage-counting source and are re-evaluated on every
// check; a flag can be turned off at any time.
package tenant

import (
	"context"
	"time"
)

// Feature is a per-organization feature flag row. A nil trial end date
// means the feature is enabled indefinitely.
type Feature struct {
	Name        string
	TrialEndsAt *time.Time
}

// Enabled reports whether the feature is active at the given time: the row
// exists and either carries no trial end or the trial end is in the
// future. Expired trials are disabled.
func (f *Feature) Enabled(now time.Time) bool {
	if f == nil {
		return false
	}
	return f.TrialEndsAt == nil || f.TrialEndsAt.After(now)
}

// Store defines the tenant/organization lookup interface
type Store interface {
	// GetOrganizationIDByTeamID resolves a team to its organization.
	// Returns "" (and no error) when the team has no organization row.
	GetOrganizationIDByTeamID(ctx context.Context, teamID string) (string, error)

	// GetProjectIDs returns the project ids owned by an organization.
	GetProjectIDs(ctx context.Context, orgID string) ([]string, error)

	// GetFeature returns the named feature row for an organization, or
	// nil when no row exists.
	GetFeature(ctx context.Context, orgID, name string) (*Feature, error)
}
