// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package tenant

import "errors"

var (
	// ErrOrganizationNotFound is returned when a team id resolves to no
	// organization. Distinct from a generic not-found: it signals a
	// referential inconsistency upstream.
	ErrOrganizationNotFound = errors.New("organization not found for team")

	// ErrInvalidTeamID is returned for an empty team id
	ErrInvalidTeamID = errors.New("team id is required")

	// ErrInvalidOrgID is returned for an empty organization id
	ErrInvalidOrgID = errors.New("organization id is required")
)
