// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package evalrun

import "errors"

var (
	// ErrRunNotFound is returned when no run row exists for the requested
	// evaluation id, including when no store is configured.
	ErrRunNotFound = errors.New("evaluation run not found")

	// ErrInvalidStatus is returned when upserting a run with an unknown
	// lifecycle status
	ErrInvalidStatus = errors.New("invalid evaluation run status")
)
