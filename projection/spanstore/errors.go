// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package spanstore

import "errors"

var (
	// ErrSpanNotFound is returned by repository reads when no row exists
	// for the requested key, including when no store is configured.
	ErrSpanNotFound = errors.New("span not found")

	// ErrInvalidSpan is returned when a span is missing its trace or span id
	ErrInvalidSpan = errors.New("span requires trace id and span id")
)
