// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package tracesummary

import "errors"

// ErrSummaryNotFound is returned when no summary row exists for the
// requested trace, including when no store is configured.
var ErrSummaryNotFound = errors.New("trace summary not found")
