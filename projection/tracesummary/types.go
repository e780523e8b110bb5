// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package tracesummary

import (
	"time"

	"tracelens/platform/projection"
)

// TraceSummary is the per-(tenant, trace) aggregate projection folded from
// the event stream. Each upsert carries the latest known state of the
// whole aggregate, never a delta.
type TraceSummary struct {
	TenantID     string
	TraceID      string
	ProjectionID string

	// OccurredAt is the event-stream time of the first event for this
	// trace; it participates in the projection key.
	OccurredAt time.Time

	DurationMs   int64
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	TotalCostUSD *float64
	Models       []string

	HasError  bool
	AllOk     bool
	Annotated bool

	// Optional classification outcomes stamped by downstream evaluators
	Satisfaction *string
	Topic        *string

	UpdatedAt time.Time
}

// Key returns the deterministic projection id for this summary.
func (s *TraceSummary) Key() string {
	return projection.TraceSummaryID(s.TenantID, s.TraceID, s.OccurredAt)
}
