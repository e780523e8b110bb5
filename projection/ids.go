// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package projection

import (
	"time"

	"github.com/google/uuid"
)

// Fixed namespaces for deterministic projection ids. Never change these:
// ids derived from them are the dedup keys of already-written rows.
var (
	spanNamespace    = uuid.MustParse("8e52b6f3-4d17-4a09-b2c5-e90d73a1c648")
	summaryNamespace = uuid.MustParse("1b671a64-40d5-491e-99b0-da01ff1f3341")
	evalNamespace    = uuid.MustParse("c0b0cbb8-9a3e-4fa6-a0d0-1f52c6f1f0b7")
)

// sep keeps adjacent inputs from colliding ("ab"+"c" vs "a"+"bc").
const sep = "\x00"

// SpanProjectionID derives the natural key for a stored span row from
// (tenant, trace, span). Re-delivery of the same span yields the same id,
// so retries converge on one logical row.
func SpanProjectionID(tenantID, traceID, spanID string) string {
	return uuid.NewSHA1(spanNamespace, []byte(tenantID+sep+traceID+sep+spanID)).String()
}

// TraceSummaryID derives the natural key for a trace summary row from
// (tenant, trace, occurredAt). occurredAt is the event-stream time of the
// first event for the trace, not the fold time, so repeated folds of the
// same stream produce the same key.
func TraceSummaryID(tenantID, traceID string, occurredAt time.Time) string {
	ts := occurredAt.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(summaryNamespace, []byte(tenantID+sep+traceID+sep+ts)).String()
}

// EvaluationRunID derives the natural key for an evaluation run row. When
// a schedule time exists it participates in the key; otherwise the
// evaluation id is used directly.
func EvaluationRunID(tenantID, evaluationID string, scheduledAt *time.Time) string {
	if scheduledAt == nil {
		return evaluationID
	}
	ts := scheduledAt.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(evalNamespace, []byte(tenantID+sep+evaluationID+sep+ts)).String()
}
