// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package evalrun

import (
	"time"

	"tracelens/platform/projection"
)

// Status is the lifecycle state of an evaluator invocation
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusProcessed  Status = "processed"
	StatusError      Status = "error"
	StatusSkipped    Status = "skipped"
)

// IsValid returns true for known lifecycle states
func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusProcessed, StatusError, StatusSkipped:
		return true
	default:
		return false
	}
}

// EvaluationRun is one row per (tenant, evaluation) describing an
// evaluator invocation's lifecycle. Each upsert carries the latest known
// state; the external evaluation executor writes through this projection.
type EvaluationRun struct {
	TenantID     string
	EvaluationID string
	ProjectionID string

	EvaluatorName string
	TraceID       string
	Status        Status

	ScheduledAt *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	Score        *float64
	Passed       *bool
	Label        *string
	CostUSD      *float64
	ErrorMessage *string

	UpdatedAt time.Time
}

// Key returns the deterministic projection id for this run.
func (r *EvaluationRun) Key() string {
	return projection.EvaluationRunID(r.TenantID, r.EvaluationID, r.ScheduledAt)
}
