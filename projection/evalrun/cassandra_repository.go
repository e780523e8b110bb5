// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package evalrun

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gocql/gocql"

	"tracelens/platform/projection"
)

// CassandraRepository implements Repository on the columnar analytical
// store, keyed by ((tenant_id, evaluation_id), projection_id).
type CassandraRepository struct {
	session *gocql.Session
	logger  *log.Logger
}

// NewCassandraRepository creates a new analytical-store run repository
func NewCassandraRepository(session *gocql.Session) *CassandraRepository {
	return &CassandraRepository{
		session: session,
		logger:  log.New(os.Stdout, "[EVAL_RUN] ", log.LstdFlags),
	}
}

const upsertRunCQL = `
	INSERT INTO evaluation_runs (
		tenant_id, evaluation_id, projection_id, evaluator_name, trace_id,
		status, scheduled_at, started_at, completed_at,
		score, passed, label, cost_usd, error_message, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectRunCQL = `
	SELECT projection_id, evaluator_name, trace_id, status,
		   scheduled_at, started_at, completed_at,
		   score, passed, label, cost_usd, error_message, updated_at
	FROM evaluation_runs
	WHERE tenant_id = ? AND evaluation_id = ?
`

// Upsert writes the run's latest lifecycle state
func (r *CassandraRepository) Upsert(ctx context.Context, run *EvaluationRun) error {
	if run.TenantID == "" {
		return projection.ErrTenantRequired
	}
	if !run.Status.IsValid() {
		return ErrInvalidStatus
	}

	key := run.ProjectionID
	if key == "" {
		key = run.Key()
	}

	updatedAt := run.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	var passed *int8
	if run.Passed != nil {
		v := boolToInt8(*run.Passed)
		passed = &v
	}

	err := r.session.Query(upsertRunCQL,
		run.TenantID, run.EvaluationID, key, run.EvaluatorName, run.TraceID,
		string(run.Status), run.ScheduledAt, run.StartedAt, run.CompletedAt,
		run.Score, passed, run.Label, run.CostUSD, run.ErrorMessage, updatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		r.logger.Printf("Failed to upsert evaluation run: tenant=%s evaluation=%s: %v",
			run.TenantID, run.EvaluationID, err)
		return fmt.Errorf("failed to upsert evaluation run: %w", err)
	}

	return nil
}

// GetByEvaluationID returns the latest logical row for the evaluation,
// collapsing historical upserts by updated_at.
func (r *CassandraRepository) GetByEvaluationID(ctx context.Context, tenantID, evaluationID string) (*EvaluationRun, error) {
	if tenantID == "" {
		return nil, projection.ErrTenantRequired
	}

	iter := r.session.Query(selectRunCQL, tenantID, evaluationID).WithContext(ctx).Iter()

	var latest *EvaluationRun

	scanner := iter.Scanner()
	for scanner.Next() {
		var (
			projectionID, evaluatorName, traceID, status string
			scheduledAt, startedAt, completedAt          *time.Time
			score, costUSD                               *float64
			passed                                       *int8
			label, errorMessage                          *string
			updatedAt                                    time.Time
		)
		if err := scanner.Scan(&projectionID, &evaluatorName, &traceID, &status,
			&scheduledAt, &startedAt, &completedAt,
			&score, &passed, &label, &costUSD, &errorMessage, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation run: %w", err)
		}

		row := &EvaluationRun{
			TenantID:      tenantID,
			EvaluationID:  evaluationID,
			ProjectionID:  projectionID,
			EvaluatorName: evaluatorName,
			TraceID:       traceID,
			Status:        Status(status),
			ScheduledAt:   scheduledAt,
			StartedAt:     startedAt,
			CompletedAt:   completedAt,
			Score:         score,
			CostUSD:       costUSD,
			Label:         label,
			ErrorMessage:  errorMessage,
			UpdatedAt:     updatedAt,
		}
		if passed != nil {
			v := *passed != 0
			row.Passed = &v
		}

		if latest == nil || row.UpdatedAt.After(latest.UpdatedAt) {
			latest = row
		}
	}
	if err := scanner.Err(); err != nil {
		r.logger.Printf("Failed to read evaluation run: tenant=%s evaluation=%s: %v",
			tenantID, evaluationID, err)
		return nil, fmt.Errorf("failed to read evaluation run: %w", err)
	}

	if latest == nil {
		return nil, ErrRunNotFound
	}
	return latest, nil
}

func boolToInt8(v bool) int8 {
	if v {
		return 1
	}
	return 0
}
