// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package tracesummary

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
// store. A summary row is keyed by ((tenant_id, trace_id), projection_id);
// repeated upserts under the same deterministic key overwrite in place and
// reads merge historical rows down to the latest one.
type CassandraRepository struct {
	session *gocql.Session
	logger  *log.Logger
}

// NewCassandraRepository creates a new analytical-store summary repository
func NewCassandraRepository(session *gocql.Session) *CassandraRepository {
	return &CassandraRepository{
		session: session,
		logger:  log.New(os.Stdout, "[TRACE_SUMMARY] ", log.LstdFlags),
	}
}

const upsertSummaryCQL = `
	INSERT INTO trace_summaries (
		tenant_id, trace_id, projection_id, occurred_at,
		duration_ms, input_tokens, output_tokens, total_tokens,
		total_cost_usd, models, has_error, all_ok, annotated,
		satisfaction, topic, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectSummaryCQL = `
	SELECT projection_id, occurred_at, duration_ms,
		   input_tokens, output_tokens, total_tokens, total_cost_usd,
		   models, has_error, all_ok, annotated,
		   satisfaction, topic, updated_at
	FROM trace_summaries
	WHERE tenant_id = ? AND trace_id = ?
`

// Upsert writes the aggregate's latest state under its deterministic key
func (r *CassandraRepository) Upsert(ctx context.Context, summary *TraceSummary) error {
	if summary.TenantID == "" {
		return projection.ErrTenantRequired
	}

	key := summary.ProjectionID
	if key == "" {
		key = summary.Key()
	}

	updatedAt := summary.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	err := r.session.Query(upsertSummaryCQL,
		summary.TenantID, summary.TraceID, key, summary.OccurredAt,
		summary.DurationMs, summary.InputTokens, summary.OutputTokens, summary.TotalTokens,
		summary.TotalCostUSD, summary.Models,
		boolToInt8(summary.HasError), boolToInt8(summary.AllOk), boolToInt8(summary.Annotated),
		summary.Satisfaction, summary.Topic, updatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		r.logger.Printf("Failed to upsert trace summary: tenant=%s trace=%s: %v",
			summary.TenantID, summary.TraceID, err)
		return fmt.Errorf("failed to upsert trace summary: %w", err)
	}

	return nil
}

// GetByTraceID returns the latest logical row for (tenant, trace),
// collapsing historical upserts by updated_at.
func (r *CassandraRepository) GetByTraceID(ctx context.Context, tenantID, traceID string) (*TraceSummary, error) {
	if tenantID == "" {
		return nil, projection.ErrTenantRequired
	}

	iter := r.session.Query(selectSummaryCQL, tenantID, traceID).WithContext(ctx).Iter()

	var latest *TraceSummary

	var (
		projectionID                        string
		occurredAt, updatedAt               time.Time
		durationMs, inTok, outTok, totalTok int64
		models                              []string
		hasError, allOk, annotated          int8
	)

	scanner := iter.Scanner()
	for scanner.Next() {
		var costPtr *float64
		var satPtr, topicPtr *string
		if err := scanner.Scan(&projectionID, &occurredAt, &durationMs,
			&inTok, &outTok, &totalTok, &costPtr,
			&models, &hasError, &allOk, &annotated,
			&satPtr, &topicPtr, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trace summary: %w", err)
		}

		row := &TraceSummary{
			TenantID:     tenantID,
			TraceID:      traceID,
			ProjectionID: projectionID,
			OccurredAt:   occurredAt,
			DurationMs:   durationMs,
			InputTokens:  inTok,
			OutputTokens: outTok,
			TotalTokens:  totalTok,
			TotalCostUSD: costPtr,
			Models:       models,
			HasError:     hasError != 0,
			AllOk:        allOk != 0,
			Annotated:    annotated != 0,
			Satisfaction: satPtr,
			Topic:        topicPtr,
			UpdatedAt:    updatedAt,
		}
		models = nil

		if latest == nil || row.UpdatedAt.After(latest.UpdatedAt) {
			latest = row
		}
	}
	if err := scanner.Err(); err != nil {
		r.logger.Printf("Failed to read trace summary: tenant=%s trace=%s: %v", tenantID, traceID, err)
		return nil, fmt.Errorf("failed to read trace summary: %w", err)
	}

	if latest == nil {
		return nil, ErrSummaryNotFound
	}
	return latest, nil
}

func boolToInt8(v bool) int8 {
	if v {
		return 1
	}
	return 0
}
