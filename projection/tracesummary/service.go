// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package tracesummary

import (
	"context"
	"time"

	"tracelens/platform/projection"
	"tracelens/platform/shared/logger"
)

// Service fronts the trace summary repository for the event pipeline and
// read path, adding validation and key derivation.
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService creates a new trace summary service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		log:  logger.New("tracesummary"),
	}
}

// Upsert stamps the deterministic projection key and persists the latest
// aggregate state. Safe to call repeatedly for the same logical trace.
func (s *Service) Upsert(ctx context.Context, summary *TraceSummary) error {
	if summary.TenantID == "" {
		return projection.ErrTenantRequired
	}

	summary.ProjectionID = summary.Key()
	if summary.UpdatedAt.IsZero() {
		summary.UpdatedAt = time.Now().UTC()
	}

	if err := s.repo.Upsert(ctx, summary); err != nil {
		s.log.ErrorWithErr(summary.TenantID, summary.TraceID, "failed to upsert trace summary", err, nil)
		return err
	}
	return nil
}

// GetByTraceID returns the summary for a trace. A summary is promised to
// exist for any ingested trace, so absence is a typed domain error.
func (s *Service) GetByTraceID(ctx context.Context, tenantID, traceID string) (*TraceSummary, error) {
	if tenantID == "" {
		return nil, projection.ErrTenantRequired
	}
	return s.repo.GetByTraceID(ctx, tenantID, traceID)
}
