// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package spanstore

import (
	"context"
	"errors"
	"time"

	"tracelens/platform/projection"
	"tracelens/platform/shared/logger"
	"tracelens/platform/shared/types"
)

// Service is the entry point other subsystems use for span storage. It
// never talks to the analytical store directly; the repository selected at
// startup (real or no-op) decides what a write means.
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService creates a new span storage service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		log:  logger.New("spanstore"),
	}
}

// StoreSpan maps a normalized span to its row shape and persists it.
// Store failures propagate so the event pipeline can redeliver.
func (s *Service) StoreSpan(ctx context.Context, tenantID string, span *types.Span) error {
	if tenantID == "" {
		return projection.ErrTenantRequired
	}

	start := time.Now()
	if err := s.repo.InsertSpan(ctx, FromSpan(tenantID, span)); err != nil {
		return err
	}
	s.log.InfoWithDuration(tenantID, span.TraceID, "stored span",
		float64(time.Since(start).Milliseconds()),
		map[string]interface{}{"span_id": span.SpanID})
	return nil
}

// GetSpansByTraceID returns the spans recorded for a trace, reconstituted
// into the domain shape. A trace with no spans yet is not an error; the
// not-found repository result translates to an empty list.
func (s *Service) GetSpansByTraceID(ctx context.Context, tenantID, traceID string) ([]*types.Span, error) {
	if tenantID == "" {
		return nil, projection.ErrTenantRequired
	}

	rows, err := s.repo.GetSpansByTraceID(ctx, tenantID, traceID)
	if errors.Is(err, ErrSpanNotFound) {
		return []*types.Span{}, nil
	}
	if err != nil {
		return nil, err
	}

	spans := make([]*types.Span, 0, len(rows))
	for i := range rows {
		spans = append(spans, rows[i].ToSpan())
	}
	return spans, nil
}
