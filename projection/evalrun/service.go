// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package evalrun

import (
	"context"
	"time"

	"tracelens/platform/projection"
	"tracelens/platform/shared/logger"
)

// Service fronts the evaluation run repository for the evaluation
// executor, adding validation and key derivation.
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService creates a new evaluation run service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		log:  logger.New("evalrun"),
	}
}

// Upsert stamps the deterministic projection key and persists the run's
// latest lifecycle state.
func (s *Service) Upsert(ctx context.Context, run *EvaluationRun) error {
	if run.TenantID == "" {
		return projection.ErrTenantRequired
	}
	if !run.Status.IsValid() {
		return ErrInvalidStatus
	}

	run.ProjectionID = run.Key()
	if run.UpdatedAt.IsZero() {
		run.UpdatedAt = time.Now().UTC()
	}

	if err := s.repo.Upsert(ctx, run); err != nil {
		s.log.ErrorWithErr(run.TenantID, run.EvaluationID, "failed to upsert evaluation run", err, nil)
		return err
	}
	return nil
}

// GetByEvaluationID returns the run for an evaluation id. Absence is a
// typed domain error; callers asking for a specific run expect a result.
func (s *Service) GetByEvaluationID(ctx context.Context, tenantID, evaluationID string) (*EvaluationRun, error) {
	if tenantID == "" {
		return nil, projection.ErrTenantRequired
	}
	return s.repo.GetByEvaluationID(ctx, tenantID, evaluationID)
}
