// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package evalrun

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracelens/platform/projection"
)

// MockRepository implements Repository for testing
type MockRepository struct {
	rows map[string]*EvaluationRun
}

func NewMockRepository() *MockRepository {
	return &MockRepository{rows: make(map[string]*EvaluationRun)}
}

func (m *MockRepository) Upsert(ctx context.Context, run *EvaluationRun) error {
	if run.TenantID == "" {
		return projection.ErrTenantRequired
	}
	cp := *run
	m.rows[run.TenantID+"/"+run.ProjectionID] = &cp
	return nil
}

func (m *MockRepository) GetByEvaluationID(ctx context.Context, tenantID, evaluationID string) (*EvaluationRun, error) {
	if tenantID == "" {
		return nil, projection.ErrTenantRequired
	}
	var latest *EvaluationRun
	for _, row := range m.rows {
		if row.TenantID == tenantID && row.EvaluationID == evaluationID {
			if latest == nil || row.UpdatedAt.After(latest.UpdatedAt) {
				latest = row
			}
		}
	}
	if latest == nil {
		return nil, ErrRunNotFound
	}
	return latest, nil
}

func scheduledRun() *EvaluationRun {
	scheduled := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	return &EvaluationRun{
		TenantID:      "tenant-1",
		EvaluationID:  "eval-1",
		EvaluatorName: "toxicity",
		TraceID:       "trace-1",
		Status:        StatusScheduled,
		ScheduledAt:   &scheduled,
	}
}

func TestUpsertRequiresTenant(t *testing.T) {
	svc := NewService(NewMockRepository())
	run := scheduledRun()
	run.TenantID = ""

	assert.ErrorIs(t, svc.Upsert(context.Background(), run), projection.ErrTenantRequired)
}

func TestUpsertRejectsUnknownStatus(t *testing.T) {
	svc := NewService(NewMockRepository())
	run := scheduledRun()
	run.Status = Status("finished")

	assert.ErrorIs(t, svc.Upsert(context.Background(), run), ErrInvalidStatus)
}

func TestLifecycleUpsertsConvergeToOneRow(t *testing.T) {
	repo := NewMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	run := scheduledRun()
	run.UpdatedAt = time.Date(2025, 3, 14, 9, 0, 1, 0, time.UTC)
	require.NoError(t, svc.Upsert(ctx, run))

	score := 0.92
	passed := true
	done := scheduledRun()
	done.Status = StatusProcessed
	done.Score = &score
	done.Passed = &passed
	done.UpdatedAt = time.Date(2025, 3, 14, 9, 0, 5, 0, time.UTC)
	require.NoError(t, svc.Upsert(ctx, done))

	assert.Len(t, repo.rows, 1)

	got, err := svc.GetByEvaluationID(ctx, "tenant-1", "eval-1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, got.Status)
	require.NotNil(t, got.Score)
	assert.Equal(t, 0.92, *got.Score)
}

func TestKeyFallsBackToEvaluationIDWithoutSchedule(t *testing.T) {
	repo := NewMockRepository()
	svc := NewService(repo)

	run := scheduledRun()
	run.ScheduledAt = nil
	require.NoError(t, svc.Upsert(context.Background(), run))

	assert.Equal(t, "eval-1", run.ProjectionID)
}

func TestGetByEvaluationIDNotFound(t *testing.T) {
	svc := NewService(NewMockRepository())

	_, err := svc.GetByEvaluationID(context.Background(), "tenant-1", "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestNoopRepositoryBehavior(t *testing.T) {
	repo := NewNoopRepository()

	assert.ErrorIs(t, repo.Upsert(context.Background(), &EvaluationRun{}), projection.ErrTenantRequired)
	assert.NoError(t, repo.Upsert(context.Background(), scheduledRun()))

	_, err := repo.GetByEvaluationID(context.Background(), "tenant-1", "eval-1")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
