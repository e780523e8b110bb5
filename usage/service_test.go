// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package usage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracelens/platform/license"
	"tracelens/platform/tenant"
)

// mockTenantStore is a hand-rolled tenant.Store for service tests
type mockTenantStore struct {
	orgByTeam map[string]string
	projects  map[string][]string
	features  map[string]*tenant.Feature

	featureCalls int
}

func (m *mockTenantStore) GetOrganizationIDByTeamID(ctx context.Context, teamID string) (string, error) {
	return m.orgByTeam[teamID], nil
}

func (m *mockTenantStore) GetProjectIDs(ctx context.Context, orgID string) ([]string, error) {
	return m.projects[orgID], nil
}

func (m *mockTenantStore) GetFeature(ctx context.Context, orgID, name string) (*tenant.Feature, error) {
	m.featureCalls++
	return m.features[orgID+"/"+name], nil
}

// mockCounter returns a fixed count per project and records calls
type mockCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
	calls  int
}

func (m *mockCounter) CountForProject(ctx context.Context, projectID string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls += 1
	if m.err != nil {
		return 0, m.err
	}
	return m.counts[projectID], nil
}

func (m *mockCounter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func cloudPlan(ceiling int64) *license.Plan {
	return &license.Plan{
		Name:             "cloud-pro",
		Type:             "cloud:traces",
		MaxUsagePerMonth: ceiling,
	}
}

func newTestService(store tenant.Store, plan *license.Plan, counters Counters, cache CountCache, primaryAvailable bool) *Service {
	return NewService(store, license.NewStaticResolver(plan), counters, cache, primaryAvailable)
}

func TestCheckLimitExceededAtCeiling(t *testing.T) {
	store := &mockTenantStore{
		orgByTeam: map[string]string{"team-1": "org-1"},
		projects:  map[string][]string{"org-1": {"proj-1"}},
	}
	counter := &mockCounter{counts: map[string]int64{"proj-1": 1000}}
	svc := newTestService(store, cloudPlan(1000), Counters{TracesPrimary: counter}, nil, true)

	result, err := svc.CheckLimit(context.Background(), "team-1")
	require.NoError(t, err)
	assert.True(t, result.Exceeded)
	assert.Equal(t, int64(1000), result.Count)
	assert.Equal(t, int64(1000), result.Limit)
	assert.Equal(t, "Monthly limit of 1000 traces reached", result.Message)
}

func TestCheckLimitWithinCeiling(t *testing.T) {
	store := &mockTenantStore{
		orgByTeam: map[string]string{"team-1": "org-1"},
		projects:  map[string][]string{"org-1": {"proj-1"}},
	}
	counter := &mockCounter{counts: map[string]int64{"proj-1": 500}}
	svc := newTestService(store, cloudPlan(1000), Counters{TracesPrimary: counter}, nil, true)

	result, err := svc.CheckLimit(context.Background(), "team-1")
	require.NoError(t, err)
	assert.False(t, result.Exceeded)
	assert.Equal(t, int64(500), result.Count)
	assert.Empty(t, result.Message)
}

func TestCheckLimitSelfHostedNeverExceeds(t *testing.T) {
	store := &mockTenantStore{
		orgByTeam: map[string]string{"team-1": "org-1"},
		projects:  map[string][]string{"org-1": {"proj-1"}},
	}
	counter := &mockCounter{counts: map[string]int64{"proj-1": 5000}}
	svc := newTestService(store, license.DefaultSelfHostedPlan(), Counters{TracesPrimary: counter}, nil, true)

	result, err := svc.CheckLimit(context.Background(), "team-1")
	require.NoError(t, err)
	assert.False(t, result.Exceeded)
	assert.Equal(t, int64(5000), result.Count)
}

func TestGetCurrentMonthCountSumsProjects(t *testing.T) {
	store := &mockTenantStore{
		orgByTeam: map[string]string{"team-1": "org-1"},
		projects:  map[string][]string{"org-1": {"proj-1", "proj-2", "proj-3"}},
	}
	counter := &mockCounter{counts: map[string]int64{"proj-1": 100, "proj-2": 250, "proj-3": 7}}
	svc := newTestService(store, cloudPlan(1000), Counters{TracesPrimary: counter}, nil, true)

	count, decision, err := svc.GetCurrentMonthCount(context.Background(), "team-1")
	require.NoError(t, err)
	assert.Equal(t, int64(357), count)
	assert.Equal(t, UnitTraces, decision.UsageUnit)
	assert.Equal(t, BackendPrimary, decision.Backend)
	assert.Equal(t, 3, counter.callCount())
}

func TestGetCurrentMonthCountUnknownTeam(t *testing.T) {
	store := &mockTenantStore{orgByTeam: map[string]string{}}
	svc := newTestService(store, cloudPlan(1000), Counters{}, nil, true)

	_, _, err := svc.GetCurrentMonthCount(context.Background(), "nope")
	assert.ErrorIs(t, err, tenant.ErrOrganizationNotFound)
}

func TestGetCurrentMonthCountZeroProjectsSkipsBackend(t *testing.T) {
	store := &mockTenantStore{
		orgByTeam: map[string]string{"team-1": "org-1"},
		projects:  map[string][]string{},
	}
	counter := &mockCounter{}
	svc := newTestService(store, cloudPlan(1000), Counters{TracesPrimary: counter}, nil, true)

	count, _, err := svc.GetCurrentMonthCount(context.Background(), "team-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, 0, counter.callCount())
}

func TestGetCurrentMonthCountCacheHitSkipsBackend(t *testing.T) {
	store := &mockTenantStore{
		orgByTeam: map[string]string{"team-1": "org-1"},
		projects:  map[string][]string{"org-1": {"proj-1"}},
	}
	counter := &mockCounter{counts: map[string]int64{"proj-1": 42}}
	cache := NewMemoryCache(DefaultCacheTTL)
	svc := newTestService(store, cloudPlan(1000), Counters{TracesPrimary: counter}, cache, true)

	first, _, err := svc.GetCurrentMonthCount(context.Background(), "team-1")
	require.NoError(t, err)
	second, _, err := svc.GetCurrentMonthCount(context.Background(), "team-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, counter.callCount())
}

func TestGetCurrentMonthCountEventsUnitFromPricingModel(t *testing.T) {
	store := &mockTenantStore{
		orgByTeam: map[string]string{"team-1": "org-1"},
		projects:  map[string][]string{"org-1": {"proj-1"}},
	}
	traces := &mockCounter{counts: map[string]int64{"proj-1": 1}}
	events := &mockCounter{counts: map[string]int64{"proj-1": 9000}}
	plan := &license.Plan{Name: "cloud-events", Type: PricingModelCloudEvents, MaxUsagePerMonth: 100000}
	svc := newTestService(store, plan, Counters{TracesPrimary: traces, EventsPrimary: events}, nil, true)

	count, decision, err := svc.GetCurrentMonthCount(context.Background(), "team-1")
	require.NoError(t, err)
	assert.Equal(t, UnitEvents, decision.UsageUnit)
	assert.Equal(t, int64(9000), count)
	assert.Equal(t, 0, traces.callCount())
}

func TestGetCurrentMonthCountFallbackBackend(t *testing.T) {
	store := &mockTenantStore{
		orgByTeam: map[string]string{"team-1": "org-1"},
		projects:  map[string][]string{"org-1": {"proj-1"}},
	}
	primary := &mockCounter{counts: map[string]int64{"proj-1": 1}}
	fallback := &mockCounter{counts: map[string]int64{"proj-1": 77}}
	svc := newTestService(store, cloudPlan(1000),
		Counters{TracesPrimary: primary, TracesFallback: fallback}, nil, false)

	count, decision, err := svc.GetCurrentMonthCount(context.Background(), "team-1")
	require.NoError(t, err)
	assert.Equal(t, BackendFallback, decision.Backend)
	assert.Equal(t, int64(77), count)
	assert.Equal(t, 0, primary.callCount())
}

func TestGetCurrentMonthCountBillingEventsFeature(t *testing.T) {
	store := &mockTenantStore{
		orgByTeam: map[string]string{"team-1": "org-1"},
		projects:  map[string][]string{"org-1": {"proj-1"}},
		features: map[string]*tenant.Feature{
			"org-1/" + FeatureBillingEvents: {Name: FeatureBillingEvents},
		},
	}
	events := &mockCounter{counts: map[string]int64{"proj-1": 10}}
	billing := &mockCounter{counts: map[string]int64{"proj-1": 3}}
	plan := &license.Plan{Name: "cloud-events", Type: PricingModelCloudEvents, MaxUsagePerMonth: 100000}
	svc := newTestService(store, plan,
		Counters{EventsPrimary: events, BillingEvents: billing}, nil, true)

	count, _, err := svc.GetCurrentMonthCount(context.Background(), "team-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, 0, events.callCount())
	assert.Equal(t, 1, store.featureCalls)
}

func TestGetCurrentMonthCountExpiredFeatureFallsBack(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	store := &mockTenantStore{
		orgByTeam: map[string]string{"team-1": "org-1"},
		projects:  map[string][]string{"org-1": {"proj-1"}},
		features: map[string]*tenant.Feature{
			"org-1/" + FeatureBillingEvents: {Name: FeatureBillingEvents, TrialEndsAt: &past},
		},
	}
	events := &mockCounter{counts: map[string]int64{"proj-1": 10}}
	billing := &mockCounter{counts: map[string]int64{"proj-1": 3}}
	plan := &license.Plan{Name: "cloud-events", Type: PricingModelCloudEvents, MaxUsagePerMonth: 100000}
	svc := newTestService(store, plan,
		Counters{EventsPrimary: events, BillingEvents: billing}, nil, true)

	count, _, err := svc.GetCurrentMonthCount(context.Background(), "team-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)
	assert.Equal(t, 0, billing.callCount())
}

func TestGetCurrentMonthCountCounterError(t *testing.T) {
	store := &mockTenantStore{
		orgByTeam: map[string]string{"team-1": "org-1"},
		projects:  map[string][]string{"org-1": {"proj-1", "proj-2"}},
	}
	counter := &mockCounter{err: errors.New("store unreachable")}
	svc := newTestService(store, cloudPlan(1000), Counters{TracesPrimary: counter}, nil, true)

	_, _, err := svc.GetCurrentMonthCount(context.Background(), "team-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store unreachable")
}
