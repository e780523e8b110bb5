// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tracelens/platform/license"
	"tracelens/platform/shared/logger"
	"tracelens/platform/tenant"
)

// FeatureBillingEvents switches a tenant's event counting from stored
// spans to the dedicated billing events stream. Checked live on every
// request, never cached.
const FeatureBillingEvents = "usage-metering:events-table"

var (
	usageCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracelens_usage_cache_lookups_total",
			Help: "Usage count cache lookups by result",
		},
		[]string{"result"},
	)
	usageCounts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracelens_usage_counts_total",
			Help: "Usage count dispatches by unit and backend",
		},
		[]string{"unit", "backend"},
	)
	usageLimitChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracelens_usage_limit_checks_total",
			Help: "Limit checks by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(usageCacheHits)
	prometheus.MustRegister(usageCounts)
	prometheus.MustRegister(usageLimitChecks)
}

// LimitResult is the outcome of a plan-ceiling check
type LimitResult struct {
	Exceeded bool
	Count    int64
	Limit    int64
	Unit     Unit
	Message  string
}

// Service answers usage questions for a team: how much of the metered
// unit the owning organization has consumed this month, and whether the
// plan ceiling is reached. Counts are summed across the organization's
// projects from the start of the current UTC month.
type Service struct {
	tenants          tenant.Store
	plans            license.Resolver
	counters         Counters
	cache            CountCache
	primaryAvailable bool
	log              *logger.Logger
	now              func() time.Time
}

// NewService creates a usage service. cache may be nil to disable
// caching; primaryAvailable reports whether the analytical store is
// configured.
func NewService(tenants tenant.Store, plans license.Resolver, counters Counters, cache CountCache, primaryAvailable bool) *Service {
	return &Service{
		tenants:          tenants,
		plans:            plans,
		counters:         counters,
		cache:            cache,
		primaryAvailable: primaryAvailable,
		log:              logger.New("usage-service"),
		now:              time.Now,
	}
}

// GetCurrentMonthCount returns the metered count for the team's
// organization since the start of the current UTC month, together with
// the metering decision that produced it.
func (s *Service) GetCurrentMonthCount(ctx context.Context, teamID string) (int64, Decision, error) {
	orgID, err := s.tenants.GetOrganizationIDByTeamID(ctx, teamID)
	if err != nil {
		return 0, Decision{}, fmt.Errorf("failed to resolve organization for team %s: %w", teamID, err)
	}
	if orgID == "" {
		return 0, Decision{}, tenant.ErrOrganizationNotFound
	}

	plan, err := s.plans.Resolve(ctx, orgID)
	if err != nil {
		return 0, Decision{}, fmt.Errorf("failed to resolve plan for organization %s: %w", orgID, err)
	}

	decision := s.resolveDecision(plan)
	count, err := s.countForOrg(ctx, orgID, decision)
	if err != nil {
		return 0, decision, err
	}
	return count, decision, nil
}

// CheckLimit reports whether the team's organization has reached its plan
// ceiling. The current count and the plan are fetched concurrently. The
// unrestricted self-hosted default plan never exceeds, whatever the
// count says.
func (s *Service) CheckLimit(ctx context.Context, teamID string) (*LimitResult, error) {
	orgID, err := s.tenants.GetOrganizationIDByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve organization for team %s: %w", teamID, err)
	}
	if orgID == "" {
		return nil, tenant.ErrOrganizationNotFound
	}

	var (
		wg       sync.WaitGroup
		plan     *license.Plan
		planErr  error
		count    int64
		decision Decision
		countErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		plan, planErr = s.plans.Resolve(ctx, orgID)
	}()
	go func() {
		defer wg.Done()
		// The counting side resolves the plan itself to derive the
		// metering decision; resolvers are cheap and idempotent.
		countPlan, err := s.plans.Resolve(ctx, orgID)
		if err != nil {
			countErr = err
			return
		}
		decision = s.resolveDecision(countPlan)
		count, countErr = s.countForOrg(ctx, orgID, decision)
	}()
	wg.Wait()

	if planErr != nil {
		return nil, fmt.Errorf("failed to resolve plan for organization %s: %w", orgID, planErr)
	}
	if countErr != nil {
		return nil, countErr
	}

	result := &LimitResult{
		Count: count,
		Limit: plan.MaxUsagePerMonth,
		Unit:  decision.UsageUnit,
	}

	if plan.SelfHostedDefault {
		usageLimitChecks.WithLabelValues("unlimited").Inc()
		return result, nil
	}

	if count >= plan.MaxUsagePerMonth {
		result.Exceeded = true
		result.Message = fmt.Sprintf("Monthly limit of %d %s reached", plan.MaxUsagePerMonth, decision.UsageUnit)
		usageLimitChecks.WithLabelValues("exceeded").Inc()
		s.log.Warn(orgID, "", "monthly usage limit reached", map[string]interface{}{
			"count": count,
			"limit": plan.MaxUsagePerMonth,
			"unit":  string(decision.UsageUnit),
		})
	} else {
		usageLimitChecks.WithLabelValues("within").Inc()
	}
	return result, nil
}

// resolveDecision runs the metering policy against the plan and the
// configured backend availability
func (s *Service) resolveDecision(plan *license.Plan) Decision {
	return ResolveUsageMeter(ResolveInput{
		PricingModel:            plan.Type,
		LicenseUsageUnit:        plan.UsageUnit,
		HasValidLicenseOverride: plan.Overridden,
		BackendAvailable:        s.primaryAvailable,
	})
}

// countForOrg returns the organization's month-to-date count for the
// decision's unit, consulting the cache before dispatching to a backend.
func (s *Service) countForOrg(ctx context.Context, orgID string, decision Decision) (int64, error) {
	if s.cache != nil {
		if count, ok := s.cache.Get(ctx, orgID, decision.UsageUnit); ok {
			usageCacheHits.WithLabelValues("hit").Inc()
			return count, nil
		}
		usageCacheHits.WithLabelValues("miss").Inc()
	}

	projectIDs, err := s.tenants.GetProjectIDs(ctx, orgID)
	if err != nil {
		return 0, fmt.Errorf("failed to list projects for organization %s: %w", orgID, err)
	}
	if len(projectIDs) == 0 {
		if s.cache != nil {
			s.cache.Set(ctx, orgID, decision.UsageUnit, 0)
		}
		return 0, nil
	}

	counter, err := s.selectCounter(ctx, orgID, decision)
	if err != nil {
		return 0, err
	}

	since := monthStart(s.now().UTC())
	total, err := s.sumProjects(ctx, counter, projectIDs, since)
	if err != nil {
		return 0, err
	}

	usageCounts.WithLabelValues(string(decision.UsageUnit), string(decision.Backend)).Inc()
	if s.cache != nil {
		s.cache.Set(ctx, orgID, decision.UsageUnit, total)
	}
	return total, nil
}

// selectCounter picks the counting backend for the decision. Tenants with
// the billing-events feature count events from the dedicated stream.
func (s *Service) selectCounter(ctx context.Context, orgID string, decision Decision) (Counter, error) {
	if decision.UsageUnit == UnitEvents && s.counters.BillingEvents != nil {
		feature, err := s.tenants.GetFeature(ctx, orgID, FeatureBillingEvents)
		if err != nil {
			return nil, fmt.Errorf("failed to check feature %s for organization %s: %w", FeatureBillingEvents, orgID, err)
		}
		if feature.Enabled(s.now().UTC()) {
			return s.counters.BillingEvents, nil
		}
	}

	var counter Counter
	switch {
	case decision.UsageUnit == UnitEvents && decision.Backend == BackendPrimary:
		counter = s.counters.EventsPrimary
	case decision.UsageUnit == UnitEvents:
		counter = s.counters.EventsFallback
	case decision.Backend == BackendPrimary:
		counter = s.counters.TracesPrimary
	default:
		counter = s.counters.TracesFallback
	}
	if counter == nil {
		return nil, fmt.Errorf("no counter configured for %s on %s backend", decision.UsageUnit, decision.Backend)
	}
	return counter, nil
}

// sumProjects counts each project concurrently and sums the results. The
// first error wins; remaining counts are discarded.
func (s *Service) sumProjects(ctx context.Context, counter Counter, projectIDs []string, since time.Time) (int64, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		total    int64
		firstErr error
	)

	for _, projectID := range projectIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			count, err := counter.CountForProject(ctx, id, since)
			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("failed to count usage for project %s: %w", id, err)
				return
			}
			total += count
		}(projectID)
	}
	wg.Wait()

	if firstErr != nil {
		return 0, firstErr
	}
	return total, nil
}

// monthStart truncates t to the first instant of its month
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
