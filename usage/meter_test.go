// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUsageUnit(t *testing.T) {
	tests := []struct {
		raw  string
		want Unit
	}{
		{"EVENT", UnitEvents},
		{"events", UnitEvents},
		{" event ", UnitEvents},
		{"Events", UnitEvents},
		{"traces", UnitTraces},
		{"trace", UnitTraces},
		{"", UnitTraces},
		{"observations", UnitTraces},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeUsageUnit(tt.raw))
		})
	}
}

func TestResolveUsageMeter(t *testing.T) {
	tests := []struct {
		name        string
		in          ResolveInput
		wantUnit    Unit
		wantBackend Backend
	}{
		{
			name:        "license override wins over pricing model",
			in:          ResolveInput{PricingModel: PricingModelCloudEvents, LicenseUsageUnit: "traces", HasValidLicenseOverride: true, BackendAvailable: true},
			wantUnit:    UnitTraces,
			wantBackend: BackendPrimary,
		},
		{
			name:        "license override normalizes singular unit",
			in:          ResolveInput{LicenseUsageUnit: "EVENT", HasValidLicenseOverride: true, BackendAvailable: true},
			wantUnit:    UnitEvents,
			wantBackend: BackendPrimary,
		},
		{
			name:        "license override with unrecognized unit counts traces",
			in:          ResolveInput{LicenseUsageUnit: "widgets", HasValidLicenseOverride: true, BackendAvailable: true},
			wantUnit:    UnitTraces,
			wantBackend: BackendPrimary,
		},
		{
			name:        "invalid override falls back to pricing model",
			in:          ResolveInput{PricingModel: PricingModelCloudEvents, LicenseUsageUnit: "events", HasValidLicenseOverride: false, BackendAvailable: true},
			wantUnit:    UnitEvents,
			wantBackend: BackendPrimary,
		},
		{
			name:        "events pricing model counts events",
			in:          ResolveInput{PricingModel: PricingModelCloudEvents, BackendAvailable: true},
			wantUnit:    UnitEvents,
			wantBackend: BackendPrimary,
		},
		{
			name:        "other pricing model counts traces",
			in:          ResolveInput{PricingModel: "cloud:pro", BackendAvailable: true},
			wantUnit:    UnitTraces,
			wantBackend: BackendPrimary,
		},
		{
			name:        "unset pricing model counts traces",
			in:          ResolveInput{BackendAvailable: true},
			wantUnit:    UnitTraces,
			wantBackend: BackendPrimary,
		},
		{
			name:        "unavailable backend selects fallback independent of unit",
			in:          ResolveInput{PricingModel: PricingModelCloudEvents, BackendAvailable: false},
			wantUnit:    UnitEvents,
			wantBackend: BackendFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveUsageMeter(tt.in)
			assert.Equal(t, tt.wantUnit, got.UsageUnit)
			assert.Equal(t, tt.wantBackend, got.Backend)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestResolveUsageMeterIsDeterministic(t *testing.T) {
	in := ResolveInput{PricingModel: "cloud:pro", LicenseUsageUnit: "events", HasValidLicenseOverride: true, BackendAvailable: true}

	first := ResolveUsageMeter(in)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, ResolveUsageMeter(in))
	}
}

func TestResolveUsageMeterReasonNamesSources(t *testing.T) {
	withLicense := ResolveUsageMeter(ResolveInput{LicenseUsageUnit: "events", HasValidLicenseOverride: true, BackendAvailable: true})
	assert.Contains(t, withLicense.Reason, "license override")

	withPricing := ResolveUsageMeter(ResolveInput{PricingModel: "cloud:pro", BackendAvailable: false})
	assert.Contains(t, withPricing.Reason, "cloud:pro")
	assert.Contains(t, withPricing.Reason, "fallback")
}
