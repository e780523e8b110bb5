// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

// Package usage implements the usage-metering decision layer: a pure
// policy that selects the counting unit and backend per tenant, and the
// service that resolves tenants, dispatches to counting backends, caches
// totals, and checks plan ceilings.
package usage

import (
	"fmt"
	"strings"
)

// Unit is the quantity counted against a plan ceiling
type Unit string

const (
	// UnitTraces counts request-level traces
	UnitTraces Unit = "traces"
	// UnitEvents counts billable events
	UnitEvents Unit = "events"
)

// Backend identifies the counting store
type Backend string

const (
	// BackendPrimary is the columnar analytical store
	BackendPrimary Backend = "primary"
	// BackendFallback is the document search store
	BackendFallback Backend = "fallback"
)

// PricingModelCloudEvents is the one pricing model that implies
// event-level counting; every other model counts traces.
const PricingModelCloudEvents = "cloud:events"

// ResolveInput carries everything the metering policy needs. The caller
// supplies these from live lookups; the policy itself performs no I/O.
type ResolveInput struct {
	PricingModel            string
	LicenseUsageUnit        string
	HasValidLicenseOverride bool
	BackendAvailable        bool
}

// Decision is the metering policy output. It is a pure value, recomputed
// per request and never persisted. Reason is for operators, never parsed.
type Decision struct {
	UsageUnit Unit
	Backend   Backend
	Reason    string
}

// NormalizeUsageUnit maps free-form unit strings to the canonical unit.
// Singular and upper-case event variants normalize to UnitEvents;
// anything unrecognized defaults to the trace-counting unit.
func NormalizeUsageUnit(raw string) Unit {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "event", "events":
		return UnitEvents
	default:
		return UnitTraces
	}
}

// ResolveUsageMeter decides the counting unit and backend for a tenant.
// Precedence: a valid license override naming a unit wins; otherwise the
// unit derives from the pricing model. Backend selection is independent
// of unit selection: the primary analytical store when available, else
// the document search fallback.
func ResolveUsageMeter(in ResolveInput) Decision {
	var (
		unit   Unit
		source string
	)

	switch {
	case in.HasValidLicenseOverride && in.LicenseUsageUnit != "":
		unit = NormalizeUsageUnit(in.LicenseUsageUnit)
		source = "license override"
	case in.PricingModel == PricingModelCloudEvents:
		unit = UnitEvents
		source = fmt.Sprintf("pricing model %q", in.PricingModel)
	default:
		unit = UnitTraces
		if in.PricingModel != "" {
			source = fmt.Sprintf("pricing model %q", in.PricingModel)
		} else {
			source = "default (no pricing model)"
		}
	}

	backend := BackendPrimary
	if !in.BackendAvailable {
		backend = BackendFallback
	}

	return Decision{
		UsageUnit: unit,
		Backend:   backend,
		Reason:    fmt.Sprintf("counting %s from %s on %s backend", unit, source, backend),
	}
}
