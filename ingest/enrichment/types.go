// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package enrichment

import (
	"regexp"
)

// CostOverride is a tenant-specific price override. MatchPattern, when
// set, takes precedence over exact MatchModel equality.
type CostOverride struct {
	ID           string
	MatchModel   string
	MatchPattern string
	// Per-token USD rates stamped onto matching spans
	InputPerToken  float64
	OutputPerToken float64
}

// Matches reports whether the override applies to the given model name.
// An invalid pattern never matches; a broken override row must not take
// down ingestion.
func (o *CostOverride) Matches(model string) bool {
	if o.MatchPattern != "" {
		re, err := regexp.Compile(o.MatchPattern)
		if err != nil {
			return false
		}
		return re.MatchString(model)
	}
	return o.MatchModel != "" && o.MatchModel == model
}

// FindMatch returns the first override matching the model name, or nil.
func FindMatch(overrides []CostOverride, model string) *CostOverride {
	for i := range overrides {
		if overrides[i].Matches(model) {
			return &overrides[i]
		}
	}
	return nil
}
