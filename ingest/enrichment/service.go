// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

// Package enrichment stamps tenant-specific per-token cost rates onto
// spans before they are persisted. Downstream aggregation reads the
// stamped attributes instead of re-resolving prices per query.
package enrichment

import (
	"context"

	"tracelens/platform/shared/logger"
	"tracelens/platform/shared/types"
)

// Attribute keys appended to enriched spans. Existing cost attributes are
// never overwritten, so aggregation can tell "override present" apart from
// default pricing.
const (
	AttrInputCostPerToken  = "tracelens.cost.input_per_token"
	AttrOutputCostPerToken = "tracelens.cost.output_per_token"
)

// modelAttributeKeys is checked in order; the first non-empty string value
// names the model for pricing purposes.
var modelAttributeKeys = []string{
	"gen_ai.request.model",
	"gen_ai.response.model",
	"llm.model_name",
	"ai.model.name",
	"model",
}

// Service enriches spans with tenant cost overrides
type Service struct {
	overrides OverrideRepository
	log       *logger.Logger
}

// NewService creates a new cost enrichment service
func NewService(overrides OverrideRepository) *Service {
	return &Service{
		overrides: overrides,
		log:       logger.New("enrichment"),
	}
}

// EnrichSpan looks up the span's model name and, when a tenant override
// matches it, appends per-token cost attributes in place. No model name,
// no overrides, and no match are all non-error outcomes leaving the span
// untouched.
func (s *Service) EnrichSpan(ctx context.Context, span *types.Span, tenantID string) error {
	model := extractModelName(span)
	if model == "" {
		return nil
	}

	overrides, err := s.overrides.GetOverrides(ctx, tenantID)
	if err != nil {
		s.log.ErrorWithErr(tenantID, span.TraceID, "failed to fetch cost overrides", err, nil)
		return err
	}
	if len(overrides) == 0 {
		return nil
	}

	match := FindMatch(overrides, model)
	if match == nil {
		return nil
	}

	span.AppendAttribute(types.DoubleAttr(AttrInputCostPerToken, match.InputPerToken))
	span.AppendAttribute(types.DoubleAttr(AttrOutputCostPerToken, match.OutputPerToken))
	return nil
}

// extractModelName returns the first non-empty model attribute, checking
// the candidate keys in a fixed order.
func extractModelName(span *types.Span) string {
	for _, key := range modelAttributeKeys {
		if v := span.AttributeString(key); v != "" {
			return v
		}
	}
	return ""
}
