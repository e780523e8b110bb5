// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

// Package redaction scrubs personal data from normalized spans before they
// reach storage. Only a fixed allow-list of attribute keys is scanned; the
// matching values are redacted in place through the external PII-detection
// backend.
package redaction

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"tracelens/platform/shared/logger"
	"tracelens/platform/shared/types"
)

// Level is a tenant's redaction level
type Level string

const (
	// LevelDisabled turns redaction off for the tenant
	LevelDisabled Level = "DISABLED"
	// LevelStandard redacts the allow-listed attribute keys
	LevelStandard Level = "STANDARD"
)

// ErrDetectorUnavailable is returned in production when redaction is
// required but no detection backend is configured. Data must not flow
// unredacted to storage there; outside production the span is passed
// through unmodified instead.
var ErrDetectorUnavailable = errors.New("pii detection backend is not configured")

var (
	promAttributesScanned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracelens_redaction_attributes_scanned_total",
		Help: "Total number of allow-listed attributes dispatched for redaction",
	})
	promSpansSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracelens_redaction_spans_skipped_total",
		Help: "Total number of spans that bypassed redaction",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(promAttributesScanned)
	prometheus.MustRegister(promSpansSkipped)
}

// Config controls redaction behavior for a deployment
type Config struct {
	// GloballyDisabled switches redaction off for the whole deployment
	GloballyDisabled bool
	// Production enforces redaction: an unconfigured detector becomes an
	// error instead of a silent skip
	Production bool
}

// Service redacts personal data on spans in place
type Service struct {
	detector Detector // nil means the backend is not configured
	cfg      Config
	log      *logger.Logger
}

// NewService creates a redaction service. A nil detector marks the
// backend as unconfigured.
func NewService(detector Detector, cfg Config) *Service {
	return &Service{
		detector: detector,
		cfg:      cfg,
		log:      logger.New("redaction"),
	}
}

// RedactSpan scans the allow-listed attribute keys on the span, its
// events, and its links, and replaces detected personal data in place.
// One detector call is dispatched per matching string attribute and all of
// them are awaited together; each call targets a disjoint attribute, so
// ordering between them does not matter.
func (s *Service) RedactSpan(ctx context.Context, tenantID string, span *types.Span, level Level) error {
	if s.cfg.GloballyDisabled {
		promSpansSkipped.WithLabelValues("globally_disabled").Inc()
		return nil
	}
	if level == LevelDisabled {
		promSpansSkipped.WithLabelValues("tenant_disabled").Inc()
		return nil
	}

	if s.detector == nil {
		if s.cfg.Production {
			return ErrDetectorUnavailable
		}
		promSpansSkipped.WithLabelValues("detector_unconfigured").Inc()
		s.log.Debug(tenantID, span.TraceID, "pii backend not configured, skipping redaction", nil)
		return nil
	}

	targets := collectTargets(span)
	if len(targets) == 0 {
		return nil
	}
	promAttributesScanned.Add(float64(len(targets)))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, target := range targets {
		wg.Add(1)
		go func(value *string) {
			defer wg.Done()
			redacted, err := s.detector.Redact(ctx, *value)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			*value = redacted
		}(target)
	}
	wg.Wait()

	if firstErr != nil {
		s.log.ErrorWithErr(tenantID, span.TraceID, "redaction failed", firstErr, nil)
		return firstErr
	}
	return nil
}

// collectTargets gathers pointers to the string values of allow-listed
// attributes across the span's own attributes, every event, and every
// link. Pointers alias the span so redacted values land in place.
func collectTargets(span *types.Span) []*string {
	var targets []*string

	gather := func(attrs []types.KeyValue) {
		for i := range attrs {
			kv := &attrs[i]
			if kv.Value.StringValue != nil && isScanned(kv.Key) {
				targets = append(targets, kv.Value.StringValue)
			}
		}
	}

	gather(span.Attributes)
	for i := range span.Events {
		gather(span.Events[i].Attributes)
	}
	for i := range span.Links {
		gather(span.Links[i].Attributes)
	}

	return targets
}
