// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package projection

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNamespacesAreProjectUnique(t *testing.T) {
	namespaces := []uuid.UUID{spanNamespace, summaryNamespace, evalNamespace}
	reserved := []uuid.UUID{uuid.NameSpaceDNS, uuid.NameSpaceURL, uuid.NameSpaceOID, uuid.NameSpaceX500}

	seen := map[uuid.UUID]bool{}
	for _, ns := range namespaces {
		assert.False(t, seen[ns], "namespaces must be distinct")
		seen[ns] = true
		for _, r := range reserved {
			assert.NotEqual(t, r, ns, "namespaces must not reuse the RFC 4122 reserved namespaces")
		}
	}
}

func TestSpanProjectionIDDeterministic(t *testing.T) {
	a := SpanProjectionID("tenant-1", "trace-1", "span-1")
	b := SpanProjectionID("tenant-1", "trace-1", "span-1")
	assert.Equal(t, a, b)
}

func TestSpanProjectionIDTenantIsolation(t *testing.T) {
	a := SpanProjectionID("tenant-a", "trace-1", "span-1")
	b := SpanProjectionID("tenant-b", "trace-1", "span-1")
	assert.NotEqual(t, a, b)
}

func TestSpanProjectionIDNoBoundaryCollision(t *testing.T) {
	// "ab"+"c" must not derive the same id as "a"+"bc"
	a := SpanProjectionID("t", "ab", "c")
	b := SpanProjectionID("t", "a", "bc")
	assert.NotEqual(t, a, b)
}

func TestTraceSummaryIDStableAcrossTimezones(t *testing.T) {
	occurred := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	loc := time.FixedZone("UTC+2", 2*3600)

	a := TraceSummaryID("tenant-1", "trace-1", occurred)
	b := TraceSummaryID("tenant-1", "trace-1", occurred.In(loc))
	assert.Equal(t, a, b)
}

func TestEvaluationRunIDWithoutSchedule(t *testing.T) {
	assert.Equal(t, "eval-42", EvaluationRunID("tenant-1", "eval-42", nil))
}

func TestEvaluationRunIDWithSchedule(t *testing.T) {
	scheduled := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	a := EvaluationRunID("tenant-1", "eval-42", &scheduled)
	b := EvaluationRunID("tenant-1", "eval-42", &scheduled)
	assert.Equal(t, a, b)
	assert.NotEqual(t, "eval-42", a)

	later := scheduled.Add(time.Hour)
	c := EvaluationRunID("tenant-1", "eval-42", &later)
	assert.NotEqual(t, a, c)
}
