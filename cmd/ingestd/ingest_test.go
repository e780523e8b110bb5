// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracelens/platform/archive"
	"tracelens/platform/ingest/enrichment"
	"tracelens/platform/ingest/redaction"
	"tracelens/platform/projection/evalrun"
	"tracelens/platform/projection/spanstore"
	"tracelens/platform/projection/tracesummary"
)

func newTestRouter() *mux.Router {
	h := newIngestHandler(
		archive.NewNoopArchiver(),
		redaction.NewService(nil, redaction.Config{}),
		enrichment.NewService(enrichment.NewNoopOverrideRepository()),
		spanstore.NewService(spanstore.NewNoopRepository()),
		tracesummary.NewService(tracesummary.NewNoopRepository()),
		evalrun.NewService(evalrun.NewNoopRepository()),
	)
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postSpans(t *testing.T, r *mux.Router, tenantID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/spans", strings.NewReader(body))
	if tenantID != "" {
		req.Header.Set("X-Tenant-ID", tenantID)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestIngestSpansAcceptsBatch(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	body := `{"spans":[{"trace_id":"t1","span_id":"s1","name":"llm-call",` +
		`"start_time":"` + start.Format(time.RFC3339) + `",` +
		`"end_time":"` + start.Add(time.Second).Format(time.RFC3339) + `"}]}`

	rec := postSpans(t, newTestRouter(), "tenant-1", body)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accepted":1`)
}

func TestIngestSpansRejectsNullSpan(t *testing.T) {
	rec := postSpans(t, newTestRouter(), "tenant-1", `{"spans":[null]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Null span")
}

func TestIngestSpansRejectsNullAmongValidSpans(t *testing.T) {
	body := `{"spans":[{"trace_id":"t1","span_id":"s1","name":"a",` +
		`"start_time":"2025-06-01T12:00:00Z","end_time":"2025-06-01T12:00:01Z"},null]}`
	rec := postSpans(t, newTestRouter(), "tenant-1", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestSpansRequiresTenant(t *testing.T) {
	rec := postSpans(t, newTestRouter(), "", `{"spans":[{"trace_id":"t1","span_id":"s1"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestSpansRejectsEmptyBatch(t *testing.T) {
	rec := postSpans(t, newTestRouter(), "tenant-1", `{"spans":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
