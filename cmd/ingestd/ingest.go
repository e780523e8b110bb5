// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"tracelens/platform/archive"
	"tracelens/platform/ingest/enrichment"
	"tracelens/platform/ingest/redaction"
	"tracelens/platform/projection/evalrun"
	"tracelens/platform/projection/spanstore"
	"tracelens/platform/projection/tracesummary"
	"tracelens/platform/shared/logger"
	"tracelens/platform/shared/types"
)

// ingestHandler is the HTTP surface for the ingest pipeline and the
// projection write APIs
type ingestHandler struct {
	archiver  archive.Archiver
	redactor  *redaction.Service
	enricher  *enrichment.Service
	spans     *spanstore.Service
	summaries *tracesummary.Service
	runs      *evalrun.Service
	log       *logger.Logger
}

func newIngestHandler(
	archiver archive.Archiver,
	redactor *redaction.Service,
	enricher *enrichment.Service,
	spans *spanstore.Service,
	summaries *tracesummary.Service,
	runs *evalrun.Service,
) *ingestHandler {
	return &ingestHandler{
		archiver:  archiver,
		redactor:  redactor,
		enricher:  enricher,
		spans:     spans,
		summaries: summaries,
		runs:      runs,
		log:       logger.New("ingest-handler"),
	}
}

// RegisterRoutes registers the ingest and projection routes
func (h *ingestHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/ingest/spans", h.IngestSpans).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/v1/traces/{trace_id}/spans", h.GetTraceSpans).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/v1/projections/trace-summaries", h.UpsertTraceSummary).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/v1/projections/evaluation-runs", h.UpsertEvaluationRun).Methods("POST", "OPTIONS")
}

// IngestSpansRequest is the request body for span ingestion
type IngestSpansRequest struct {
	Spans []*types.Span `json:"spans"`
}

// IngestSpans handles POST /api/v1/ingest/spans. Each span is archived
// raw, then redacted, enriched, and projected. Archive failures abort
// the batch: the raw record is the system of record.
func (h *ingestHandler) IngestSpans(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	tenantID := r.Header.Get("X-Tenant-ID")
	if tenantID == "" {
		h.writeError(w, "Tenant ID required", http.StatusBadRequest)
		return
	}

	level := redaction.LevelStandard
	if r.Header.Get("X-Redaction-Level") == string(redaction.LevelDisabled) {
		level = redaction.LevelDisabled
	}

	var req IngestSpansRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Spans) == 0 {
		h.writeError(w, "At least one span required", http.StatusBadRequest)
		return
	}
	for _, span := range req.Spans {
		// A JSON null in the array decodes to a nil span.
		if span == nil {
			h.writeError(w, "Null span in batch", http.StatusBadRequest)
			return
		}
	}

	start := time.Now()
	for _, span := range req.Spans {
		if err := h.archiver.ArchiveSpan(r.Context(), tenantID, span); err != nil {
			h.log.ErrorWithErr(tenantID, "", "failed to archive span", err, map[string]interface{}{
				"trace_id": span.TraceID,
				"span_id":  span.SpanID,
			})
			h.writeError(w, "Failed to archive span", http.StatusInternalServerError)
			return
		}

		if err := h.redactor.RedactSpan(r.Context(), tenantID, span, level); err != nil {
			if errors.Is(err, redaction.ErrDetectorUnavailable) {
				h.writeError(w, "Redaction unavailable", http.StatusServiceUnavailable)
				return
			}
			h.log.ErrorWithErr(tenantID, "", "failed to redact span", err, map[string]interface{}{
				"trace_id": span.TraceID,
				"span_id":  span.SpanID,
			})
			h.writeError(w, "Failed to redact span", http.StatusInternalServerError)
			return
		}

		if err := h.enricher.EnrichSpan(r.Context(), span, tenantID); err != nil {
			// Enrichment is best-effort: a span without cost attributes
			// is still stored.
			h.log.Warn(tenantID, "", "cost enrichment failed", map[string]interface{}{
				"span_id": span.SpanID,
				"error":   err.Error(),
			})
		}

		if err := h.spans.StoreSpan(r.Context(), tenantID, span); err != nil {
			h.log.ErrorWithErr(tenantID, "", "failed to store span", err, map[string]interface{}{
				"trace_id": span.TraceID,
				"span_id":  span.SpanID,
			})
			h.writeError(w, "Failed to store span", http.StatusInternalServerError)
			return
		}
	}

	h.log.InfoWithDuration(tenantID, "", "ingested span batch",
		float64(time.Since(start).Milliseconds()),
		map[string]interface{}{"spans": len(req.Spans)})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]int{"accepted": len(req.Spans)})
}

// GetTraceSpans handles GET /api/v1/traces/{trace_id}/spans
func (h *ingestHandler) GetTraceSpans(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	tenantID := r.Header.Get("X-Tenant-ID")
	if tenantID == "" {
		h.writeError(w, "Tenant ID required", http.StatusBadRequest)
		return
	}
	traceID := mux.Vars(r)["trace_id"]

	spans, err := h.spans.GetSpansByTraceID(r.Context(), tenantID, traceID)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"trace_id": traceID,
		"spans":    spans,
	})
}

// UpsertTraceSummaryRequest is the request body for trace summary upserts
type UpsertTraceSummaryRequest struct {
	TenantID     string    `json:"tenant_id"`
	TraceID      string    `json:"trace_id"`
	OccurredAt   time.Time `json:"occurred_at"`
	DurationMs   int64     `json:"duration_ms"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	TotalTokens  int64     `json:"total_tokens"`
	TotalCostUSD *float64  `json:"total_cost_usd,omitempty"`
	Models       []string  `json:"models,omitempty"`
	HasError     bool      `json:"has_error"`
	AllOk        bool      `json:"all_ok"`
	Annotated    bool      `json:"annotated"`
	Satisfaction *string   `json:"satisfaction,omitempty"`
	Topic        *string   `json:"topic,omitempty"`
}

// UpsertTraceSummary handles POST /api/v1/projections/trace-summaries
func (h *ingestHandler) UpsertTraceSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req UpsertTraceSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	summary := &tracesummary.TraceSummary{
		TenantID:     req.TenantID,
		TraceID:      req.TraceID,
		OccurredAt:   req.OccurredAt,
		DurationMs:   req.DurationMs,
		InputTokens:  req.InputTokens,
		OutputTokens: req.OutputTokens,
		TotalTokens:  req.TotalTokens,
		TotalCostUSD: req.TotalCostUSD,
		Models:       req.Models,
		HasError:     req.HasError,
		AllOk:        req.AllOk,
		Annotated:    req.Annotated,
		Satisfaction: req.Satisfaction,
		Topic:        req.Topic,
	}

	if err := h.summaries.Upsert(r.Context(), summary); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"projection_id": summary.ProjectionID})
}

// UpsertEvaluationRunRequest is the request body for evaluation run
// upserts
type UpsertEvaluationRunRequest struct {
	TenantID      string     `json:"tenant_id"`
	EvaluationID  string     `json:"evaluation_id"`
	EvaluatorName string     `json:"evaluator_name"`
	TraceID       string     `json:"trace_id"`
	Status        string     `json:"status"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Score         *float64   `json:"score,omitempty"`
	Passed        *bool      `json:"passed,omitempty"`
	Label         *string    `json:"label,omitempty"`
	CostUSD       *float64   `json:"cost_usd,omitempty"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
}

// UpsertEvaluationRun handles POST /api/v1/projections/evaluation-runs
func (h *ingestHandler) UpsertEvaluationRun(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req UpsertEvaluationRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	run := &evalrun.EvaluationRun{
		TenantID:      req.TenantID,
		EvaluationID:  req.EvaluationID,
		EvaluatorName: req.EvaluatorName,
		TraceID:       req.TraceID,
		Status:        evalrun.Status(req.Status),
		ScheduledAt:   req.ScheduledAt,
		StartedAt:     req.StartedAt,
		CompletedAt:   req.CompletedAt,
		Score:         req.Score,
		Passed:        req.Passed,
		Label:         req.Label,
		CostUSD:       req.CostUSD,
		ErrorMessage:  req.ErrorMessage,
	}

	if err := h.runs.Upsert(r.Context(), run); err != nil {
		if errors.Is(err, evalrun.ErrInvalidStatus) {
			h.writeError(w, "Invalid status", http.StatusBadRequest)
			return
		}
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"projection_id": run.ProjectionID})
}

func (h *ingestHandler) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
