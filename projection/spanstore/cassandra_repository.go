// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package spanstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gocql/gocql"

	"tracelens/platform/projection"
)

// CassandraRepository implements Repository on the columnar analytical
// store. Rows are keyed by ((tenant_id, trace_id), projection_id), so a
// redelivered span overwrites its own row (last-write-wins).
type CassandraRepository struct {
	session *gocql.Session
	logger  *log.Logger
}

// NewCassandraRepository creates a new analytical-store span repository
func NewCassandraRepository(session *gocql.Session) *CassandraRepository {
	return &CassandraRepository{
		session: session,
		logger:  log.New(os.Stdout, "[SPAN_STORE] ", log.LstdFlags),
	}
}

const insertSpanCQL = `
	INSERT INTO stored_spans (
		tenant_id, trace_id, projection_id, span_id, parent_span_id,
		name, kind, start_time, end_time, duration_ms,
		status_code, status_message, error_flag,
		resource_attributes, span_attributes,
		event_names, event_timestamps, event_attributes,
		link_trace_ids, link_span_ids, link_attributes,
		updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectSpansCQL = `
	SELECT projection_id, span_id, parent_span_id, name, kind,
		   start_time, end_time, duration_ms, status_code, status_message,
		   resource_attributes, span_attributes,
		   event_names, event_timestamps, event_attributes,
		   link_trace_ids, link_span_ids, link_attributes, updated_at
	FROM stored_spans
	WHERE tenant_id = ? AND trace_id = ?
`

// InsertSpan writes a single row for the span. Store I/O failures are
// logged with tenant and span identifiers and returned to the caller,
// whose redelivery policy is the retry mechanism.
func (r *CassandraRepository) InsertSpan(ctx context.Context, span *StoredSpan) error {
	if span.TenantID == "" {
		return projection.ErrTenantRequired
	}
	if span.TraceID == "" || span.SpanID == "" {
		return ErrInvalidSpan
	}

	eventNames, eventTimestamps, eventAttrs, err := flattenEvents(span.Events)
	if err != nil {
		return fmt.Errorf("failed to encode span events: %w", err)
	}
	linkTraceIDs, linkSpanIDs, linkAttrs, err := flattenLinks(span.Links)
	if err != nil {
		return fmt.Errorf("failed to encode span links: %w", err)
	}

	updatedAt := span.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	err = r.session.Query(insertSpanCQL,
		span.TenantID, span.TraceID, span.ProjectionID, span.SpanID, span.ParentSpanID,
		span.Name, span.Kind, span.StartTime, span.EndTime, span.DurationMs,
		span.StatusCode, span.StatusMessage, boolToInt8(span.StatusCode == "ERROR"),
		span.ResourceAttributes, span.SpanAttributes,
		eventNames, eventTimestamps, eventAttrs,
		linkTraceIDs, linkSpanIDs, linkAttrs,
		updatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		r.logger.Printf("Failed to insert span: tenant=%s trace=%s span=%s: %v",
			span.TenantID, span.TraceID, span.SpanID, err)
		return fmt.Errorf("failed to insert span: %w", err)
	}

	return nil
}

// GetSpansByTraceID reads all rows for a trace, collapsing historical
// writes per projection id to the row with the latest updated_at.
func (r *CassandraRepository) GetSpansByTraceID(ctx context.Context, tenantID, traceID string) ([]StoredSpan, error) {
	if tenantID == "" {
		return nil, projection.ErrTenantRequired
	}

	iter := r.session.Query(selectSpansCQL, tenantID, traceID).WithContext(ctx).Iter()

	latest := make(map[string]StoredSpan)
	order := make([]string, 0)

	var (
		projectionID, spanID, parentSpanID, name, kind string
		startTime, endTime, updatedAt                  time.Time
		durationMs                                     int64
		statusCode, statusMessage                      string
		resourceAttrs, spanAttrs                       map[string]string
		eventNames                                     []string
		eventTimestamps                                []time.Time
		eventAttrs                                     []string
		linkTraceIDs, linkSpanIDs, linkAttrs           []string
	)

	for iter.Scan(&projectionID, &spanID, &parentSpanID, &name, &kind,
		&startTime, &endTime, &durationMs, &statusCode, &statusMessage,
		&resourceAttrs, &spanAttrs,
		&eventNames, &eventTimestamps, &eventAttrs,
		&linkTraceIDs, &linkSpanIDs, &linkAttrs, &updatedAt) {

		events, err := rehydrateEvents(eventNames, eventTimestamps, eventAttrs)
		if err != nil {
			iter.Close()
			return nil, fmt.Errorf("failed to decode span events: %w", err)
		}
		links, err := rehydrateLinks(linkTraceIDs, linkSpanIDs, linkAttrs)
		if err != nil {
			iter.Close()
			return nil, fmt.Errorf("failed to decode span links: %w", err)
		}

		row := StoredSpan{
			TenantID:           tenantID,
			TraceID:            traceID,
			SpanID:             spanID,
			ProjectionID:       projectionID,
			ParentSpanID:       parentSpanID,
			Name:               name,
			Kind:               kind,
			StartTime:          startTime,
			EndTime:            endTime,
			DurationMs:         durationMs,
			StatusCode:         statusCode,
			StatusMessage:      statusMessage,
			ResourceAttributes: copyMap(resourceAttrs),
			SpanAttributes:     copyMap(spanAttrs),
			Events:             events,
			Links:              links,
			UpdatedAt:          updatedAt,
		}

		if existing, ok := latest[projectionID]; !ok {
			latest[projectionID] = row
			order = append(order, projectionID)
		} else if row.UpdatedAt.After(existing.UpdatedAt) {
			latest[projectionID] = row
		}

		resourceAttrs, spanAttrs = nil, nil
		eventNames, eventTimestamps, eventAttrs = nil, nil, nil
		linkTraceIDs, linkSpanIDs, linkAttrs = nil, nil, nil
	}
	if err := iter.Close(); err != nil {
		r.logger.Printf("Failed to read spans: tenant=%s trace=%s: %v", tenantID, traceID, err)
		return nil, fmt.Errorf("failed to read spans: %w", err)
	}

	if len(latest) == 0 {
		return nil, ErrSpanNotFound
	}

	spans := make([]StoredSpan, 0, len(latest))
	for _, id := range order {
		spans = append(spans, latest[id])
	}
	return spans, nil
}

// flattenEvents encodes events into parallel columns; positions stay
// correlated across the three arrays.
func flattenEvents(events []StoredEvent) ([]string, []time.Time, []string, error) {
	names := make([]string, 0, len(events))
	timestamps := make([]time.Time, 0, len(events))
	attrs := make([]string, 0, len(events))
	for _, ev := range events {
		encoded, err := json.Marshal(ev.Attributes)
		if err != nil {
			return nil, nil, nil, err
		}
		names = append(names, ev.Name)
		timestamps = append(timestamps, ev.Timestamp)
		attrs = append(attrs, string(encoded))
	}
	return names, timestamps, attrs, nil
}

func flattenLinks(links []StoredLink) ([]string, []string, []string, error) {
	traceIDs := make([]string, 0, len(links))
	spanIDs := make([]string, 0, len(links))
	attrs := make([]string, 0, len(links))
	for _, link := range links {
		encoded, err := json.Marshal(link.Attributes)
		if err != nil {
			return nil, nil, nil, err
		}
		traceIDs = append(traceIDs, link.TraceID)
		spanIDs = append(spanIDs, link.SpanID)
		attrs = append(attrs, string(encoded))
	}
	return traceIDs, spanIDs, attrs, nil
}

func rehydrateEvents(names []string, timestamps []time.Time, attrs []string) ([]StoredEvent, error) {
	events := make([]StoredEvent, 0, len(names))
	for i, name := range names {
		ev := StoredEvent{Name: name}
		if i < len(timestamps) {
			ev.Timestamp = timestamps[i]
		}
		if i < len(attrs) && attrs[i] != "" {
			if err := json.Unmarshal([]byte(attrs[i]), &ev.Attributes); err != nil {
				return nil, err
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

func rehydrateLinks(traceIDs, spanIDs, attrs []string) ([]StoredLink, error) {
	links := make([]StoredLink, 0, len(traceIDs))
	for i, traceID := range traceIDs {
		link := StoredLink{TraceID: traceID}
		if i < len(spanIDs) {
			link.SpanID = spanIDs[i]
		}
		if i < len(attrs) && attrs[i] != "" {
			if err := json.Unmarshal([]byte(attrs[i]), &link.Attributes); err != nil {
				return nil, err
			}
		}
		links = append(links, link)
	}
	return links, nil
}

func copyMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// boolToInt8 encodes booleans as 0/1 tinyint columns
func boolToInt8(v bool) int8 {
	if v {
		return 1
	}
	return 0
}
