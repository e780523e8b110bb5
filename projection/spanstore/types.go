// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package spanstore

import (
	"time"

	"tracelens/platform/projection"
	"tracelens/platform/shared/types"
)

// StoredEvent is one span event in its stored, flattened form.
type StoredEvent struct {
	Name       string
	Timestamp  time.Time
	Attributes map[string]string
}

// StoredLink is one span link in its stored, flattened form.
type StoredLink struct {
	TraceID    string
	SpanID     string
	Attributes map[string]string
}

// StoredSpan is one row in the analytical store, one per
// (tenant, trace, span). ProjectionID is the natural key used for
// store-side deduplication; multiple writes for the same id converge to
// the latest write.
type StoredSpan struct {
	TenantID     string
	TraceID      string
	SpanID       string
	ProjectionID string

	ParentSpanID  string
	Name          string
	Kind          string
	StartTime     time.Time
	EndTime       time.Time
	DurationMs    int64
	StatusCode    string
	StatusMessage string

	ResourceAttributes map[string]string
	SpanAttributes     map[string]string
	Events             []StoredEvent
	Links              []StoredLink

	UpdatedAt time.Time
}

// FromSpan maps a normalized span to its storage shape for a tenant.
func FromSpan(tenantID string, span *types.Span) *StoredSpan {
	stored := &StoredSpan{
		TenantID:           tenantID,
		TraceID:            span.TraceID,
		SpanID:             span.SpanID,
		ProjectionID:       projection.SpanProjectionID(tenantID, span.TraceID, span.SpanID),
		ParentSpanID:       span.ParentSpanID,
		Name:               span.Name,
		Kind:               span.Kind,
		StartTime:          span.StartTime,
		EndTime:            span.EndTime,
		DurationMs:         span.EndTime.Sub(span.StartTime).Milliseconds(),
		StatusCode:         span.StatusCode,
		StatusMessage:      span.StatusMessage,
		ResourceAttributes: flattenAttributes(span.ResourceAttributes),
		SpanAttributes:     flattenAttributes(span.Attributes),
	}

	for _, ev := range span.Events {
		stored.Events = append(stored.Events, StoredEvent{
			Name:       ev.Name,
			Timestamp:  ev.Timestamp,
			Attributes: flattenAttributes(ev.Attributes),
		})
	}
	for _, link := range span.Links {
		stored.Links = append(stored.Links, StoredLink{
			TraceID:    link.TraceID,
			SpanID:     link.SpanID,
			Attributes: flattenAttributes(link.Attributes),
		})
	}

	return stored
}

// ToSpan reconstitutes the span-rich domain shape from a stored row.
// Attribute types collapse to strings on the way through the store.
func (s *StoredSpan) ToSpan() *types.Span {
	span := &types.Span{
		TraceID:            s.TraceID,
		SpanID:             s.SpanID,
		ParentSpanID:       s.ParentSpanID,
		Name:               s.Name,
		Kind:               s.Kind,
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		StatusCode:         s.StatusCode,
		StatusMessage:      s.StatusMessage,
		ResourceAttributes: unflattenAttributes(s.ResourceAttributes),
		Attributes:         unflattenAttributes(s.SpanAttributes),
	}

	for _, ev := range s.Events {
		span.Events = append(span.Events, types.SpanEvent{
			Name:       ev.Name,
			Timestamp:  ev.Timestamp,
			Attributes: unflattenAttributes(ev.Attributes),
		})
	}
	for _, link := range s.Links {
		span.Links = append(span.Links, types.SpanLink{
			TraceID:    link.TraceID,
			SpanID:     link.SpanID,
			Attributes: unflattenAttributes(link.Attributes),
		})
	}

	return span
}

func flattenAttributes(attrs []types.KeyValue) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		out[kv.Key] = kv.Value.AsString()
	}
	return out
}

func unflattenAttributes(attrs map[string]string) []types.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]types.KeyValue, 0, len(attrs))
	for key, value := range attrs {
		out = append(out, types.StringAttr(key, value))
	}
	return out
}
