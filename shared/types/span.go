// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package types

import "time"

// AttributeValue holds one typed OTLP attribute value. Exactly one of the
// pointers is set; the zero value means "unset".
type AttributeValue struct {
	StringValue *string  `json:"string_value,omitempty"`
	BoolValue   *bool    `json:"bool_value,omitempty"`
	IntValue    *int64   `json:"int_value,omitempty"`
	DoubleValue *float64 `json:"double_value,omitempty"`
}

// KeyValue is a single ordered attribute on a span, event, or link.
type KeyValue struct {
	Key   string         `json:"key"`
	Value AttributeValue `json:"value"`
}

// SpanEvent is a timestamped event attached to a span.
type SpanEvent struct {
	Name       string     `json:"name"`
	Timestamp  time.Time  `json:"timestamp"`
	Attributes []KeyValue `json:"attributes,omitempty"`
}

// SpanLink references a span in another trace.
type SpanLink struct {
	TraceID    string     `json:"trace_id"`
	SpanID     string     `json:"span_id"`
	Attributes []KeyValue `json:"attributes,omitempty"`
}

// Span is the normalized OTLP-shaped record produced by the upstream
// span-normalization layer. Redaction and enrichment mutate it in place;
// it is never replaced once created.
type Span struct {
	TraceID       string    `json:"trace_id"`
	SpanID        string    `json:"span_id"`
	ParentSpanID  string    `json:"parent_span_id,omitempty"`
	Name          string    `json:"name"`
	Kind          string    `json:"kind,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	StatusCode    string    `json:"status_code,omitempty"`
	StatusMessage string    `json:"status_message,omitempty"`

	ResourceAttributes []KeyValue  `json:"resource_attributes,omitempty"`
	Attributes         []KeyValue  `json:"attributes,omitempty"`
	Events             []SpanEvent `json:"events,omitempty"`
	Links              []SpanLink  `json:"links,omitempty"`
}

// StringAttr builds a string-typed KeyValue.
func StringAttr(key, value string) KeyValue {
	return KeyValue{Key: key, Value: AttributeValue{StringValue: &value}}
}

// DoubleAttr builds a double-typed KeyValue.
func DoubleAttr(key string, value float64) KeyValue {
	return KeyValue{Key: key, Value: AttributeValue{DoubleValue: &value}}
}

// AppendAttribute appends a new attribute without touching existing ones.
// Enrichment uses this so downstream aggregation can tell an override apart
// from a pre-existing attribute with the same key.
func (s *Span) AppendAttribute(kv KeyValue) {
	s.Attributes = append(s.Attributes, kv)
}

// AttributeString returns the string value for key, or "" when the key is
// absent or not string-typed.
func (s *Span) AttributeString(key string) string {
	for _, kv := range s.Attributes {
		if kv.Key == key && kv.Value.StringValue != nil {
			return *kv.Value.StringValue
		}
	}
	return ""
}

// AsString renders any attribute value to its string form for storage in
// text-typed columns. Unset values render as "".
func (v AttributeValue) AsString() string {
	switch {
	case v.StringValue != nil:
		return *v.StringValue
	case v.BoolValue != nil:
		if *v.BoolValue {
			return "true"
		}
		return "false"
	case v.IntValue != nil:
		return formatInt(*v.IntValue)
	case v.DoubleValue != nil:
		return formatFloat(*v.DoubleValue)
	}
	return ""
}
