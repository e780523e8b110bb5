// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package redaction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Detector is the PII-detection backend. Implementations take a text value
// and return it with detected personal data replaced.
type Detector interface {
	Redact(ctx context.Context, text string) (string, error)
}

// HTTPDetector calls the external PII-detection service over HTTP.
type HTTPDetector struct {
	endpoint string
	client   *http.Client
}

// NewHTTPDetector creates a detector client for the given endpoint
func NewHTTPDetector(endpoint string) *HTTPDetector {
	return &HTTPDetector{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type redactRequest struct {
	Text string `json:"text"`
}

type redactResponse struct {
	Redacted string `json:"redacted"`
}

// Redact sends the text to the detection service and returns the redacted
// form
func (d *HTTPDetector) Redact(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(redactRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal redaction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint+"/v1/redact", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build redaction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("redaction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("redaction service returned status %d", resp.StatusCode)
	}

	var out redactResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode redaction response: %w", err)
	}

	return out.Redacted, nil
}
