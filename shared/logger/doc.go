// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

// Package logger provides structured JSON logging for TraceLens components.
// Every entry carries the component, instance, tenant, and request
// identifiers so that logs from a shared ingestion deployment can be
// filtered per tenant.
package logger
