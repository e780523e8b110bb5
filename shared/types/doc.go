// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

// Package types defines shared type definitions used across TraceLens
// components: the normalized span model consumed by ingestion
// pre-processing, and deployment mode configuration.
package types
