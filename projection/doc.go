// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

// Package projection holds the deterministic key derivation shared by the
// projection repositories. Keys are pure functions of immutable event
// inputs, so redelivered events upsert into the same logical row instead
// of creating duplicates.
package projection
