// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package types

import "strconv"

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
