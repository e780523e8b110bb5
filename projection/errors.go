// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package projection

import "errors"

// ErrTenantRequired is returned when a repository call is attempted with an
// empty tenant id. This is a programming error in the caller and is raised
// before any I/O.
var ErrTenantRequired = errors.New("tenant id is required")
