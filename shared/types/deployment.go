// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package types

// DeploymentMode represents the deployment type
type DeploymentMode string

const (
	// DeploymentModeCloud is the multi-tenant managed deployment
	DeploymentModeCloud DeploymentMode = "cloud"
	// DeploymentModeSelfHosted is a single-operator installation running
	// without a license; it always gets the unrestricted default plan
	DeploymentModeSelfHosted DeploymentMode = "self-hosted"
)

// String returns the string representation of the DeploymentMode
func (m DeploymentMode) String() string {
	return string(m)
}

// IsValid returns true if the DeploymentMode is a valid known value
func (m DeploymentMode) IsValid() bool {
	switch m {
	case DeploymentModeCloud, DeploymentModeSelfHosted:
		return true
	default:
		return false
	}
}
