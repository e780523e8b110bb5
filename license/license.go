// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

// Package license resolves the plan a tenant runs under. A signed license
// token can override the plan derived from the tenant's pricing model;
// self-hosted installations without a license run the unrestricted
// default plan so operators are never locked out of their own deployment.
package license

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token prefix for TraceLens license keys. Format: TLNS-V1-<signed JWT>.
const tokenPrefix = "TLNS-V1-"

// Plan describes what a tenant is entitled to. UsageUnit is only set when
// a license override names one explicitly.
type Plan struct {
	Name              string
	Type              string
	MaxUsagePerMonth  int64
	UsageUnit         string
	Free              bool
	SelfHostedDefault bool
	// Overridden marks plans backed by a valid license override rather
	// than the tenant's pricing model
	Overridden bool
}

// Resolver returns the plan for an organization
type Resolver interface {
	Resolve(ctx context.Context, orgID string) (*Plan, error)
}

// licenseClaims is the JWT payload inside a license token
type licenseClaims struct {
	OrgID            string `json:"org_id"`
	PlanName         string `json:"plan"`
	PlanType         string `json:"plan_type"`
	UsageUnit        string `json:"usage_unit,omitempty"`
	MaxUsagePerMonth int64  `json:"max_usage_per_month"`
	jwt.RegisteredClaims
}

// DefaultSelfHostedPlan is the plan used when no license is configured on
// a self-hosted deployment. The ceiling is unreachable on purpose.
func DefaultSelfHostedPlan() *Plan {
	return &Plan{
		Name:              "self-hosted",
		Type:              "self-hosted",
		MaxUsagePerMonth:  math.MaxInt64,
		Free:              true,
		SelfHostedDefault: true,
	}
}

// ParseToken validates a license token and returns the plan it carries.
// Expired or tampered tokens are invalid.
func ParseToken(token, secret string) (*Plan, error) {
	if !strings.HasPrefix(token, tokenPrefix) {
		return nil, fmt.Errorf("not a TraceLens license token")
	}

	claims := &licenseClaims{}
	parsed, err := jwt.ParseWithClaims(strings.TrimPrefix(token, tokenPrefix), claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid license token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid license token")
	}

	return &Plan{
		Name:             claims.PlanName,
		Type:             claims.PlanType,
		MaxUsagePerMonth: claims.MaxUsagePerMonth,
		UsageUnit:        claims.UsageUnit,
		Overridden:       true,
	}, nil
}

// StaticResolver resolves every organization to one fixed plan. It backs
// self-hosted deployments (default plan or a single parsed license) and
// tests.
type StaticResolver struct {
	plan *Plan
}

// NewStaticResolver creates a resolver pinned to the given plan
func NewStaticResolver(plan *Plan) *StaticResolver {
	return &StaticResolver{plan: plan}
}

// NewSelfHostedResolver parses the configured license token, falling back
// to the unrestricted default plan when the token is absent or invalid.
func NewSelfHostedResolver(token, secret string) *StaticResolver {
	if token != "" {
		if plan, err := ParseToken(token, secret); err == nil {
			return &StaticResolver{plan: plan}
		}
	}
	return &StaticResolver{plan: DefaultSelfHostedPlan()}
}

// Resolve returns the pinned plan
func (r *StaticResolver) Resolve(ctx context.Context, orgID string) (*Plan, error) {
	return r.plan, nil
}

// IssueToken signs a license token for the given claims. Used by the
// license-issuing tooling and tests.
func IssueToken(plan *Plan, orgID, secret string, expiresAt time.Time) (string, error) {
	claims := &licenseClaims{
		OrgID:            orgID,
		PlanName:         plan.Name,
		PlanType:         plan.Type,
		UsageUnit:        plan.UsageUnit,
		MaxUsagePerMonth: plan.MaxUsagePerMonth,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			Issuer:    "tracelens",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign license token: %w", err)
	}
	return tokenPrefix + signed, nil
}
