// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

// Package archive writes raw spans to object storage before any
// redaction or enrichment touches them. The archive is the system of
// record for reprocessing; projections can always be rebuilt from it.
// S3-compatible services (MinIO, Cloudflare R2) work via a custom
// endpoint.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"tracelens/platform/shared/types"
)

// Archiver persists the raw, pre-redaction form of a span
type Archiver interface {
	ArchiveSpan(ctx context.Context, tenantID string, span *types.Span) error
}

// Config holds S3 archive settings
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// S3Archiver stores one JSON object per span
type S3Archiver struct {
	client *s3.Client
	bucket string
}

// NewS3Archiver builds an archiver from the config. Explicit credentials
// take precedence; otherwise the default AWS credential chain applies.
func NewS3Archiver(ctx context.Context, cfg Config) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	optFns := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		optFns = append(optFns, awsconfig.WithCredentialsProvider(creds))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Options := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3Archiver{
		client: s3.NewFromConfig(awsCfg, s3Options...),
		bucket: cfg.Bucket,
	}, nil
}

// ArchiveSpan writes the span as JSON under <tenant>/<trace>/<span>.json
func (a *S3Archiver) ArchiveSpan(ctx context.Context, tenantID string, span *types.Span) error {
	if tenantID == "" {
		return fmt.Errorf("tenant id is required")
	}
	if span == nil {
		return fmt.Errorf("span is required")
	}

	body, err := json.Marshal(span)
	if err != nil {
		return fmt.Errorf("failed to marshal span %s: %w", span.SpanID, err)
	}

	key := ObjectKey(tenantID, span.TraceID, span.SpanID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive span %s: %w", key, err)
	}
	return nil
}

// ObjectKey builds the archive key for a span
func ObjectKey(tenantID, traceID, spanID string) string {
	return fmt.Sprintf("%s/%s/%s.json", tenantID, traceID, spanID)
}

// NoopArchiver drops every span. Used when no archive bucket is
// configured.
type NoopArchiver struct{}

// NewNoopArchiver creates an archiver that discards writes
func NewNoopArchiver() *NoopArchiver {
	return &NoopArchiver{}
}

// ArchiveSpan validates inputs and discards the span
func (a *NoopArchiver) ArchiveSpan(ctx context.Context, tenantID string, span *types.Span) error {
	if tenantID == "" {
		return fmt.Errorf("tenant id is required")
	}
	return nil
}

var _ Archiver = (*S3Archiver)(nil)
var _ Archiver = (*NoopArchiver)(nil)
