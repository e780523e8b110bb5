// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracelens/platform/shared/types"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("tenant-1", "trace-abc", "span-7")
	assert.Equal(t, "tenant-1/trace-abc/span-7.json", key)
}

func TestNoopArchiverRequiresTenant(t *testing.T) {
	a := NewNoopArchiver()
	err := a.ArchiveSpan(context.Background(), "", &types.Span{SpanID: "s1"})
	require.Error(t, err)

	err = a.ArchiveSpan(context.Background(), "tenant-1", &types.Span{SpanID: "s1"})
	assert.NoError(t, err)
}

func TestNewS3ArchiverRequiresBucket(t *testing.T) {
	_, err := NewS3Archiver(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}
