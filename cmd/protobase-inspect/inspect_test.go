package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/cache"
	"github.com/cuemby/protobase/pkg/sharedstorage"
	"github.com/cuemby/protobase/pkg/storage"
)

func newTestSpace(t *testing.T) (string, *sharedstorage.SharedStorage) {
	t.Helper()
	dir := t.TempDir()
	bp, err := storage.NewFileBlockProvider(dir, 0)
	require.NoError(t, err)
	t.Cleanup(func() { bp.Close() })

	reg := atom.NewRegistry()
	caches := cache.NewAtomCache(cache.DefaultConfig())
	s := sharedstorage.New(bp, caches, reg, 2, atom.FormatJSON)
	t.Cleanup(func() { s.Close() })
	return dir, s
}

func TestListWALFilesFindsWrittenWAL(t *testing.T) {
	ctx := context.Background()
	dir, s := newTestSpace(t)

	ptr, err := s.PushAtomAsync(ctx, map[string]any{"className": "Literal", "value": "x"}).Get(ctx)
	require.NoError(t, err)

	files, err := listWALFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, ptr.TransactionID, files[0].id)
	assert.Greater(t, files[0].size, int64(0))
}

func TestVerifyWALDecodesEveryRecord(t *testing.T) {
	ctx := context.Background()
	dir, s := newTestSpace(t)

	_, err := s.PushAtomAsync(ctx, map[string]any{"className": "Literal", "value": "one"}).Get(ctx)
	require.NoError(t, err)
	_, err = s.PushAtomAsync(ctx, map[string]any{"className": "Literal", "value": "two"}).Get(ctx)
	require.NoError(t, err)

	files, err := listWALFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	bp, err := storage.NewFileBlockProvider(dir, 0)
	require.NoError(t, err)
	defer bp.Close()

	n, errs := verifyWAL(bp, files[0])
	assert.Empty(t, errs)
	assert.Equal(t, 2, n)
}

func TestVerifyRootAcceptsPublishedRoot(t *testing.T) {
	ctx := context.Background()
	dir, s := newTestSpace(t)

	ptr, err := s.PushAtomAsync(ctx, map[string]any{"className": "Literal", "value": "root value"}).Get(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SetCurrentRoot(ctx, ptr))

	bp, err := storage.NewFileBlockProvider(dir, 0)
	require.NoError(t, err)
	defer bp.Close()

	files, err := listWALFiles(dir)
	require.NoError(t, err)

	assert.NoError(t, verifyRoot(bp, files))
}

func TestVerifyRootRejectsUnknownTransaction(t *testing.T) {
	dir, _ := newTestSpace(t)

	bp, err := storage.NewFileBlockProvider(dir, 0)
	require.NoError(t, err)
	defer bp.Close()

	require.NoError(t, bp.UpdateRoot(context.Background(), atom.Pointer{TransactionID: atom.NewTransactionID(), Offset: 0}))

	files, err := listWALFiles(dir)
	require.NoError(t, err)

	assert.Error(t, verifyRoot(bp, files))
}

func TestDescribePayloadFallsBackOnUndecodable(t *testing.T) {
	summary := describePayload(atom.FormatJSON, []byte("not json"))
	assert.Contains(t, summary, "undecodable")
}

func TestDescribePayloadReportsClassName(t *testing.T) {
	payload, err := atom.EncodePayload(map[string]any{"className": "Literal", "value": "x"}, atom.FormatJSON)
	require.NoError(t, err)
	summary := describePayload(atom.FormatJSON, payload)
	assert.Contains(t, summary, "className=Literal")
}
