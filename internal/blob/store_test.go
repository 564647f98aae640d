package blob

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-case-records/internal/config"
	"go-case-records/internal/model"
)

func newTestStore(t *testing.T, buckets ...config.BucketConfig) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	if len(buckets) == 0 {
		buckets = config.DefaultBuckets(1 << 20)
	}
	store, err := New(root, buckets, NewSigner("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return store, root
}

func TestStore_UploadOpenRemove(t *testing.T) {
	t.Parallel()
	store, root := newTestStore(t)
	ctx := context.Background()

	n, err := store.Upload(ctx, model.BucketFiles, "folder_3/a.txt", strings.NewReader("incident notes"))
	require.NoError(t, err)
	assert.Equal(t, int64(14), n)
	assert.FileExists(t, filepath.Join(root, "files", "folder_3", "a.txt"))

	file, info, err := store.Open(model.BucketFiles, "folder_3/a.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	assert.Equal(t, "incident notes", string(body))
	assert.Equal(t, int64(14), info.Size())

	require.NoError(t, store.Remove(ctx, model.BucketFiles, "folder_3/a.txt"))
	assert.ErrorIs(t, store.Remove(ctx, model.BucketFiles, "folder_3/a.txt"), model.ErrNotFound)
	assert.Equal(t, int64(0), store.Usage()[model.BucketFiles][0])
}

func TestStore_RefusesOverwrite(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upload(ctx, model.BucketFiles, "x.txt", strings.NewReader("one"))
	require.NoError(t, err)
	_, err = store.Upload(ctx, model.BucketFiles, "x.txt", strings.NewReader("two"))
	assert.ErrorIs(t, err, model.ErrInvalidPath)
}

func TestStore_ObjectTooLarge(t *testing.T) {
	t.Parallel()
	store, root := newTestStore(t, config.BucketConfig{Name: model.BucketFiles, MaxObjectSize: 8})

	_, err := store.Upload(context.Background(), model.BucketFiles, "big.txt", strings.NewReader("more than eight bytes"))
	assert.ErrorIs(t, err, model.ErrQuotaExceeded)

	entries, err := os.ReadDir(filepath.Join(root, model.BucketFiles))
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be cleaned up")
}

func TestStore_BucketQuota(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t, config.BucketConfig{Name: model.BucketWomenChildren, QuotaBytes: 10})
	ctx := context.Background()

	_, err := store.Upload(ctx, model.BucketWomenChildren, "a.txt", strings.NewReader("123456"))
	require.NoError(t, err)
	_, err = store.Upload(ctx, model.BucketWomenChildren, "b.txt", strings.NewReader("123456"))
	assert.ErrorIs(t, err, model.ErrQuotaExceeded)
}

func TestStore_AllowedMimeTypes(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t, config.BucketConfig{Name: model.BucketFiles, AllowedMimeTypes: []string{"application/pdf"}})
	ctx := context.Background()

	_, err := store.Upload(ctx, model.BucketFiles, "a.txt", strings.NewReader("plain text"))
	assert.ErrorIs(t, err, model.ErrValidationFailed)

	_, err = store.Upload(ctx, model.BucketFiles, "a.pdf", bytes.NewReader([]byte("%PDF-1.4 body")))
	assert.NoError(t, err)
}

func TestStore_UnknownBucketAndBadPath(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upload(ctx, "photos", "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, model.ErrInvalidPath)

	_, err = store.Upload(ctx, model.BucketFiles, "../escape.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, model.ErrInvalidPath)
}

func TestStore_UsageMeasuredOnOpen(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, model.BucketFiles, "folder_1"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, model.BucketFiles, "folder_1", "old.txt"), []byte("12345"), 0o600))

	store, err := New(root, config.DefaultBuckets(100), NewSigner("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), store.Usage()[model.BucketFiles][0])
}

func TestStore_SignedURL(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.SignedURL(ctx, model.BucketFiles, "missing.pdf", ShortTTL)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = store.Upload(ctx, model.BucketFiles, "folder_1/a.txt", strings.NewReader("x"))
	require.NoError(t, err)

	link, err := store.SignedURL(ctx, model.BucketFiles, "folder_1/a.txt", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "/blobs/files/folder_1/a.txt?token="))
}

func TestObjectName(t *testing.T) {
	t.Parallel()
	folder := int64(42)

	assert.Regexp(t, `^folder_42/[0-9a-f-]{36}\.pdf$`, ObjectName(model.KindRegular, &folder, "Report.PDF"))
	assert.Regexp(t, `^extractions/[0-9a-f-]{36}\.jpg$`, ObjectName(model.KindExtraction, &folder, "scan.jpg"))
	assert.Regexp(t, `^unfiled/[0-9a-f-]{36}$`, ObjectName(model.KindWomenChildren, nil, "statement"))
}
