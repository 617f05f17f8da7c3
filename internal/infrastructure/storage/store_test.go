package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/erp/books/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func exerciseArchiveStore(t *testing.T, store ArchiveStore, prefix string) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, prefix+"missing.json.gz")
	assert.ErrorIs(t, err, ErrArchiveNotFound)

	require.NoError(t, store.Put(ctx, prefix+"a.json.gz", []byte("first")))
	require.NoError(t, store.Put(ctx, prefix+"b.json.gz", []byte("second")))

	data, err := store.Get(ctx, prefix+"b.json.gz")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	infos, err := store.List(ctx, prefix)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	keys := []string{infos[0].Key, infos[1].Key}
	assert.ElementsMatch(t, []string{prefix + "a.json.gz", prefix + "b.json.gz"}, keys)

	require.NoError(t, store.Delete(ctx, prefix+"a.json.gz"))
	infos, err = store.List(ctx, prefix)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "archives"))
	require.NoError(t, err)
	exerciseArchiveStore(t, store, "company-1/")
}

func TestFileStore_ListNewestFirst(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "old.json.gz", []byte("x")))
	require.NoError(t, store.Put(ctx, "new.json.gz", []byte("y")))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "old.json.gz"), past, past))

	infos, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "new.json.gz", infos[0].Key)
	assert.Equal(t, int64(1), infos[0].Size)
}

func TestFileStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "../x", "/etc/passwd", "a/../../x"} {
		assert.Error(t, store.Put(ctx, key, []byte("x")), key)
	}
}

func TestNewS3Store_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3Store(ctx, config.StorageConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is required")

	_, err = NewS3Store(ctx, config.StorageConfig{S3Bucket: "b", AccessKeyID: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be set together")

	store, err := NewS3Store(ctx, config.StorageConfig{
		S3Bucket:        "b",
		S3Prefix:        "/backups/",
		S3Endpoint:      "http://localhost:9000",
		AccessKeyID:     "k",
		SecretAccessKey: "s",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "backups/x.json.gz", store.objectKey("x.json.gz"))
}

func TestS3Store_Integration(t *testing.T) {
	endpoint := os.Getenv("BOOKS_TEST_S3_ENDPOINT")
	if endpoint == "" || testing.Short() {
		t.Skip("BOOKS_TEST_S3_ENDPOINT not set")
	}
	ctx := context.Background()
	store, err := NewS3Store(ctx, config.StorageConfig{
		S3Bucket:        "books-test",
		S3Endpoint:      endpoint,
		AccessKeyID:     os.Getenv("BOOKS_TEST_S3_ACCESS_KEY"),
		SecretAccessKey: os.Getenv("BOOKS_TEST_S3_SECRET_KEY"),
		UsePathStyle:    true,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.NoError(t, store.EnsureBucket(ctx))
	exerciseArchiveStore(t, store, uuid.NewString()+"/")
}

func TestNewArchiveStore(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	store, err := NewArchiveStore(ctx, config.StorageConfig{Backend: "local", LocalDir: t.TempDir()}, logger)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = NewArchiveStore(ctx, config.StorageConfig{Backend: "ftp"}, logger)
	assert.Error(t, err)
}
