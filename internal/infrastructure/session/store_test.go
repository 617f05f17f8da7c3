package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/erp/books/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// exerciseStore runs the behaviour every Store must share
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	key := "test-" + t.Name()

	_, err := store.Load(ctx, key)
	assert.ErrorIs(t, err, ErrNoSession)

	first := Credentials{
		AccessToken:  "a1",
		RefreshToken: "r1",
		Username:     "ada",
		ExpiresAt:    time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, key, first))

	got, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "a1", got.AccessToken)
	assert.Equal(t, "ada", got.Username)
	assert.True(t, got.ExpiresAt.Equal(first.ExpiresAt))

	second := first
	second.AccessToken = "a2"
	require.NoError(t, store.Save(ctx, key, second))
	got, err = store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "a2", got.AccessToken)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Load(ctx, key)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Delete(ctx, key), "deleting a missing key is not an error")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestGormStore_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	store, err := OpenSQLite(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestGormStore_TracesQueriesWithoutTokens(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "traced.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, traceQueries(db, tp))
	store, err := NewGormStore(db)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "k", Credentials{AccessToken: "tok-secret-123", RefreshToken: "ref-secret-456"}))
	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "tok-secret-123", got.AccessToken)

	spans := exporter.GetSpans()
	require.NotEmpty(t, spans)
	for _, span := range spans {
		for _, kv := range span.Attributes {
			assert.NotContains(t, kv.Value.Emit(), "secret", "span %s attribute %s", span.Name, kv.Key)
		}
	}
}

func TestGormStore_Postgres(t *testing.T) {
	dsn := os.Getenv("BOOKS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BOOKS_TEST_POSTGRES_DSN not set")
	}
	store, err := OpenPostgres(dsn, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("BOOKS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BOOKS_TEST_REDIS_ADDR not set")
	}
	store, err := NewRedisStore(RedisConfig{Addr: addr, KeyPrefix: "books:test:"})
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestNewStore(t *testing.T) {
	logger := zaptest.NewLogger(t)

	store, err := NewStore(config.SessionConfig{Store: "memory"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = NewStore(config.SessionConfig{Store: "sqlite", DSN: filepath.Join(t.TempDir(), "s.db")}, logger)
	require.NoError(t, err)
	assert.IsType(t, &GormStore{}, store)
	require.NoError(t, store.Close())

	_, err = NewStore(config.SessionConfig{Store: "etcd"}, logger)
	assert.Error(t, err)
}
