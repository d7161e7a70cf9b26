package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/vertimeter/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteCacheStoreOperations(t *testing.T) {
	store, err := NewCacheStore("test_cache", schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, _, _, err = store.Get("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	ts := time.Now().Unix()
	require.NoError(t, store.Set("key1", []byte(`{"max_height":42}`), 1, ts))

	value, version, gotTs, err := store.Get("key1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"max_height":42}`), value)
	assert.Equal(t, 1, version)
	assert.Equal(t, ts, gotTs)

	// Upsert replaces the value
	require.NoError(t, store.Set("key1", []byte(`{}`), 2, ts+10))
	value, version, gotTs, err = store.Get("key1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), value)
	assert.Equal(t, 2, version)
	assert.Equal(t, ts+10, gotTs)
}

func TestCacheStoreGetStatus(t *testing.T) {
	store, err := NewCacheStore("status_cache", schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalEntries)

	require.NoError(t, store.Set("a", []byte("1"), 1, 100))
	require.NoError(t, store.Set("b", []byte("2"), 1, 200))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, time.Unix(200, 0), status.LastEntryTime)
	assert.Equal(t, time.Unix(100, 0), status.OldestEntryTime)
	assert.Positive(t, status.TableSizeBytes)
}

func TestCacheStoreNoneBackend(t *testing.T) {
	store, err := NewCacheStore("none_cache", schema.NoneBackend, "")
	require.NoError(t, err)

	_, _, _, err = store.Get("key")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, store.Set("key", []byte("v"), 1, 1))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("bad-name", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)

	_, err = NewCacheStore("cache", schema.DatabaseBackend("oracle"), "")
	assert.Error(t, err)

	_, err = NewCacheStore("cache", schema.SQLiteBackend, filepath.Join(t.TempDir(), "missing", "dir", "db.sqlite"))
	assert.Error(t, err)
}

func TestGetUpsertQuery(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		contains string
	}{
		{schema.SQLiteBackend, "INSERT OR REPLACE"},
		{schema.MySQLBackend, "ON DUPLICATE KEY UPDATE"},
		{schema.PostgreSQLBackend, "ON CONFLICT (cache_key)"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			ps := &CacheStoreImpl{tableName: "session_cache", backend: tt.backend}
			assert.Contains(t, ps.getUpsertQuery(), tt.contains)
		})
	}
}

func TestGetCreateTableQuery(t *testing.T) {
	assert.Contains(t, getCreateTableQuery("c", schema.SQLiteBackend), "BLOB")
	assert.Contains(t, getCreateTableQuery("c", schema.MySQLBackend), "LONGBLOB")
	assert.Contains(t, getCreateTableQuery("c", schema.PostgreSQLBackend), "BYTEA")
}
