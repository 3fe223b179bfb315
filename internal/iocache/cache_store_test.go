package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/defectset/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheStore_SQLiteRoundTrip(t *testing.T) {
	store, err := NewCacheStore(activityTable, schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, _, _, err = store.Get("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	payload := []byte("--abc|2024-01-01 10:00:00 +0000|Alice|fix PROJ-1\n3\t1\tMain.java\n")
	require.NoError(t, store.Set("key1", payload, 1, 1700000000))

	value, version, ts, err := store.Get("key1")
	require.NoError(t, err)
	assert.Equal(t, payload, value)
	assert.Equal(t, 1, version)
	assert.Equal(t, int64(1700000000), ts)

	// Upsert replaces the entry
	require.NoError(t, store.Set("key1", []byte("new"), 2, 1700000100))
	value, version, _, err = store.Get("key1")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), value)
	assert.Equal(t, 2, version)
}

func TestCacheStore_Status(t *testing.T) {
	store, err := NewCacheStore(activityTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalEntries)

	require.NoError(t, store.Set("a", []byte("1"), 1, 1000))
	require.NoError(t, store.Set("b", []byte("2"), 1, 2000))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, time.Unix(2000, 0), status.LastEntryTime)
	assert.Equal(t, time.Unix(1000, 0), status.OldestEntryTime)
	assert.Greater(t, status.TableSizeBytes, int64(0))
}

func TestCacheStore_NoneBackend(t *testing.T) {
	store, err := NewCacheStore(activityTable, schema.NoneBackend, "")
	require.NoError(t, err)

	require.NoError(t, store.Set("k", []byte("v"), 1, 1))
	_, _, _, err = store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestCacheStore_InvalidTableName(t *testing.T) {
	for _, name := range []string{"", "1table", "drop table;", "a-b"} {
		_, err := NewCacheStore(name, schema.SQLiteBackend, ":memory:")
		assert.Error(t, err, name)
	}
}

func TestCacheStore_UnsupportedBackend(t *testing.T) {
	_, err := NewCacheStore(activityTable, schema.DatabaseBackend("redis"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backend")
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`t`", quoteTableName("t", schema.MySQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.PostgreSQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.SQLiteBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", placeholders(schema.SQLiteBackend, 1, 3))
	assert.Equal(t, "?", placeholders(schema.MySQLBackend, 1, 1))
	assert.Equal(t, "$2, $3", placeholders(schema.PostgreSQLBackend, 2, 2))
}

func TestNullableTimeScan(t *testing.T) {
	ref := time.Date(2024, 5, 6, 7, 8, 9, 123000000, time.UTC)

	var nt nullableTime
	require.NoError(t, nt.Scan(nil))
	assert.Nil(t, nt.ptr())

	require.NoError(t, nt.Scan(ref))
	assert.True(t, ref.Equal(nt.Time))

	require.NoError(t, nt.Scan(ref.Format(time.RFC3339Nano)))
	assert.True(t, ref.Equal(nt.Time))

	// MySQL without parseTime returns DATETIME columns as bytes
	require.NoError(t, nt.Scan([]byte("2024-05-06 07:08:09.123000")))
	assert.True(t, ref.Equal(nt.Time))
	require.NotNil(t, nt.ptr())

	assert.Error(t, nt.Scan("yesterday"))
	assert.Error(t, nt.Scan(42))
}
