package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func backends(t *testing.T) map[string]Record {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFileRecord(filepath.Join(dir, "files"))
	require.NoError(t, err)
	boltRec, err := NewBoltRecord(filepath.Join(dir, "history.bolt"))
	require.NoError(t, err)
	sqliteRec, err := NewSQLiteRecord(":memory:")
	require.NoError(t, err)
	gormRec, err := NewGormRecord(sqlite.Open(filepath.Join(dir, "gorm.db")))
	require.NoError(t, err)

	recs := map[string]Record{
		"memory": NewMemoryRecord(),
		"file":   file,
		"bolt":   boltRec,
		"sqlite": sqliteRec,
		"gorm":   gormRec,
	}
	t.Cleanup(func() {
		for _, r := range recs {
			_ = r.Close()
		}
	})
	return recs
}

func TestRecordBackends(t *testing.T) {
	ctx := context.Background()

	for name, rec := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := rec.Load(ctx, DefaultKey)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, rec.Save(ctx, DefaultKey, []byte(`{"chats":[]}`)))
			data, err := rec.Load(ctx, DefaultKey)
			require.NoError(t, err)
			assert.Equal(t, `{"chats":[]}`, string(data))

			require.NoError(t, rec.Save(ctx, DefaultKey, []byte(`{"chats":[1]}`)))
			data, err = rec.Load(ctx, DefaultKey)
			require.NoError(t, err)
			assert.Equal(t, `{"chats":[1]}`, string(data))

			_, err = rec.Load(ctx, "other")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, rec.Clear(ctx, DefaultKey))
			_, err = rec.Load(ctx, DefaultKey)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, rec.Clear(ctx, DefaultKey))
		})
	}
}

func TestMemoryRecordCopiesValues(t *testing.T) {
	ctx := context.Background()
	rec := NewMemoryRecord()

	data := []byte("abc")
	require.NoError(t, rec.Save(ctx, "k", data))
	data[0] = 'x'

	got, err := rec.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	t.Run("memory", func(t *testing.T) {
		rec, err := New(Config{Type: "MEMORY"})
		require.NoError(t, err)
		assert.IsType(t, &MemoryRecord{}, rec)
	})

	t.Run("file default", func(t *testing.T) {
		rec, err := New(Config{DSN: filepath.Join(dir, "f")})
		require.NoError(t, err)
		assert.IsType(t, &FileRecord{}, rec)
	})

	t.Run("bolt", func(t *testing.T) {
		rec, err := New(Config{Type: TypeBolt, DSN: filepath.Join(dir, "b.bolt")})
		require.NoError(t, err)
		defer rec.Close()
		assert.IsType(t, &BoltRecord{}, rec)
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		_, err := New(Config{Type: TypePostgres})
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := New(Config{Type: "redis"})
		assert.Error(t, err)
	})
}

func TestFileRecordLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	rec, err := NewFileRecord(dir)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, rec.Save(ctx, DefaultKey, []byte("{}")))
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, DefaultKey+".json")}, matches)
}

func TestNewGormRecordMigrationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readonly.db")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	rec, err := NewGormRecord(sqlite.Open("file:" + path + "?mode=ro"))
	require.Error(t, err)
	assert.Nil(t, rec)
	assert.Contains(t, err.Error(), "failed to migrate database")
}
