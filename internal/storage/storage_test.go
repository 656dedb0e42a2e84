package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/trivial-pomodoro/internal/storage"
)

func backends(t *testing.T) map[string]storage.Store {
	t.Helper()
	file, err := storage.Open("file", t.TempDir())
	require.NoError(t, err)
	sqlite, err := storage.Open("sqlite", t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		file.Close()
		sqlite.Close()
	})
	return map[string]storage.Store{"file": file, "sqlite": sqlite}
}

func TestGetMissingKey(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			value, ok, err := s.Get("completions")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, value)
		})
	}
}

func TestSetAndGet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set("completions", []byte(`[1]`)))
			require.NoError(t, s.Set("completions", []byte(`[1,2]`)))

			value, ok, err := s.Get("completions")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[1,2]`, string(value))
		})
	}
}

func TestInvalidKey(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
				assert.ErrorIs(t, s.Set(key, []byte("x")), storage.ErrInvalidKey, key)
				_, _, err := s.Get(key)
				assert.ErrorIs(t, err, storage.ErrInvalidKey, key)
			}
		})
	}
}

func TestFileStoreLeavesNoTempFile(t *testing.T) {
	base := t.TempDir()
	s, err := storage.NewFileStore(base)
	require.NoError(t, err)

	require.NoError(t, s.Set("completions", []byte(`[]`)))

	_, err = os.Stat(filepath.Join(base, "completions.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "completions.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	base := t.TempDir()
	s, err := storage.OpenSQLite(base)
	require.NoError(t, err)
	require.NoError(t, s.Set("completions", []byte(`["a"]`)))
	require.NoError(t, s.Close())

	s, err = storage.OpenSQLite(base)
	require.NoError(t, err)
	defer s.Close()

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, storage.CurrentSchemaVersion, version)

	value, ok, err := s.Get("completions")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["a"]`, string(value))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := storage.Open("redis", t.TempDir())
	assert.Error(t, err)
}
