package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save(filepath.Join("exports", "report.csv"), []byte("a,b\n1,2\n"))
	require.NoError(t, err)

	file, err := store.Open(name)
	require.NoError(t, err)
	defer file.Close()
	require.Equal(t, store.Path(name), file.Name())

	_, err = store.Open(filepath.Join("exports", "missing.csv"))
	require.Error(t, err)
}

func TestLocalStorageSaveStream(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.SaveStream(filepath.Join("documents", "app-1", "transcript.pdf"), strings.NewReader("pdf bytes"))
	require.NoError(t, err)

	data, err := os.ReadFile(store.Path(name))
	require.NoError(t, err)
	require.Equal(t, "pdf bytes", string(data))
}

func TestLocalStorageDeleteIsIdempotent(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("scratch.txt", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(name))
	require.NoError(t, store.Delete(name))
	_, err = store.Open(name)
	require.Error(t, err)
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	old, err := store.Save(filepath.Join("exports", "old.csv"), []byte("old"))
	require.NoError(t, err)
	fresh, err := store.Save(filepath.Join("exports", "fresh.csv"), []byte("fresh"))
	require.NoError(t, err)

	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path(old), stale, stale))

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	require.Equal(t, []string{old}, deleted)

	_, err = store.Open(old)
	require.Error(t, err)
	_, err = store.Open(fresh)
	require.NoError(t, err)
}
