package snapshot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, KeyIndex, []byte(`{"a":1}`)))

	got, err := store.Get(ctx, KeyIndex)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), got)
}

func TestFileStoreMissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), KeyFull)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, KeyFull, []byte("first")))
	require.NoError(t, store.Set(ctx, KeyFull, []byte("second")))

	got, err := store.Get(ctx, KeyFull)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestFileStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	_, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "vademecum:full", []byte("x")))
	assert.FileExists(t, filepath.Join(dir, "vademecum_full.json"))
}
