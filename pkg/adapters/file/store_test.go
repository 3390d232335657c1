package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/codeflow-dev/codeflow/pkg/adapters/file"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunTraceStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_Overwrite(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "k", &domain.Trace{Language: "javascript"}))
	require.NoError(t, store.Save(ctx, "k", &domain.Trace{Language: "python"}))

	loaded, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "python", loaded.Language)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestFileStore_InvalidKeys(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		t.Run(key, func(t *testing.T) {
			assert.Error(t, store.Save(ctx, key, &domain.Trace{}))
			_, err := store.Load(ctx, key)
			assert.Error(t, err)
			assert.NotErrorIs(t, err, domain.ErrTraceNotFound)
		})
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.trace"), []byte("not msgpack"), 0o600))

	_, err := file.New(dir).Load(context.Background(), "bad")
	assert.ErrorContains(t, err, "failed to decode trace bad")
}

func TestFileStore_ListMissingDir(t *testing.T) {
	keys, err := file.New(filepath.Join(t.TempDir(), "absent")).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}
