package indexing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexDirectoryIndexesAllFiles(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndexer(t)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# A\n\nbody a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.md"), []byte("# B\n\nbody b\n"), 0o644))

	dataDir := t.TempDir()
	result, err := ix.IndexDirectory(ctx, "docs", dataDir, root, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Indexed)
	assert.Empty(t, result.Errors)
}

func TestIndexDirectoryRefusesConcurrentRun(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndexer(t)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# A\n\nbody\n"), 0o644))
	dataDir := t.TempDir()

	lock := NewRunLock(dataDir, "docs")
	acquired, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	defer lock.Unlock()

	_, err = ix.IndexDirectory(ctx, "docs", dataDir, root, 0)
	assert.Error(t, err)
}
