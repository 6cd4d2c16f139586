package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragindex/blobstore"
	"github.com/hupe1980/ragindex/persistence"
)

func writeWorkspace(t *testing.T) (cfgPath, indexPath, storeDir string) {
	t.Helper()
	dir := t.TempDir()

	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(filepath.Join(docs, "guide"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "intro.md"), []byte("ragindex splits documents into segments"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "guide", "storage.txt"), []byte("snapshots are published to object storage"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "ignored.bin"), []byte{0xff}, 0o600))

	indexPath = filepath.Join(dir, "kb.rgx")
	storeDir = filepath.Join(dir, "store")
	cfgPath = filepath.Join(dir, "ragindex.yaml")
	yaml := fmt.Sprintf(`
index:
  path: %s
chunker:
  size: 100
  overlap: 10
embedder:
  type: hashing
  hashing:
    dimension: 64
    bigrams: true
source:
  type: dir
  dir:
    root: %s
store:
  type: local
  local: %s
log:
  level: error
`, indexPath, docs, storeDir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o600))
	return cfgPath, indexPath, storeDir
}

func TestBuildQueryInspect(t *testing.T) {
	ctx := context.Background()
	cfgPath, indexPath, storeDir := writeWorkspace(t)
	env := filepath.Join(t.TempDir(), "missing.env")

	require.Equal(t, 0, run(ctx, "build", []string{"-config", cfgPath, "-env", env}))

	info, err := persistence.Inspect(indexPath)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Count)
	assert.Equal(t, 64, info.Dimension)

	current, err := blobstore.Resolve(ctx, blobstore.NewLocalStore(storeDir))
	require.NoError(t, err)
	assert.Contains(t, current, "kb.rgx.")

	assert.Equal(t, 0, run(ctx, "query", []string{"-config=" + cfgPath, "-env", env, "-k", "1", "object", "storage"}))
	assert.Equal(t, 0, run(ctx, "query", []string{"-config", cfgPath, "-env", env, "-from-store", "segments"}))
	assert.Equal(t, 0, run(ctx, "inspect", []string{"-config", cfgPath, "-env", env, "-stats"}))

	// Resuming adds the same documents again.
	require.Equal(t, 0, run(ctx, "build", []string{"-config", cfgPath, "-env", env, "-resume"}))
	info, err = persistence.Inspect(indexPath)
	require.NoError(t, err)
	assert.Equal(t, 4, info.Count)
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	cfgPath, _, _ := writeWorkspace(t)

	assert.Equal(t, 2, run(ctx, "unknown", nil))
	assert.Equal(t, 1, run(ctx, "query", []string{"-config", cfgPath}))
	assert.Equal(t, 1, run(ctx, "inspect", []string{"-config", cfgPath}))
	assert.Equal(t, 2, run(ctx, "build", []string{"-config"}))
}

func TestSplitFlags(t *testing.T) {
	for _, args := range [][]string{
		{"-config", "a.yaml", "-k", "3", "text"},
		{"-k", "3", "--config=a.yaml", "text"},
	} {
		fs := newSharedFlags()
		rest, err := splitFlags(fs.set, args)
		require.NoError(t, err)
		assert.Equal(t, "a.yaml", *fs.config)
		assert.Equal(t, []string{"-k", "3", "text"}, rest)
	}
}
