package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ExistsFile(t *testing.T) {
	root := t.TempDir()
	store := New(root, CheckExistenceOnly)

	assert.False(t, store.Exists("slides.pptx"))

	require.NoError(t, os.WriteFile(filepath.Join(root, "slides.pptx"), []byte("x"), 0o644))
	assert.True(t, store.Exists("slides.pptx"))
}

func TestStore_EmptyFileCounts(t *testing.T) {
	// Existence is the only signal; a zero-byte file is still an artifact.
	root := t.TempDir()
	store := New(root, CheckExistenceOnly)

	require.NoError(t, os.WriteFile(filepath.Join(root, "video.mp4"), nil, 0o644))
	assert.True(t, store.Exists("video.mp4"))
}

func TestStore_DirectoryNeedsAtLeastOneEntry(t *testing.T) {
	root := t.TempDir()
	store := New(root, CheckExistenceOnly)

	dir := filepath.Join(root, "intermediate", "icons")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	assert.False(t, store.Exists("intermediate/icons"), "empty directory is not a complete artifact")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "title.png"), []byte("png"), 0o644))
	assert.True(t, store.Exists("intermediate/icons"))
}

func TestStore_ExistsAll(t *testing.T) {
	root := t.TempDir()
	store := New(root, CheckExistenceOnly)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("b"), 0o644))

	assert.True(t, store.ExistsAll("a.txt", "b.txt"))
	assert.False(t, store.ExistsAll("a.txt", "missing.txt"))
	assert.False(t, store.ExistsAll(), "an empty artifact list is never complete")
}

func TestStore_Path(t *testing.T) {
	store := New("/out", CheckExistenceOnly)
	assert.Equal(t, filepath.Join("/out", "intermediate", "slides.json"),
		store.Path("intermediate/slides.json"))
	assert.Equal(t, "/out", store.Root())
}
