package fsops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	fs := OS{}
	path := filepath.Join(t.TempDir(), "a", "b", "c")

	require.NoError(t, fs.EnsureDir(path))
	assert.DirExists(t, path)

	// Idempotent.
	require.NoError(t, fs.EnsureDir(path))
}

func TestRemoveTree(t *testing.T) {
	fs := OS{}
	dir := filepath.Join(t.TempDir(), "tree")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "f"), []byte("x"), 0o644))

	require.NoError(t, fs.RemoveTree(dir))
	assert.NoDirExists(t, dir)

	// Absent path is success.
	require.NoError(t, fs.RemoveTree(dir))
}

func TestRemoveFile(t *testing.T) {
	fs := OS{}
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, fs.RemoveFile(path))
	assert.NoFileExists(t, path)

	// Absent path is success.
	require.NoError(t, fs.RemoveFile(path))
}

func TestMakeUniqueDir(t *testing.T) {
	fs := OS{}
	parent := t.TempDir()

	first, err := fs.MakeUniqueDir(parent, "scratch")
	require.NoError(t, err)
	second, err := fs.MakeUniqueDir(parent, "scratch")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	for _, dir := range []string{first, second} {
		assert.DirExists(t, dir)
		assert.Equal(t, parent, filepath.Dir(dir))
		assert.True(t, strings.HasPrefix(filepath.Base(dir), "scratch-"), "got %q", dir)
	}
}

func TestCanonicalize(t *testing.T) {
	fs := OS{}
	target := filepath.Join(t.TempDir(), "real")
	require.NoError(t, os.MkdirAll(target, 0o755))
	link := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(target, link))

	got, err := fs.Canonicalize(link)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))

	want, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
