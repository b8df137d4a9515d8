package fs_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lpm/internal/adapters/fs"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func TestWalker_WalkFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".git/config":              "git config",
		"node_modules/dep/x.js":    "linked",
		"lib/index.js":             "module.exports = 1",
		"package.json":             "{}",
		".lpm-stamp.json":          "{}",
		"README.md":                "# readme",
		"lib/nested/deep/file.txt": "deep",
	})

	var got []string
	for path := range fs.NewWalker().WalkFiles(root, []string{"node_modules", ".lpm-stamp.json"}) {
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		got = append(got, filepath.ToSlash(rel))
	}

	assert.Equal(t, []string{"README.md", "lib/index.js", "lib/nested/deep/file.txt", "package.json"}, got)
}

func TestWalker_StopsEarly(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "1", "b": "2", "c": "3"})

	var got []string
	for path := range fs.NewWalker().WalkFiles(root, nil) {
		got = append(got, filepath.Base(path))
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestHasher_HashTree(t *testing.T) {
	hasher := fs.NewHasher(fs.NewWalker())
	files := map[string]string{
		"package.json": `{"name":"left-pad"}`,
		"index.js":     "module.exports = leftPad",
	}

	first := t.TempDir()
	second := t.TempDir()
	writeTree(t, first, files)
	writeTree(t, second, files)

	h1, err := hasher.HashTree(first)
	require.NoError(t, err)
	h2, err := hasher.HashTree(second)
	require.NoError(t, err)
	assert.Len(t, h1, 16)
	assert.Equal(t, h1, h2, "identical trees in different locations hash the same")

	t.Run("content change", func(t *testing.T) {
		dir := t.TempDir()
		writeTree(t, dir, files)
		writeTree(t, dir, map[string]string{"index.js": "tampered"})
		h, err := hasher.HashTree(dir)
		require.NoError(t, err)
		assert.NotEqual(t, h1, h)
	})

	t.Run("rename", func(t *testing.T) {
		dir := t.TempDir()
		writeTree(t, dir, map[string]string{
			"package.json": files["package.json"],
			"main.js":      files["index.js"],
		})
		h, err := hasher.HashTree(dir)
		require.NoError(t, err)
		assert.NotEqual(t, h1, h)
	})

	t.Run("skipped entries", func(t *testing.T) {
		dir := t.TempDir()
		writeTree(t, dir, files)
		writeTree(t, dir, map[string]string{".lpm-stamp.json": "{}", "node_modules/x/index.js": "x"})
		h, err := hasher.HashTree(dir, ".lpm-stamp.json", "node_modules")
		require.NoError(t, err)
		assert.Equal(t, h1, h)
	})

	t.Run("executable bit", func(t *testing.T) {
		dir := t.TempDir()
		writeTree(t, dir, files)
		require.NoError(t, os.Chmod(filepath.Join(dir, "index.js"), 0o700)) //nolint:gosec // Test file permissions
		h, err := hasher.HashTree(dir)
		require.NoError(t, err)
		assert.NotEqual(t, h1, h)
	})
}

func TestHasher_Symlinks(t *testing.T) {
	hasher := fs.NewHasher(fs.NewWalker())
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"target.js": "x"})
	require.NoError(t, os.Symlink("target.js", filepath.Join(dir, "link.js")))

	h1, err := hasher.HashTree(dir)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "link.js")))
	require.NoError(t, os.Symlink("elsewhere.js", filepath.Join(dir, "link.js")))
	h2, err := hasher.HashTree(dir)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestHasher_ComputeFileHash(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a": "same", "b": "same", "c": "other"})
	hasher := fs.NewHasher(fs.NewWalker())

	var sums []uint64
	for _, name := range []string{"a", "b", "c"} {
		sum, err := hasher.ComputeFileHash(filepath.Join(dir, name))
		require.NoError(t, err)
		sums = append(sums, sum)
	}
	assert.Equal(t, sums[0], sums[1])
	assert.NotEqual(t, sums[0], sums[2])
	assert.False(t, slices.Contains(sums, 0))

	_, err := hasher.ComputeFileHash(filepath.Join(dir, "missing"))
	require.Error(t, err)
}
