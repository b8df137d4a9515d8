package archive_test

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lpm/internal/adapters/archive"
	"go.trai.ch/lpm/internal/core/domain"
)

type entry struct {
	name     string
	body     string
	mode     int64
	typeflag byte
	linkname string
}

func writeArchive(t *testing.T, entries []entry) string {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		typeflag := e.typeflag
		if typeflag == 0 {
			typeflag = tar.TypeReg
		}
		mode := e.mode
		if mode == 0 {
			mode = 0o644
		}
		hdr := &tar.Header{
			Name:     e.name,
			Mode:     mode,
			Size:     int64(len(e.body)),
			Typeflag: typeflag,
			Linkname: e.linkname,
		}
		if typeflag != tar.TypeReg {
			hdr.Size = 0
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "pkg.tgz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestExtract(t *testing.T) {
	archivePath := writeArchive(t, []entry{
		{name: "package/", typeflag: tar.TypeDir, mode: 0o755},
		{name: "package/package.json", body: `{"name":"left-pad"}`},
		{name: "package/lib/index.js", body: "module.exports = 1"},
		{name: "package/bin/cli.js", body: "#!/usr/bin/env node", mode: 0o755},
		{name: "package/link.js", typeflag: tar.TypeSymlink, linkname: "/etc/passwd"},
	})
	dest := filepath.Join(t.TempDir(), "out")

	require.NoError(t, archive.NewExtractor().Extract(archivePath, dest))

	data, err := os.ReadFile(filepath.Join(dest, "package.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"left-pad"}`, string(data))

	data, err = os.ReadFile(filepath.Join(dest, "lib", "index.js"))
	require.NoError(t, err)
	assert.Equal(t, "module.exports = 1", string(data))

	info, err := os.Stat(filepath.Join(dest, "bin", "cli.js"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o100, "executable bit is kept")

	_, err = os.Lstat(filepath.Join(dest, "link.js"))
	assert.True(t, os.IsNotExist(err), "symlinks are not materialized")
}

func TestExtract_OtherTopLevelDirectory(t *testing.T) {
	archivePath := writeArchive(t, []entry{
		{name: "node/package.json", body: "{}"},
		{name: "./node/README.md", body: "readme"},
	})
	dest := t.TempDir()

	require.NoError(t, archive.NewExtractor().Extract(archivePath, dest))
	assert.FileExists(t, filepath.Join(dest, "package.json"))
	assert.FileExists(t, filepath.Join(dest, "README.md"))
}

func TestExtract_RejectsTraversal(t *testing.T) {
	for _, name := range []string{
		"package/../../evil.js",
		"package/a/../../../evil.js",
		"/abs/evil.js",
	} {
		t.Run(name, func(t *testing.T) {
			archivePath := writeArchive(t, []entry{{name: name, body: "x"}})
			parent := t.TempDir()
			dest := filepath.Join(parent, "out")

			err := archive.NewExtractor().Extract(archivePath, dest)
			require.ErrorIs(t, err, domain.ErrUnsafeArchivePath)
			assert.NoFileExists(t, filepath.Join(parent, "evil.js"))
		})
	}
}

func TestExtract_NotGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tgz")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	err := archive.NewExtractor().Extract(path, t.TempDir())
	require.ErrorIs(t, err, domain.ErrExtractFailed)
}

func TestExtract_MissingArchive(t *testing.T) {
	err := archive.NewExtractor().Extract(filepath.Join(t.TempDir(), "missing.tgz"), t.TempDir())
	require.ErrorIs(t, err, domain.ErrExtractFailed)
}
