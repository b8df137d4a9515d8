package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/lpm/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher fingerprints directory trees with xxhash.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// HashTree computes a single hash over the relative paths and contents of
// every file under root. Entries whose base name matches a skip pattern are
// left out. Symlinks contribute their target rather than the linked content.
func (h *Hasher) HashTree(root string, skip ...string) (string, error) {
	hasher := xxhash.New()

	for path := range h.walker.WalkFiles(root, skip) {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to relativize path"), "path", path)
		}
		if err := h.hashEntry(path, filepath.ToSlash(rel), hasher); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

func (h *Hasher) hashEntry(path, rel string, mainHasher io.Writer) error {
	_, _ = mainHasher.Write([]byte(rel))
	_, _ = mainHasher.Write([]byte{0})

	info, err := os.Lstat(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat path"), "path", path)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read link"), "path", path)
		}
		_, _ = mainHasher.Write([]byte(target))
		_, _ = mainHasher.Write([]byte{0})
		return nil
	}

	hash, err := h.ComputeFileHash(path)
	if err != nil {
		return err
	}

	// Executable bits are part of the fingerprint.
	_, _ = mainHasher.Write([]byte{byte(info.Mode().Perm() & 0o111)})

	if err := binary.Write(mainHasher, binary.LittleEndian, hash); err != nil {
		return zerr.Wrap(err, "failed to write hash to digest")
	}
	return nil
}
