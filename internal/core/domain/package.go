package domain

import (
	"crypto/sha1" //nolint:gosec // sha1 integrity strings still appear in older registry documents
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"io"
	"strings"
)

// Supported integrity algorithms, strongest first.
const (
	AlgoSHA512 = "sha512"
	AlgoSHA384 = "sha384"
	AlgoSHA256 = "sha256"
	AlgoSHA1   = "sha1"
)

var algoStrength = map[string]int{
	AlgoSHA512: 4,
	AlgoSHA384: 3,
	AlgoSHA256: 2,
	AlgoSHA1:   1,
}

var algoSize = map[string]int{
	AlgoSHA512: sha512.Size,
	AlgoSHA384: sha512.Size384,
	AlgoSHA256: sha256.Size,
	AlgoSHA1:   sha1.Size,
}

// Integrity is a parsed Subresource Integrity digest.
type Integrity struct {
	Algorithm string
	Digest    []byte
}

// ParseIntegrity parses an SRI string such as "sha512-<base64>". When several
// space-separated hashes are present the strongest supported one is kept.
func ParseIntegrity(s string) (Integrity, error) {
	var best Integrity
	for field := range strings.FieldsSeq(s) {
		algo, b64, ok := strings.Cut(field, "-")
		if !ok {
			continue
		}
		size, supported := algoSize[algo]
		if !supported {
			continue
		}
		if idx := strings.IndexByte(b64, '?'); idx >= 0 {
			b64 = b64[:idx]
		}
		digest, err := base64.StdEncoding.DecodeString(b64)
		if err != nil || len(digest) != size {
			return Integrity{}, Annotate(ErrInvalidIntegrity, "integrity", s)
		}
		if best.Algorithm == "" || algoStrength[algo] > algoStrength[best.Algorithm] {
			best = Integrity{Algorithm: algo, Digest: digest}
		}
	}
	if best.Algorithm == "" {
		return Integrity{}, Annotate(ErrInvalidIntegrity, "integrity", s)
	}
	return best, nil
}

// IntegrityFromHex builds an Integrity from a hex digest, as found in npm's dist.shasum.
func IntegrityFromHex(algo, hexDigest string) (Integrity, error) {
	size, ok := algoSize[algo]
	if !ok {
		return Integrity{}, Annotate(ErrInvalidIntegrity, "algorithm", algo)
	}
	digest, err := hex.DecodeString(hexDigest)
	if err != nil || len(digest) != size {
		return Integrity{}, Annotate(ErrInvalidIntegrity, "digest", hexDigest)
	}
	return Integrity{Algorithm: algo, Digest: digest}, nil
}

// ComputeIntegrity hashes r with algo and returns the resulting Integrity.
func ComputeIntegrity(algo string, r io.Reader) (Integrity, error) {
	h, err := NewHash(algo)
	if err != nil {
		return Integrity{}, err
	}
	if _, err := io.Copy(h, r); err != nil {
		return Integrity{}, err
	}
	return Integrity{Algorithm: algo, Digest: h.Sum(nil)}, nil
}

// NewHash returns a fresh hash for algo.
func NewHash(algo string) (hash.Hash, error) {
	switch algo {
	case AlgoSHA512:
		return sha512.New(), nil
	case AlgoSHA384:
		return sha512.New384(), nil
	case AlgoSHA256:
		return sha256.New(), nil
	case AlgoSHA1:
		return sha1.New(), nil //nolint:gosec // see import
	}
	return nil, Annotate(ErrInvalidIntegrity, "algorithm", algo)
}

// IsZero reports whether no digest is set.
func (i Integrity) IsZero() bool {
	return i.Algorithm == "" || len(i.Digest) == 0
}

// String renders the SRI form "<algo>-<base64>".
func (i Integrity) String() string {
	if i.IsZero() {
		return ""
	}
	return i.Algorithm + "-" + base64.StdEncoding.EncodeToString(i.Digest)
}

// Hex returns the digest in lowercase hex.
func (i Integrity) Hex() string {
	return hex.EncodeToString(i.Digest)
}

// Equal reports whether both digests use the same algorithm and bytes.
func (i Integrity) Equal(o Integrity) bool {
	return i.Algorithm == o.Algorithm && string(i.Digest) == string(o.Digest)
}

// TarballRef locates a package archive and the digest it must match.
type TarballRef struct {
	URL       string
	Integrity Integrity
}

// PackageMetadata describes one published version of a package.
type PackageMetadata struct {
	Name         string
	Version      Version
	Dependencies map[string]Constraint
	Tarball      TarballRef
}

// Tarball is an archive stream returned by the registry.
type Tarball struct {
	Body io.ReadCloser
	// Digest is the server-declared digest, if the response carried one.
	Digest Integrity
}
