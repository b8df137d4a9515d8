package ports

// Hasher fingerprints materialized package trees.
//
//go:generate mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// HashTree computes a fingerprint of every regular file under root,
	// skipping the given top-level entries.
	HashTree(root string, skip ...string) (string, error)
}
