package ports

// Extractor unpacks package archives.
//
//go:generate mockgen -source=extractor.go -destination=mocks/mock_extractor.go -package=mocks
type Extractor interface {
	// Extract unpacks the gzipped tarball at archivePath into dest,
	// dropping the archive's leading path component.
	Extract(archivePath, dest string) error
}
