package domain

// LockfileVersion is the only lockfile format version this build reads and writes.
const LockfileVersion = 1

// Lockfile is the persisted document form of a ResolutionGraph.
type Lockfile struct {
	// Version is the lockfile format version.
	Version int `yaml:"lockfileVersion"`

	// Roots maps direct dependencies to the constraint the manifest declared.
	Roots map[string]string `yaml:"roots"`

	// Packages lists every resolved package, sorted by name.
	Packages []LockedPackage `yaml:"packages"`
}

// LockedPackage is one resolved package in the lockfile.
type LockedPackage struct {
	Name         string            `yaml:"name"`
	Version      string            `yaml:"version"`
	Resolved     string            `yaml:"resolved"`
	Integrity    string            `yaml:"integrity"`
	Dependencies map[string]string `yaml:"dependencies,omitempty"`
}
