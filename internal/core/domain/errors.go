package domain

import (
	"fmt"
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrInvalidVersionSyntax is returned when a version or constraint cannot be parsed.
	ErrInvalidVersionSyntax = zerr.New("invalid version syntax")

	// ErrNotFound is returned when the registry has no such package or version.
	ErrNotFound = zerr.New("package not found")

	// ErrNetwork is returned when the registry cannot be reached after retries.
	ErrNetwork = zerr.New("registry unreachable")

	// ErrIntegrityMismatch is returned when fetched or stored content does not match its digest.
	ErrIntegrityMismatch = zerr.New("integrity mismatch")

	// ErrUnsatisfiableConstraint is returned when no version satisfies every requirement on a package.
	ErrUnsatisfiableConstraint = zerr.New("unsatisfiable constraint")

	// ErrResolutionDidNotConverge is returned when the resolver exceeds its pass bound.
	ErrResolutionDidNotConverge = zerr.New("resolution did not converge")

	// ErrCorruptLockfile is returned when the lockfile cannot be decoded or fails validation.
	ErrCorruptLockfile = zerr.New("corrupt lockfile")

	// ErrLockfileOutOfDate is returned by frozen installs when the lockfile does not match the manifest.
	ErrLockfileOutOfDate = zerr.New("lockfile is out of date with package.json")

	// ErrLockfileNotFound is returned by frozen installs when no lockfile exists.
	ErrLockfileNotFound = zerr.New("lockfile not found")

	// ErrMissingDependency is returned when a graph edge points at a package that is not in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrDuplicatePackage is returned when a package is added to a graph twice.
	ErrDuplicatePackage = zerr.New("duplicate package")

	// ErrInvalidIntegrity is returned when an integrity string is malformed or uses an unsupported algorithm.
	ErrInvalidIntegrity = zerr.New("invalid integrity string")

	// ErrInvalidPackageName is returned when a package name cannot be used as a path component.
	ErrInvalidPackageName = zerr.New("invalid package name")

	// ErrUnsupportedSpecifier is returned for dependency specifiers lpm does not handle (git, file, alias).
	ErrUnsupportedSpecifier = zerr.New("unsupported dependency specifier")

	// ErrManifestNotFound is returned when package.json cannot be found.
	ErrManifestNotFound = zerr.New("could not find package.json")

	// ErrManifestReadFailed is returned when package.json cannot be read.
	ErrManifestReadFailed = zerr.New("failed to read package.json")

	// ErrManifestParseFailed is returned when package.json cannot be parsed.
	ErrManifestParseFailed = zerr.New("failed to parse package.json")

	// ErrManifestWriteFailed is returned when package.json cannot be written.
	ErrManifestWriteFailed = zerr.New("failed to write package.json")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrLockfileReadFailed is returned when the lockfile cannot be read.
	ErrLockfileReadFailed = zerr.New("failed to read lockfile")

	// ErrLockfileWriteFailed is returned when the lockfile cannot be written.
	ErrLockfileWriteFailed = zerr.New("failed to write lockfile")

	// ErrStoreCreateFailed is returned when the store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create store directory")

	// ErrStoreWriteFailed is returned when a tarball cannot be written into the store.
	ErrStoreWriteFailed = zerr.New("failed to write tarball to store")

	// ErrStoreReadFailed is returned when a stored tarball cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read tarball from store")

	// ErrRegistryResponseInvalid is returned when the registry returns a document that cannot be parsed.
	ErrRegistryResponseInvalid = zerr.New("invalid registry response")

	// ErrRegistryCacheReadFailed is returned when the metadata cache cannot be read.
	ErrRegistryCacheReadFailed = zerr.New("failed to read registry cache")

	// ErrRegistryCacheWriteFailed is returned when the metadata cache cannot be written.
	ErrRegistryCacheWriteFailed = zerr.New("failed to write registry cache")

	// ErrExtractFailed is returned when a tarball cannot be unpacked.
	ErrExtractFailed = zerr.New("failed to extract tarball")

	// ErrUnsafeArchivePath is returned when an archive entry would escape its destination.
	ErrUnsafeArchivePath = zerr.New("archive entry escapes destination")

	// ErrMaterializeFailed is returned when a plan entry cannot be materialized on disk.
	ErrMaterializeFailed = zerr.New("failed to materialize package")

	// ErrLinkFailed is returned when a dependency link cannot be created.
	ErrLinkFailed = zerr.New("failed to link package")

	// ErrInstallFailed is returned when one or more plan entries fail to install.
	ErrInstallFailed = zerr.New("install failed")

	// ErrInstallCanceled is returned when an install is interrupted before every entry ran.
	ErrInstallCanceled = zerr.New("install canceled")

	// ErrNoPackagesSpecified is returned when the add command receives no packages.
	ErrNoPackagesSpecified = zerr.New("no packages specified")
)

// Annotate wraps sentinel so it still matches with errors.Is and attaches
// the given key/value pairs as metadata. Keys must be strings.
func Annotate(sentinel error, kv ...any) error {
	err := zerr.Wrap(sentinel, "")
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		err = zerr.With(err, key, kv[i+1])
	}
	return err
}

// RequirementTrace is one contributing requirement in an unsatisfiable constraint report.
type RequirementTrace struct {
	// Parent is the requiring package, or empty for the root manifest.
	Parent string
	// ParentVersion is the picked version of Parent at the time of failure.
	ParentVersion Version
	// Constraint is the range the parent places on the package.
	Constraint Constraint
	// Path is the chain of package names from the root manifest to Parent.
	Path []string
}

// String renders the requirement as "root > a@1.0.0 > b@2.0.0 requires ^1.0.0".
func (r RequirementTrace) String() string {
	var b strings.Builder
	b.WriteString(RootName)
	for _, name := range r.Path {
		b.WriteString(" > ")
		b.WriteString(name)
	}
	if r.Parent != "" {
		b.WriteString("@")
		b.WriteString(r.ParentVersion.String())
	}
	b.WriteString(" requires ")
	b.WriteString(r.Constraint.String())
	return b.String()
}

// UnsatisfiableError reports a package for which no version satisfies every requirement.
type UnsatisfiableError struct {
	Package      string
	Requirements []RequirementTrace
	// Available holds the versions the registry offered, if any were listed.
	Available []Version
	// Cause is set when the failure comes from a registry lookup, e.g. ErrNotFound.
	Cause error
}

// Error implements the error interface.
func (e *UnsatisfiableError) Error() string {
	var b strings.Builder
	b.WriteString(ErrUnsatisfiableConstraint.Error())
	b.WriteString(" for ")
	b.WriteString(e.Package)
	for _, req := range e.Requirements {
		b.WriteString("\n  ")
		b.WriteString(req.String())
	}
	if e.Cause != nil {
		b.WriteString("\n  cause: ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both the sentinel and the registry cause to errors.Is.
func (e *UnsatisfiableError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrUnsatisfiableConstraint, e.Cause}
	}
	return []error{ErrUnsatisfiableConstraint}
}

// ConvergenceError reports that the resolver hit its pass bound.
type ConvergenceError struct {
	Passes int
	// Oscillating names the packages whose picks were still changing in the last pass.
	Oscillating []string
}

// Error implements the error interface.
func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s after %d passes (still changing: %s)",
		ErrResolutionDidNotConverge.Error(), e.Passes, strings.Join(e.Oscillating, ", "))
}

// Unwrap returns the sentinel.
func (e *ConvergenceError) Unwrap() error {
	return ErrResolutionDidNotConverge
}
