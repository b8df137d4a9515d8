// Package app implements the application layer for lpm.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/lpm/internal/adapters/detector"
	"go.trai.ch/lpm/internal/adapters/diagram"
	"go.trai.ch/lpm/internal/adapters/linear"
	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/lpm/internal/core/ports"
	"go.trai.ch/lpm/internal/engine/installer"
	"go.trai.ch/lpm/internal/engine/planner"
	"go.trai.ch/lpm/internal/engine/resolver"
	"go.trai.ch/lpm/internal/ui/output"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	registry     ports.RegistryClient
	resolver     *resolver.Resolver
	planner      *planner.Planner
	installer    *installer.Installer
	lockfiles    ports.LockfileStore
	logger       ports.Logger
	root         string
	progress     io.Writer
}

// New creates a new App instance rooted at the current directory.
func New(
	loader ports.ConfigLoader,
	registry ports.RegistryClient,
	res *resolver.Resolver,
	plan *planner.Planner,
	inst *installer.Installer,
	lockfiles ports.LockfileStore,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		registry:     registry,
		resolver:     res,
		planner:      plan,
		installer:    inst,
		lockfiles:    lockfiles,
		logger:       log,
		root:         ".",
		progress:     os.Stderr,
	}
}

// WithRoot sets the project root directory. The graft wiring passes
// config.Root here, the same directory the adapters read their settings from.
func (a *App) WithRoot(dir string) *App {
	a.root = dir
	return a
}

// WithProgressOutput redirects install progress lines.
// This is primarily used for testing.
func (a *App) WithProgressOutput(w io.Writer) *App {
	a.progress = w
	return a
}

// SetJSONLogs switches the logger to JSON output when it supports it.
func (a *App) SetJSONLogs(enabled bool) {
	if l, ok := a.logger.(interface{ SetJSON(bool) }); ok {
		l.SetJSON(enabled)
	}
}

// LockfilePath returns the location of the project lockfile.
func (a *App) LockfilePath() string {
	return filepath.Join(a.root, domain.LockfileName)
}

// LoadLockfile reads the project lockfile. A missing lockfile yields nil, nil.
func (a *App) LoadLockfile() (*domain.ResolutionGraph, error) {
	return a.lockfiles.Load(a.LockfilePath())
}

// SaveLockfile writes g as the project lockfile.
func (a *App) SaveLockfile(g *domain.ResolutionGraph) error {
	return a.lockfiles.Save(a.LockfilePath(), g)
}

// ResolveOptions configuration for the Resolve method.
type ResolveOptions struct {
	// FallbackOnCorruptLock resolves from package.json alone instead of
	// failing on a corrupt lockfile.
	FallbackOnCorruptLock bool
}

// Resolve resolves the manifest's dependencies. Versions pinned by the
// lockfile are kept whenever they still satisfy every requirement.
func (a *App) Resolve(ctx context.Context, opts ResolveOptions) (*domain.ResolutionGraph, error) {
	manifest, err := a.configLoader.LoadManifest(a.root)
	if err != nil {
		return nil, err
	}

	locked, err := a.lockedGraph(opts.FallbackOnCorruptLock)
	if err != nil {
		return nil, err
	}

	return a.resolver.Resolve(ctx, manifest, preferredVersions(locked))
}

// lockedGraph loads the lockfile. A corrupt lockfile is an error unless
// fallback is set, in which case it is reported and treated as absent.
func (a *App) lockedGraph(fallback bool) (*domain.ResolutionGraph, error) {
	locked, err := a.LoadLockfile()
	if err == nil {
		return locked, nil
	}
	if !fallback || !errors.Is(err, domain.ErrCorruptLockfile) {
		return nil, err
	}
	a.logger.Warn("lockfile is corrupt, resolving from package.json")
	return nil, nil
}

// Plan turns a resolution graph into an install plan.
func (a *App) Plan(g *domain.ResolutionGraph) *domain.InstallPlan {
	return a.planner.Plan(g)
}

// Graph resolves the manifest and renders the result as "dot" or "svg".
func (a *App) Graph(ctx context.Context, format string, opts ResolveOptions) ([]byte, error) {
	g, err := a.Resolve(ctx, opts)
	if err != nil {
		return nil, err
	}
	return diagram.Render(ctx, g, diagram.Format(format))
}

// InstallOptions configuration for the Install method.
type InstallOptions struct {
	// Frozen installs exactly what the lockfile records and fails when it
	// is missing or no longer matches package.json.
	Frozen bool
	// FallbackOnCorruptLock re-resolves instead of failing on a corrupt lockfile.
	FallbackOnCorruptLock bool
	// Concurrency overrides the configured worker count when positive.
	Concurrency int
	// Verbose reports every entry as it starts.
	Verbose bool
	// OutputMode is one of "auto", "terminal", "ci" or "plain".
	OutputMode string
}

// Install resolves (or reuses the lockfile), plans and materializes the
// project's dependencies, then records the graph in the lockfile.
//
//nolint:cyclop // orchestration function
func (a *App) Install(ctx context.Context, opts InstallOptions) (*domain.InstallResult, error) {
	settings, err := a.configLoader.LoadSettings(a.root)
	if err != nil {
		return nil, err
	}

	manifest, err := a.configLoader.LoadManifest(a.root)
	if err != nil {
		return nil, err
	}

	locked, err := a.lockedGraph(opts.FallbackOnCorruptLock && !opts.Frozen)
	if err != nil {
		return nil, err
	}

	var g *domain.ResolutionGraph
	switch {
	case opts.Frozen && locked == nil:
		return nil, zerr.With(zerr.Wrap(domain.ErrLockfileNotFound, "frozen install requires a lockfile"),
			"path", a.LockfilePath())
	case opts.Frozen:
		if err := lockMatches(manifest, locked); err != nil {
			return nil, err
		}
		g = locked
	case locked != nil && lockMatches(manifest, locked) == nil:
		g = locked
	default:
		g, err = a.resolver.Resolve(ctx, manifest, preferredVersions(locked))
		if err != nil {
			return nil, err
		}
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = settings.Concurrency
	}

	mode := detector.ResolveMode(detector.DetectEnvironment(), opts.OutputMode)
	reporter := linear.NewReporter(a.progress,
		linear.WithVerbose(opts.Verbose || mode == detector.ModeCI),
		linear.WithProfile(colorProfile(mode)),
	)

	plan := a.planner.Plan(g)
	result, err := a.installer.Install(ctx, plan, settings.InstallDir, installer.Options{
		Concurrency: concurrency,
		Reporter:    reporter,
	})
	if err != nil {
		return result, err
	}

	if g != locked {
		if err := a.SaveLockfile(g); err != nil {
			return result, err
		}
		a.logger.Info("wrote " + a.LockfilePath())
	}
	return result, nil
}

// Add records each "name[@range]" spec in package.json. Specs without a range
// are pinned with a caret on the package's latest dist-tag.
func (a *App) Add(ctx context.Context, specs []string) error {
	if len(specs) == 0 {
		return domain.ErrNoPackagesSpecified
	}

	deps := make(map[string]string, len(specs))
	for _, spec := range specs {
		name, raw := splitSpec(spec)
		if err := domain.ValidatePackageName(name); err != nil {
			return err
		}

		if raw == "" {
			latest, err := a.latest(ctx, name)
			if err != nil {
				return err
			}
			raw = "^" + latest.String()
		} else if _, err := domain.ParseSpecifier(raw); err != nil {
			return zerr.With(err, "package", name)
		}
		deps[name] = raw
	}

	if err := a.configLoader.AddDependencies(a.root, deps); err != nil {
		return err
	}

	for _, name := range slices.Sorted(maps.Keys(deps)) {
		a.logger.Info(fmt.Sprintf("added %s@%s", name, deps[name]))
	}
	return nil
}

func (a *App) latest(ctx context.Context, name string) (domain.Version, error) {
	tags, err := a.registry.DistTags(ctx, name)
	if err != nil {
		return domain.Version{}, err
	}
	v, ok := tags["latest"]
	if !ok {
		return domain.Version{}, domain.Annotate(domain.ErrNotFound, "package", name, "tag", "latest")
	}
	return v, nil
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	Modules bool
	Store   bool
	Cache   bool
}

// Clean removes installed packages and caches based on the provided options.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	settings, err := a.configLoader.LoadSettings(a.root)
	if err != nil {
		return err
	}

	var errs error

	remove := func(path string, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	if options.Modules {
		remove(settings.InstallDir, "installed packages")
	}

	if options.Store {
		remove(settings.StoreDir, "tarball store")
	}

	if options.Cache {
		remove(settings.CacheDir, "metadata cache")
	}

	return errs
}

func colorProfile(mode detector.OutputMode) func() termenv.Profile {
	switch mode {
	case detector.ModeTerminal:
		return output.ColorProfile
	case detector.ModePlain:
		return func() termenv.Profile { return termenv.Ascii }
	default:
		return output.ColorProfileANSI
	}
}

// splitSpec splits "name@range" at the version separator, keeping a leading scope "@".
func splitSpec(spec string) (name, raw string) {
	idx := strings.LastIndex(spec, "@")
	if idx <= 0 {
		return spec, ""
	}
	return spec[:idx], spec[idx+1:]
}

func preferredVersions(g *domain.ResolutionGraph) map[string]domain.Version {
	if g == nil {
		return nil
	}
	preferred := make(map[string]domain.Version, g.Len())
	for node := range g.Walk() {
		preferred[node.Name] = node.Version
	}
	return preferred
}

// lockMatches reports whether the lockfile was produced from the manifest's
// current dependencies. Dist-tag specifiers match any locked root.
func lockMatches(manifest *domain.Manifest, locked *domain.ResolutionGraph) error {
	outOfDate := func(name string) error {
		return domain.Annotate(domain.ErrLockfileOutOfDate, "package", name)
	}

	for name, raw := range manifest.Dependencies {
		spec, err := domain.ParseSpecifier(raw)
		if err != nil {
			return zerr.With(err, "package", name)
		}
		c, ok := locked.RootConstraint(name)
		if !ok {
			return outOfDate(name)
		}
		if !spec.IsTag() && !spec.Constraint.Equal(c) {
			return outOfDate(name)
		}
	}
	for _, name := range locked.Roots() {
		if _, ok := manifest.Dependencies[name]; !ok {
			return outOfDate(name)
		}
	}
	return nil
}
