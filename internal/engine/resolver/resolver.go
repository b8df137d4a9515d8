// Package resolver computes a conflict-free version assignment for a manifest's dependency closure.
package resolver

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/lpm/internal/core/ports"
	"go.trai.ch/zerr"
)

// Resolver runs a breadth-first fixed-point iteration over package names.
// It is single-threaded; registry calls are its only blocking points.
type Resolver struct {
	registry    ports.RegistryClient
	logger      ports.Logger
	maxPasses   int
	callTimeout time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxPasses bounds the number of worklist generations. Values below 1 are ignored.
func WithMaxPasses(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxPasses = n
		}
	}
}

// WithCallTimeout bounds each registry call. An expired call is reported as domain.ErrNetwork.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.callTimeout = d
	}
}

// New creates a Resolver.
func New(registry ports.RegistryClient, logger ports.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		registry:  registry,
		logger:    logger,
		maxPasses: domain.DefaultMaxPasses,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve computes the resolution graph for the manifest's dependencies.
// Versions in preferred are kept whenever they still satisfy every requirement,
// which lets a lockfile pin an otherwise re-resolved graph.
func (r *Resolver) Resolve(
	ctx context.Context,
	manifest *domain.Manifest,
	preferred map[string]domain.Version,
) (*domain.ResolutionGraph, error) {
	st := newState(ctx, r, preferred)

	if err := st.seedRoots(manifest); err != nil {
		return nil, err
	}

	if err := st.run(); err != nil {
		return nil, err
	}

	if err := st.conflictError(); err != nil {
		return nil, err
	}

	g, err := st.graph()
	if err != nil {
		return nil, err
	}

	for _, cycle := range g.Cycles() {
		r.logger.Info("dependency cycle: " + domain.FormatCycle(cycle))
	}
	return g, nil
}

// conflict records why a package currently has no pick.
type conflict struct {
	cause error
}

// dropped remembers the pick a conflict displaced and the requirements that
// displaced it. Seeing the same pair twice means re-picking only restores the
// conflict, so the pick is kept and the conflict becomes final.
type dropped struct {
	version domain.Version
	reqs    map[string]domain.Constraint
	final   bool
}

func (d dropped) matches(v domain.Version, reqs map[string]domain.Constraint) bool {
	return d.version.Equal(v) && maps.EqualFunc(d.reqs, reqs, domain.Constraint.Equal)
}

type state struct {
	ctx       context.Context
	r         *Resolver
	preferred map[string]domain.Version

	roots map[string]domain.Constraint
	// reqs maps child -> parent -> constraint. The root manifest is the empty parent.
	reqs      map[string]map[string]domain.Constraint
	picks     map[string]*domain.PackageMetadata
	conflicts map[string]conflict
	dropped   map[string]dropped

	versions    map[string][]domain.Version
	versionErrs map[string]error
	metadata    map[string]*domain.PackageMetadata

	queue  []string
	queued map[string]bool
	passes int
}

func newState(ctx context.Context, r *Resolver, preferred map[string]domain.Version) *state {
	return &state{
		ctx:         ctx,
		r:           r,
		preferred:   preferred,
		roots:       make(map[string]domain.Constraint),
		reqs:        make(map[string]map[string]domain.Constraint),
		picks:       make(map[string]*domain.PackageMetadata),
		conflicts:   make(map[string]conflict),
		dropped:     make(map[string]dropped),
		versions:    make(map[string][]domain.Version),
		versionErrs: make(map[string]error),
		metadata:    make(map[string]*domain.PackageMetadata),
		queued:      make(map[string]bool),
	}
}

// seedRoots parses the manifest specifiers, resolving dist-tags to exact versions.
func (st *state) seedRoots(manifest *domain.Manifest) error {
	for _, name := range slices.Sorted(maps.Keys(manifest.Dependencies)) {
		if err := domain.ValidatePackageName(name); err != nil {
			return err
		}
		spec, err := domain.ParseSpecifier(manifest.Dependencies[name])
		if err != nil {
			return zerr.With(err, "dependency", name)
		}

		c := spec.Constraint
		if spec.IsTag() {
			resolved, err := st.resolveTag(name, spec.Tag)
			if err != nil {
				var unsat *domain.UnsatisfiableError
				if errors.As(err, &unsat) {
					none := domain.NoneConstraint(spec.Raw)
					st.conflicts[name] = conflict{cause: unsat.Cause}
					st.roots[name] = none
					st.require(name, "", none)
					continue
				}
				return err
			}
			c = resolved
		}

		st.roots[name] = c
		st.require(name, "", c)
	}
	return nil
}

func (st *state) resolveTag(name, tag string) (domain.Constraint, error) {
	var tags map[string]domain.Version
	err := st.call(func(ctx context.Context) error {
		var err error
		tags, err = st.r.registry.DistTags(ctx, name)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Constraint{}, &domain.UnsatisfiableError{Package: name, Cause: err}
		}
		return domain.Constraint{}, err
	}
	v, ok := tags[tag]
	if !ok {
		cause := zerr.With(zerr.With(zerr.Wrap(domain.ErrNotFound, "dist-tag not found"), "package", name), "tag", tag)
		return domain.Constraint{}, &domain.UnsatisfiableError{Package: name, Cause: cause}
	}
	return domain.ExactConstraint(v), nil
}

// require records parent's constraint on child and schedules child.
func (st *state) require(child, parent string, c domain.Constraint) {
	byParent, ok := st.reqs[child]
	if !ok {
		byParent = make(map[string]domain.Constraint)
		st.reqs[child] = byParent
	}
	byParent[parent] = c
	st.enqueue(child)
}

// retract removes parent's constraint on child and schedules child.
func (st *state) retract(child, parent string) {
	if byParent, ok := st.reqs[child]; ok {
		delete(byParent, parent)
		if len(byParent) == 0 {
			delete(st.reqs, child)
		}
	}
	st.enqueue(child)
}

func (st *state) enqueue(name string) {
	if st.queued[name] {
		return
	}
	st.queued[name] = true
	st.queue = append(st.queue, name)
}

// run iterates passes until the worklist drains and no unreachable picks remain.
func (st *state) run() error {
	for {
		for len(st.queue) > 0 {
			if st.passes >= st.r.maxPasses {
				return &domain.ConvergenceError{Passes: st.passes, Oscillating: slices.Sorted(slices.Values(st.queue))}
			}
			if err := st.ctx.Err(); err != nil {
				return zerr.Wrap(err, "resolution canceled")
			}
			st.passes++

			generation := st.queue
			st.queue = nil
			st.queued = make(map[string]bool)
			for _, name := range generation {
				if err := st.process(name); err != nil {
					return err
				}
			}
		}

		if !st.pruneUnreachable() {
			return nil
		}
	}
}

// process re-evaluates the pick for name against its current requirements.
func (st *state) process(name string) error {
	reqs := st.reqs[name]
	if len(reqs) == 0 {
		st.unpick(name)
		delete(st.conflicts, name)
		delete(st.dropped, name)
		return nil
	}

	current := st.picks[name]
	if d, ok := st.dropped[name]; ok && d.final {
		if current != nil && d.matches(current.Version, reqs) {
			return nil
		}
		d.final = false
		st.dropped[name] = d
	}

	combined, ok := st.combined(name)
	if ok && current != nil && combined.Satisfies(current.Version) {
		delete(st.conflicts, name)
		return nil
	}
	if !ok {
		st.markConflict(name, nil)
		return nil
	}

	versions, err := st.listVersions(name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			st.markConflict(name, err)
			return nil
		}
		return err
	}

	v, found := st.choose(name, versions, combined)
	if !found {
		st.markConflict(name, nil)
		return nil
	}

	meta, err := st.getMetadata(name, v)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			st.markConflict(name, err)
			return nil
		}
		return err
	}

	delete(st.conflicts, name)
	st.setPick(name, meta)
	return nil
}

// combined intersects every requirement on name in parent order.
func (st *state) combined(name string) (domain.Constraint, bool) {
	reqs := st.reqs[name]
	parents := slices.Sorted(maps.Keys(reqs))
	c := reqs[parents[0]]
	for _, parent := range parents[1:] {
		var ok bool
		if c, ok = c.Intersect(reqs[parent]); !ok {
			return c, false
		}
	}
	return c, !c.IsEmpty()
}

func (st *state) choose(name string, versions []domain.Version, c domain.Constraint) (domain.Version, bool) {
	if pref, ok := st.preferred[name]; ok && c.Satisfies(pref) {
		if slices.ContainsFunc(versions, pref.Equal) {
			return pref, true
		}
	}
	return domain.PickHighest(versions, c)
}

// markConflict unpicks name. A nil cause keeps the previously recorded one,
// since registry lookups are memoised and stay valid for the whole run.
//
// A package whose own dependency closure constrains it (a cycle or a
// self-dependency) would otherwise alternate between picked and conflicted
// forever: the conflict retracts the requirement that caused it. The second
// identical conflict keeps the pick in place instead.
func (st *state) markConflict(name string, cause error) {
	if prev, ok := st.conflicts[name]; ok && cause == nil {
		cause = prev.cause
	}
	st.conflicts[name] = conflict{cause: cause}

	if current, ok := st.picks[name]; ok {
		reqs := maps.Clone(st.reqs[name])
		if d, seen := st.dropped[name]; seen && d.matches(current.Version, reqs) {
			st.dropped[name] = dropped{version: current.Version, reqs: reqs, final: true}
			return
		}
		st.dropped[name] = dropped{version: current.Version, reqs: reqs}
	}
	st.unpick(name)
}

func (st *state) setPick(name string, meta *domain.PackageMetadata) {
	st.unpick(name)
	st.picks[name] = meta
	for _, dep := range slices.Sorted(maps.Keys(meta.Dependencies)) {
		st.require(dep, name, meta.Dependencies[dep])
	}
}

// unpick drops the current pick of name and retracts its contributions.
func (st *state) unpick(name string) {
	old, ok := st.picks[name]
	if !ok {
		return
	}
	delete(st.picks, name)
	for _, dep := range slices.Sorted(maps.Keys(old.Dependencies)) {
		st.retract(dep, name)
	}
}

// reachable returns the picked packages reachable from the root manifest.
func (st *state) reachable() map[string]bool {
	seen := make(map[string]bool, len(st.picks))
	queue := slices.Sorted(maps.Keys(st.roots))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		meta, ok := st.picks[name]
		if !ok {
			continue
		}
		seen[name] = true
		queue = append(queue, slices.Sorted(maps.Keys(meta.Dependencies))...)
	}
	return seen
}

// pruneUnreachable unpicks packages only kept alive by each other, such as
// cycles orphaned by a re-pick. It reports whether anything changed.
func (st *state) pruneUnreachable() bool {
	live := st.reachable()
	pruned := false
	for _, name := range slices.Sorted(maps.Keys(st.picks)) {
		if !live[name] {
			st.unpick(name)
			pruned = true
		}
	}
	return pruned
}

// pathTo returns the shortest chain of picked names from a root dependency to target.
func (st *state) pathTo(target string) []string {
	prev := make(map[string]string)
	seen := make(map[string]bool)
	queue := slices.Sorted(maps.Keys(st.roots))
	for _, r := range queue {
		seen[r] = true
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if name == target {
			var path []string
			for at := name; ; at = prev[at] {
				path = append(path, at)
				if _, ok := prev[at]; !ok {
					break
				}
			}
			slices.Reverse(path)
			return path
		}
		meta, ok := st.picks[name]
		if !ok {
			continue
		}
		for _, dep := range slices.Sorted(maps.Keys(meta.Dependencies)) {
			if !seen[dep] {
				seen[dep] = true
				prev[dep] = name
				queue = append(queue, dep)
			}
		}
	}
	return []string{target}
}

func (st *state) conflictError() error {
	if len(st.conflicts) == 0 {
		return nil
	}

	var errs []error
	for _, name := range slices.Sorted(maps.Keys(st.conflicts)) {
		available := st.versions[name]
		if available == nil {
			available, _ = st.listVersions(name)
		}
		unsat := &domain.UnsatisfiableError{
			Package:   name,
			Available: available,
			Cause:     st.conflicts[name].cause,
		}
		reqs := st.reqs[name]
		for _, parent := range slices.Sorted(maps.Keys(reqs)) {
			trace := domain.RequirementTrace{Parent: parent, Constraint: reqs[parent]}
			if parent != "" {
				if meta, ok := st.picks[parent]; ok {
					trace.ParentVersion = meta.Version
				}
				trace.Path = st.pathTo(parent)
			}
			unsat.Requirements = append(unsat.Requirements, trace)
		}
		errs = append(errs, unsat)
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

func (st *state) graph() (*domain.ResolutionGraph, error) {
	g := domain.NewResolutionGraph()
	for name, c := range st.roots {
		g.AddRoot(name, c)
	}
	for _, name := range slices.Sorted(maps.Keys(st.picks)) {
		meta := st.picks[name]
		deps := make(map[string]domain.Constraint, len(meta.Dependencies))
		maps.Copy(deps, meta.Dependencies)
		node := &domain.DependencyNode{
			Name:         name,
			Version:      meta.Version,
			Tarball:      meta.Tarball,
			Dependencies: deps,
		}
		if err := g.AddNode(node); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, zerr.Wrap(err, "resolved graph failed validation")
	}
	return g, nil
}

func (st *state) listVersions(name string) ([]domain.Version, error) {
	if err, ok := st.versionErrs[name]; ok {
		return nil, err
	}
	if versions, ok := st.versions[name]; ok {
		return versions, nil
	}

	var versions []domain.Version
	err := st.call(func(ctx context.Context) error {
		var err error
		versions, err = st.r.registry.ListVersions(ctx, name)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			st.versionErrs[name] = err
		}
		return nil, err
	}
	st.versions[name] = versions
	return versions, nil
}

func (st *state) getMetadata(name string, v domain.Version) (*domain.PackageMetadata, error) {
	key := name + "@" + v.String()
	if meta, ok := st.metadata[key]; ok {
		return meta, nil
	}

	var meta *domain.PackageMetadata
	err := st.call(func(ctx context.Context) error {
		var err error
		meta, err = st.r.registry.GetMetadata(ctx, name, v)
		return err
	})
	if err != nil {
		return nil, err
	}
	st.metadata[key] = meta
	return meta, nil
}

// call runs a registry request under the per-call deadline, if one is set.
func (st *state) call(fn func(ctx context.Context) error) error {
	if st.r.callTimeout <= 0 {
		return fn(st.ctx)
	}
	ctx, cancel := context.WithTimeout(st.ctx, st.r.callTimeout)
	defer cancel()

	err := fn(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && st.ctx.Err() == nil {
		return zerr.With(zerr.Wrap(domain.ErrNetwork, "registry call timed out"), "timeout", st.r.callTimeout.String())
	}
	return err
}
