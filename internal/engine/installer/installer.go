// Package installer materializes install plans onto disk with a bounded worker pool.
package installer

import (
	"context"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/lpm/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Installer fetches plan entries through the store and extracts them into
// isolated destination directories.
type Installer struct {
	store     ports.TarballStore
	extractor ports.Extractor
	hasher    ports.Hasher
}

// Options configures a single Install call.
type Options struct {
	// Concurrency bounds the number of entries processed at once.
	// Values below 1 default to runtime.NumCPU().
	Concurrency int
	// Reporter receives progress events. Nil disables reporting.
	Reporter ports.Reporter
}

// New creates an Installer.
func New(store ports.TarballStore, extractor ports.Extractor, hasher ports.Hasher) *Installer {
	return &Installer{
		store:     store,
		extractor: extractor,
		hasher:    hasher,
	}
}

// Install materializes every entry of plan under root, then links the plan's
// direct dependencies into root. Outcomes are returned in plan order.
// The returned error is nil only when every entry is installed or cached.
func (i *Installer) Install(
	ctx context.Context,
	plan *domain.InstallPlan,
	root string,
	opts Options,
) (*domain.InstallResult, error) {
	reporter := opts.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}
	parallelism := opts.Concurrency
	if parallelism < 1 {
		parallelism = runtime.NumCPU()
	}

	reporter.OnPlan(plan.Entries)

	if err := os.MkdirAll(filepath.Join(root, domain.VirtualStoreDirName), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrMaterializeFailed, err.Error()), "path", root)
	}

	state := &runState{
		ctx:         ctx,
		installer:   i,
		root:        root,
		entries:     plan.Entries,
		outcomes:    make([]domain.EntryOutcome, len(plan.Entries)),
		ready:       make([]int, len(plan.Entries)),
		resultsCh:   make(chan result, parallelism),
		parallelism: parallelism,
		reporter:    reporter,
	}
	for idx := range plan.Entries {
		state.ready[idx] = idx
		state.outcomes[idx] = domain.EntryOutcome{Entry: plan.Entries[idx], Status: domain.EntryStatusPending}
	}

	state.runLoop()

	result := &domain.InstallResult{Outcomes: state.outcomes}
	linkErr := i.linkRoots(ctx, plan, root, result)
	reporter.OnSummary(result)

	return result, installError(ctx, result, linkErr)
}

func installError(ctx context.Context, result *domain.InstallResult, linkErr error) error {
	var errs []error
	if ctx.Err() != nil && result.Count(domain.EntryStatusSkipped) > 0 {
		errs = append(errs, domain.ErrInstallCanceled, ctx.Err())
	}
	if entryErr := result.Err(); entryErr != nil {
		errs = append(errs, zerr.With(domain.Annotate(domain.ErrInstallFailed),
			"failed", result.Count(domain.EntryStatusFailed)), entryErr)
	}
	if linkErr != nil {
		errs = append(errs, linkErr)
	}
	return errors.Join(errs...)
}

type result struct {
	index    int
	status   domain.EntryStatus
	err      error
	duration time.Duration
}

type runState struct {
	ctx         context.Context
	installer   *Installer
	root        string
	entries     []domain.PlanEntry
	outcomes    []domain.EntryOutcome
	ready       []int
	active      int
	resultsCh   chan result
	parallelism int
	reporter    ports.Reporter
}

func (state *runState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *runState) runLoop() {
	for !state.isDone() {
		state.schedule()

		if state.ctx.Err() != nil && state.active == 0 {
			break
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
			if state.active > 0 {
				state.handleResult(<-state.resultsCh)
			}
		}
	}

	for _, idx := range state.ready {
		state.outcomes[idx].Status = domain.EntryStatusSkipped
		state.reporter.OnEntryComplete(state.outcomes[idx])
	}
	state.ready = nil
}

func (state *runState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		idx := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.outcomes[idx].Status = domain.EntryStatusRunning
		state.reporter.OnEntryStart(state.entries[idx])

		go state.execute(idx)
	}
}

func (state *runState) execute(idx int) {
	start := time.Now()
	status, err := state.installer.materialize(state.ctx, state.root, state.entries[idx])
	state.resultsCh <- result{index: idx, status: status, err: err, duration: time.Since(start)}
}

func (state *runState) handleResult(res result) {
	state.active--

	outcome := &state.outcomes[res.index]
	outcome.Status = res.status
	outcome.Duration = res.duration
	switch {
	case res.err == nil:
	case state.ctx.Err() != nil && errors.Is(res.err, state.ctx.Err()):
		// Interrupted mid-fetch; nothing was moved into place.
		outcome.Status = domain.EntryStatusSkipped
	default:
		outcome.Err = zerr.With(res.err, "package", outcome.Entry.ID())
	}
	state.reporter.OnEntryComplete(*outcome)
}

// linkRoots points root/<name> at the destination of each successfully
// installed direct dependency.
func (i *Installer) linkRoots(
	ctx context.Context,
	plan *domain.InstallPlan,
	root string,
	result *domain.InstallResult,
) error {
	installed := make(map[string]bool, len(result.Outcomes))
	for _, o := range result.Outcomes {
		if o.Status.IsSuccess() {
			installed[o.Entry.Destination] = true
		}
	}

	g, _ := errgroup.WithContext(ctx)
	for _, name := range slices.Sorted(maps.Keys(plan.RootLinks)) {
		target := plan.RootLinks[name]
		if !installed[target] {
			continue
		}
		g.Go(func() error {
			return link(domain.LinkPath(root, name), filepath.Join(root, target))
		})
	}
	return g.Wait()
}
