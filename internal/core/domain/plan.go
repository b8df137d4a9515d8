package domain

import (
	"errors"
	"time"
)

// InstallPlan is the deterministic, deduplicated list of packages to materialize.
type InstallPlan struct {
	// Entries are ordered by name, then by version.
	Entries []PlanEntry
	// RootLinks maps each direct dependency to the destination of its entry.
	RootLinks map[string]string
}

// PlanEntry is one package to fetch and materialize.
type PlanEntry struct {
	Name    string
	Version Version
	Tarball TarballRef
	// Destination is relative to the install root.
	Destination string
	// Links maps dependency names to their destinations, relative to the install root.
	Links map[string]string
}

// ID returns "name@version".
func (e PlanEntry) ID() string {
	return e.Name + "@" + e.Version.String()
}

// EntryStatus is the lifecycle state of a plan entry during install.
type EntryStatus string

const (
	// EntryStatusPending indicates the entry has not been started.
	EntryStatusPending EntryStatus = "pending"
	// EntryStatusRunning indicates the entry is being fetched or materialized.
	EntryStatusRunning EntryStatus = "running"
	// EntryStatusInstalled indicates the entry was materialized by this run.
	EntryStatusInstalled EntryStatus = "installed"
	// EntryStatusCached indicates the destination already held a verified copy.
	EntryStatusCached EntryStatus = "cached"
	// EntryStatusFailed indicates the entry could not be installed.
	EntryStatusFailed EntryStatus = "failed"
	// EntryStatusSkipped indicates the entry never started because the install was canceled.
	EntryStatusSkipped EntryStatus = "skipped"
)

// IsTerminal checks if a status is a terminal state.
func (s EntryStatus) IsTerminal() bool {
	switch s {
	case EntryStatusInstalled, EntryStatusCached, EntryStatusFailed, EntryStatusSkipped:
		return true
	default:
		return false
	}
}

// IsSuccess reports whether the entry ended with its destination in place.
func (s EntryStatus) IsSuccess() bool {
	return s == EntryStatusInstalled || s == EntryStatusCached
}

// EntryOutcome reports what happened to one plan entry.
type EntryOutcome struct {
	Entry    PlanEntry
	Status   EntryStatus
	Err      error
	Duration time.Duration
}

// InstallResult aggregates the outcomes of an install, in plan order.
type InstallResult struct {
	Outcomes []EntryOutcome
}

// Count returns the number of outcomes with the given status.
func (r *InstallResult) Count(status EntryStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Err joins every entry error, or returns nil when all entries succeeded.
func (r *InstallResult) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}
