package ports

import "go.trai.ch/lpm/internal/core/domain"

// Reporter receives install progress events.
// Calls may arrive from several workers at once.
//
//go:generate mockgen -source=reporter.go -destination=mocks/mock_reporter.go -package=mocks
type Reporter interface {
	// OnPlan is called once with the entries about to be installed.
	OnPlan(entries []domain.PlanEntry)

	// OnEntryStart is called when a worker picks up an entry.
	OnEntryStart(entry domain.PlanEntry)

	// OnEntryComplete is called when an entry reaches a terminal status.
	OnEntryComplete(outcome domain.EntryOutcome)

	// OnSummary is called once after every entry has an outcome.
	OnSummary(result *domain.InstallResult)
}
